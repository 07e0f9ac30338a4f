// Package session manages the .tutorstream/ dot directory and the persisted
// session state inside it: the auth token for the tutor backend and the
// active conversation identifier a returning user resumes into.
package session

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the tutorstream directory.
	dirName = ".tutorstream"
)

// Target returns the absolute path to a .tutorstream/ directory, creating it
// if needed. Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.tutorstream/ dir
//  3. Home ~/.tutorstream/ dir
func Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating tutorstream directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .tutorstream/ directory exists in the
// current working directory.
func localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
