// Package historycmder provides the history command for browsing recorded
// tutoring turns.
package historycmder

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tutorloop/tutorstream/pkg/config"
	"github.com/tutorloop/tutorstream/pkg/history/sqlite"
	"github.com/tutorloop/tutorstream/pkg/session"
)

const historyDBFile = "history.db"

const historyLongDesc string = `Browse recorded tutoring history.

Completed question/answer turns from "tutor chat" are stored in a local
SQLite database inside the .tutorstream/ directory.

Use subcommands to list or show turns:
  tutor history list            List recent turns, newest first
  tutor history show <id>       Show one turn with the full answer

Examples:
  tutor history list
  tutor history show 4fa2c1d8`

const historyShortDesc string = "Browse recorded tutoring history"

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

// openDriver resolves the history database path from config-dir and flags,
// and opens the SQLite driver. Callers own the returned driver.
func openDriver(cmd *cobra.Command) (*sqlite.Driver, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), []string{
		config.FlagSQLite,
	})

	path := config.FromViper(v).History.SQLitePath
	if path == "" {
		dir, err := session.Target(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving history path: %w", err)
		}
		path = filepath.Join(dir, historyDBFile)
	}

	driver, err := sqlite.NewDriver(path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return driver, nil
}
