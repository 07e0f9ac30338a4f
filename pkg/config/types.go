// Package config loads tutorstream configuration with viper, layering
// defaults, the config.toml in the .tutorstream/ directory, TUTORSTREAM_*
// environment variables, and bound CLI flags.
package config

// Config represents the persistent tutorstream configuration stored as
// config.toml in the .tutorstream/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int `toml:"version"`

	Client  ClientConfig  `toml:"client"`
	History HistoryConfig `toml:"history"`
	Replay  ReplayConfig  `toml:"replay"`
}

// ClientConfig holds settings for commands that connect to the tutor
// backend (e.g. tutor chat).
type ClientConfig struct {
	// Target is the backend base URL (scheme + host + port).
	Target string `toml:"target,omitempty"`

	// StreamTimeout is the wall-clock cutoff for a stream with no terminal
	// event, as a Go duration string.
	StreamTimeout string `toml:"stream_timeout,omitempty"`
}

// HistoryConfig holds transcript storage settings.
type HistoryConfig struct {
	// SQLitePath is the history database path. Empty resolves to
	// history.db inside the .tutorstream/ directory.
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// ReplayConfig holds settings for the local practice server.
type ReplayConfig struct {
	Listen string `toml:"listen,omitempty"`

	// Script is the path of a transcript script to serve. Empty serves the
	// built-in demo script.
	Script string `toml:"script,omitempty"`

	// Shuffle delivers each answer's chunks out of order to exercise the
	// client's reordering buffer.
	Shuffle bool `toml:"shuffle,omitempty"`
}
