package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --target
// on both "tutor chat" and "tutor history").
type Flag struct {
	// Name is the long flag name (e.g. "target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no
	// shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g.
	// "client.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag registry keys to Flag structs.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag, and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagTarget        = "target"
	FlagStreamTimeout = "stream-timeout"
	FlagSQLite        = "sqlite"
	FlagReplayListen  = "replay-listen"
	FlagReplayScript  = "replay-script"
	FlagReplayShuffle = "replay-shuffle"
)

// DefaultFlagSet returns the standard flag registry shared by the tutor
// commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagTarget: {
			Name:        "target",
			Shorthand:   "t",
			ViperKey:    "client.target",
			Description: "Tutor backend base URL",
		},
		FlagStreamTimeout: {
			Name:        "stream-timeout",
			ViperKey:    "client.stream_timeout",
			Description: "Wall-clock cutoff for a stream with no terminal event",
		},
		FlagSQLite: {
			Name:        "sqlite",
			ViperKey:    "history.sqlite_path",
			Description: "History database path",
		},
		FlagReplayListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "replay.listen",
			Description: "Replay server listen address",
		},
		FlagReplayScript: {
			Name:        "script",
			ViperKey:    "replay.script",
			Description: "Transcript script to serve (empty serves the built-in demo)",
		},
		FlagReplayShuffle: {
			Name:        "shuffle",
			ViperKey:    "replay.shuffle",
			Description: "Deliver answer chunks out of order",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *string) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using
// definitions from the given FlagSet. Call this in PreRunE after InitViper
// to connect flags to the viper precedence chain
// (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from
// NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from
// NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
