package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tutorloop/tutorstream/pkg/session"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dot-directory resolution), and binds environment variables
// with the TUTORSTREAM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (TUTORSTREAM_CLIENT_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dot-directory resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := session.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: TUTORSTREAM_CLIENT_TARGET,
	// TUTORSTREAM_HISTORY_SQLITE_PATH, etc.
	v.SetEnvPrefix("TUTORSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of
// truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Client
	v.SetDefault("client.target", d.Client.Target)
	v.SetDefault("client.stream_timeout", d.Client.StreamTimeout)

	// History
	v.SetDefault("history.sqlite_path", d.History.SQLitePath)

	// Replay
	v.SetDefault("replay.listen", d.Replay.Listen)
	v.SetDefault("replay.script", d.Replay.Script)
	v.SetDefault("replay.shuffle", d.Replay.Shuffle)
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Client: ClientConfig{
			Target:        v.GetString("client.target"),
			StreamTimeout: v.GetString("client.stream_timeout"),
		},
		History: HistoryConfig{
			SQLitePath: v.GetString("history.sqlite_path"),
		},
		Replay: ReplayConfig{
			Listen:  v.GetString("replay.listen"),
			Script:  v.GetString("replay.script"),
			Shuffle: v.GetBool("replay.shuffle"),
		},
	}
}
