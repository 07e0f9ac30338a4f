package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tutorloop/tutorstream/pkg/session"
)

const configFile = "config.toml"

// Configer reads and writes the persistent config.toml in the resolved
// .tutorstream/ directory. It backs the "tutor config" subcommands; flag
// and env layering for the other commands goes through viper instead.
type Configer struct {
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	target, err := session.Target(override)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.target": {
		get: func(c *Config) string { return c.Client.Target },
		set: func(c *Config, v string) error { c.Client.Target = v; return nil },
	},
	"client.stream_timeout": {
		get: func(c *Config) string { return c.Client.StreamTimeout },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for client.stream_timeout: %w", err)
			}
			c.Client.StreamTimeout = v
			return nil
		},
	},
	"history.sqlite_path": {
		get: func(c *Config) string { return c.History.SQLitePath },
		set: func(c *Config, v string) error { c.History.SQLitePath = v; return nil },
	},
	"replay.listen": {
		get: func(c *Config) string { return c.Replay.Listen },
		set: func(c *Config, v string) error { c.Replay.Listen = v; return nil },
	},
	"replay.script": {
		get: func(c *Config) string { return c.Replay.Script },
		set: func(c *Config, v string) error { c.Replay.Script = v; return nil },
	},
	"replay.shuffle": {
		get: func(c *Config) string { return strconv.FormatBool(c.Replay.Shuffle) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for replay.shuffle: %w", err)
			}
			c.Replay.Shuffle = b
			return nil
		},
	},
}

// ValidConfigKeys returns all supported configuration key names in a stable,
// logical order matching the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"client.target",
		"client.stream_timeout",
		"history.sqlite_path",
		"replay.listen",
		"replay.script",
		"replay.shuffle",
	}

	// Sanity: only return keys that actually exist in the map, then append
	// any map keys the ordered list missed.
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target
// .tutorstream/ directory. If the file does not exist, returns
// NewDefaultConfig() so callers always receive a fully-populated Config.
// Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Client.Target == "" {
		cfg.Client.Target = defaults.Client.Target
	}
	if cfg.Client.StreamTimeout == "" {
		cfg.Client.StreamTimeout = defaults.Client.StreamTimeout
	}

	if cfg.Replay.Listen == "" {
		cfg.Replay.Listen = defaults.Replay.Listen
	}
}

// SaveConfig persists the configuration to config.toml in the target
// .tutorstream/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
