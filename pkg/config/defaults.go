package config

const (
	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0

	defaultClientTarget  = "http://localhost:8085"
	defaultStreamTimeout = "2m"

	defaultReplayListen = ":8085"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			Target:        defaultClientTarget,
			StreamTimeout: defaultStreamTimeout,
		},
		History: HistoryConfig{
			// Empty resolves to history.db in the .tutorstream/ directory.
			SQLitePath: "",
		},
		Replay: ReplayConfig{
			Listen:  defaultReplayListen,
			Shuffle: false,
		},
	}
}
