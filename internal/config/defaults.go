package config

const (
	defaultConfigPath            = "~/.config/mover/config.toml"
	defaultWatchDir              = "/srv/done"
	defaultSaveDir               = "/mnt"
	defaultStateDir              = "~/.local/share/mover"
	defaultLogDir                = "~/.local/share/mover/logs"
	defaultMoviesDir             = "movie"
	defaultTVDir                 = "tv"
	defaultPollInterval          = 3600
	defaultRPCURL                = "http://127.0.0.1:9091/transmission/rpc"
	defaultRPCRequestTimeout     = 30
	defaultMaxConflictRetries    = 1
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	maxConflictRetriesUpperBound = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			SaveDir:  defaultSaveDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
		},
		Feed: Feed{
			PollInterval: defaultPollInterval,
		},
		RPC: RPC{
			URL:                defaultRPCURL,
			RequestTimeout:     defaultRPCRequestTimeout,
			MaxConflictRetries: defaultMaxConflictRetries,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Submissions:    true,
			Placements:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
