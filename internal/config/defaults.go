package config

const (
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultDebounceMs        = 300
	defaultSelfEventWindowMs = 2000
	defaultCacheCapacity     = 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Watch: Watch{
			DebounceMs:        defaultDebounceMs,
			SelfEventWindowMs: defaultSelfEventWindowMs,
		},
		Viewer: Viewer{
			CacheCapacity: defaultCacheCapacity,
		},
	}
}
