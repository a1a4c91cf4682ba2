package config

import "fmt"

// validate rejects configurations that would misbehave at runtime.
func (c *Config) validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Watch.DebounceMs > 10_000 {
		return fmt.Errorf("watch.debounce_ms must be 10000 or less, got %d", c.Watch.DebounceMs)
	}
	return nil
}
