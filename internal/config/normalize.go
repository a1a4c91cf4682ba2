package config

import "strings"

// normalize fills absent fields with defaults and canonicalizes string knobs
// so downstream code never re-trims or re-cases them.
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Watch.DebounceMs <= 0 {
		c.Watch.DebounceMs = defaultDebounceMs
	}
	if c.Watch.SelfEventWindowMs <= 0 {
		c.Watch.SelfEventWindowMs = defaultSelfEventWindowMs
	}
	if c.Viewer.CacheCapacity <= 0 {
		c.Viewer.CacheCapacity = defaultCacheCapacity
	}
}
