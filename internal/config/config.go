package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Watch contains directory-watch timing configuration.
type Watch struct {
	// DebounceMs is the quiet period that must elapse after the last raw
	// filesystem event before a settled diff is emitted.
	DebounceMs int `toml:"debounce_ms"`
	// SelfEventWindowMs is how long after a rating write a "modified" event
	// for the same path is treated as self-induced and not re-fetched.
	SelfEventWindowMs int `toml:"self_event_window_ms"`
}

// Viewer contains session behaviour configuration.
type Viewer struct {
	// CacheCapacity is the number of loaded assets kept for fast navigation.
	CacheCapacity int `toml:"cache_capacity"`
}

// Config centralizes every knob the CLI and session need.
type Config struct {
	Logging Logging `toml:"logging"`
	Watch   Watch   `toml:"watch"`
	Viewer  Viewer  `toml:"viewer"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return "~/.config/pictor/config.toml"
}

// Load reads the TOML file at path, applies defaults for absent fields, and
// validates the result. A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, err := ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	if resolved == "" {
		resolved, err = ExpandPath(DefaultPath())
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the annotated sample configuration to path, creating
// parent directories as needed. It refuses to overwrite an existing file.
func WriteSample(path string) error {
	resolved, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists: %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// Debounce returns the configured debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// SelfEventWindow returns the self-induced modification suppression window.
func (c *Config) SelfEventWindow() time.Duration {
	return time.Duration(c.Watch.SelfEventWindowMs) * time.Millisecond
}

// ExpandPath resolves a leading tilde against the current user's home
// directory and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
