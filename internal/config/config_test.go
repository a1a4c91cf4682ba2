package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("default debounce = %v, want 300ms", cfg.Debounce())
	}
	if cfg.SelfEventWindow() != 2*time.Second {
		t.Errorf("default self event window = %v, want 2s", cfg.SelfEventWindow())
	}
	if cfg.Viewer.CacheCapacity != 16 {
		t.Errorf("default cache capacity = %d, want 16", cfg.Viewer.CacheCapacity)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[logging]
level = " DEBUG "
format = "JSON"

[watch]
debounce_ms = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format = %q, want json", cfg.Logging.Format)
	}
	if cfg.Debounce() != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", cfg.Debounce())
	}
	// Unset sections keep defaults.
	if cfg.Viewer.CacheCapacity != 16 {
		t.Errorf("cache capacity = %d, want default 16", cfg.Viewer.CacheCapacity)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
		{"huge debounce", "[watch]\ndebounce_ms = 60000\n", "debounce_ms"},
		{"malformed toml", "logging = {", "parse config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q should mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}

	// Sample must load cleanly.
	if _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}

	// Refuses to clobber.
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error overwriting existing config")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := ExpandPath("~/images")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "images") {
		t.Errorf("ExpandPath(~/images) = %q", got)
	}

	got, err = ExpandPath("")
	if err != nil || got != "" {
		t.Errorf("ExpandPath(\"\") = %q, %v", got, err)
	}
}
