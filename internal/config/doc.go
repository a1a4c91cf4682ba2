// Package config loads, normalizes, and validates pictor configuration data.
//
// It supplies repository defaults, expands tilde paths, and reads TOML files.
// The Config type centralizes every knob the CLI and viewer session need so
// downstream code receives sanitized values and clear validation errors.
package config
