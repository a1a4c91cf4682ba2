// Package logging assembles the structured slog loggers used across pictor.
//
// It owns the console and JSON handlers, level parsing, and the component
// attribute convention so every subsystem emits log lines with the same
// shape. A no-op constructor serves tests and wiring code that cannot fail.
package logging
