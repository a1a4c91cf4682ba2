// Package session orchestrates the viewer core: it owns the directory
// index and current selection, loads metadata lazily through the asset
// cache, writes ratings through the store, and consumes settled diffs
// from the watcher. The session is the single writer of its own state;
// background components hand results in through explicit callbacks.
package session
