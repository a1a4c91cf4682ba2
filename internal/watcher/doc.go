// Package watcher debounces raw filesystem notifications into settled
// directory diffs.
//
// Operating systems deliver several events per logical change (a copy is a
// create plus a burst of writes), and reacting to each one individually
// causes flicker and redundant decoding upstream. The reconciler buffers
// events behind a quiet-period timer and emits one Diff per window, with
// per-path coalescing: the last event wins and a create/delete pair cancels.
//
// The subscription has an explicit lifecycle. Stop discards any in-flight
// window and guarantees no delivery after it returns; a failed subscription
// is surfaced exactly once and never retried automatically.
package watcher
