// Package library maintains the ordered snapshot of a directory's image
// entries and answers next/previous navigation queries.
//
// Snapshots are immutable: reconciliation produces a new Index from a Diff,
// so the session can recompute its selection by path identity before
// swapping snapshots. Ordering is numeric-aware collation on file name,
// which keeps img2 ahead of img10 and is identical across rebuilds.
package library
