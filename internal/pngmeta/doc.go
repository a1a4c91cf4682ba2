// Package pngmeta parses and serializes the PNG text-chunk convention used
// for embedded generative-image metadata.
//
// The reader walks the chunk sequence tolerantly: truncation, corrupt
// lengths, and CRC mismatches end or skip decoding but never error, so a
// damaged file still views as an image without metadata. The writer replaces
// a single text chunk and copies every other chunk through untouched,
// leaving pixel data byte-identical.
//
// Extraction is format gated. Callers pass the sniffed container format and
// receive nil for anything but PNG, which keeps the call sites free of
// format special cases as support grows.
package pngmeta
