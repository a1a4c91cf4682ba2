// Package xmpmeta reads and writes the xmp:Rating property embedded in image
// files.
//
// The codec layer works on raw bytes: it locates the XMP packet inside PNG
// iTXt chunks, JPEG APP1 segments, and WebP RIFF chunks, and edits the packet
// textually so every other metadata field survives a rating write untouched.
// Pixel data is never rewritten.
//
// Store adds the filesystem side: reads, and atomic temp-and-rename writes
// performed under an exclusive flock claim. Writer support currently covers
// PNG and JPEG; other containers fail with services.ErrUnsupportedFormat.
package xmpmeta
