// Package assetcache keeps a bounded in-memory cache of decoded image
// assets keyed by path. Each entry carries the raw bytes alongside the
// parsed generation metadata and rating so directory navigation does not
// repeatedly hit the filesystem for recently viewed files.
package assetcache
