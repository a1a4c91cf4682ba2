// Package fileutil provides verified file copying for exporting images out
// of the browsing directory.
package fileutil
