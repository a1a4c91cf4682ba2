package imagefile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies an image container, determined by content sniffing.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPNG
	FormatJPEG
	FormatWebP
	FormatGIF
	FormatBMP
)

// sniffLen covers the longest signature we check (RIFF....WEBP).
const sniffLen = 12

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// Extensions lists the file extensions considered during directory
// enumeration. Extension matching is only a prefilter; classification is
// always confirmed by Sniff.
var Extensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".gif":  {},
	".bmp":  {},
}

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatWebP:
		return "webp"
	case FormatGIF:
		return "gif"
	case FormatBMP:
		return "bmp"
	default:
		return "unsupported"
	}
}

// Sniff classifies raw file bytes by magic number. Short or unrecognized
// buffers are FormatUnsupported.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= len(pngSignature) && bytes.Equal(data[:len(pngSignature)], pngSignature):
		return FormatPNG
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	case len(data) >= sniffLen && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return FormatGIF
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return FormatBMP
	default:
		return FormatUnsupported
	}
}

// SniffFile reads just enough of the file header to classify it.
func SniffFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnsupported, err
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnsupported, err
	}
	return Sniff(header[:n]), nil
}

// HasSupportedExtension reports whether the file name carries one of the
// enumerable image extensions.
func HasSupportedExtension(name string) bool {
	_, ok := Extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Entry represents one image file in the active directory.
type Entry struct {
	Path    string
	Name    string
	ModTime time.Time
	Format  Format
}

// FormatForLog compacts a path's file name for log lines: long names keep the
// first and last ten characters around an ellipsis.
func FormatForLog(path string) string {
	name := filepath.Base(path)
	runes := []rune(name)
	if len(runes) <= 23 {
		return name
	}
	return string(runes[:10]) + "..." + string(runes[len(runes)-10:])
}
