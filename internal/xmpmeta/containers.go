package xmpmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"pictor/internal/imagefile"
	"pictor/internal/pngmeta"
	"pictor/internal/services"
)

// jpegXMPHeader prefixes the XMP packet inside a JPEG APP1 segment.
const jpegXMPHeader = "http://ns.adobe.com/xap/1.0/\x00"

// ReadRating extracts the embedded xmp:Rating from raw image bytes. Formats
// without a recognized XMP region, and files without a packet, read as 0.
func ReadRating(data []byte, format imagefile.Format) int {
	packet, ok := Packet(data, format)
	if !ok {
		return 0
	}
	return RatingFromPacket(packet)
}

// Packet locates the serialized XMP packet for the given container.
func Packet(data []byte, format imagefile.Format) (string, bool) {
	switch format {
	case imagefile.FormatPNG:
		return pngmeta.XMPPacket(data)
	case imagefile.FormatJPEG:
		return jpegPacket(data)
	case imagefile.FormatWebP:
		return webpPacket(data)
	default:
		return "", false
	}
}

// Apply returns a new image with xmp:Rating set, preserving every other
// metadata field and leaving pixel data byte-identical. Only PNG and JPEG
// have writer support; all other formats fail with ErrUnsupportedFormat.
func Apply(data []byte, format imagefile.Format, rating int) ([]byte, error) {
	existing, _ := Packet(data, format)

	switch format {
	case imagefile.FormatPNG:
		packet, err := SetRatingInPacket(existing, rating)
		if err != nil {
			return nil, err
		}
		out, err := pngmeta.SetInternationalText(data, pngmeta.KeywordXMP, packet)
		if err != nil {
			return nil, services.Wrap(services.ErrCorruptMetadata, "xmpmeta", "apply", "", err)
		}
		return out, nil
	case imagefile.FormatJPEG:
		packet, err := SetRatingInPacket(existing, rating)
		if err != nil {
			return nil, err
		}
		out, err := jpegSetPacket(data, packet)
		if err != nil {
			return nil, services.Wrap(services.ErrCorruptMetadata, "xmpmeta", "apply", "", err)
		}
		return out, nil
	default:
		return nil, services.Wrap(services.ErrUnsupportedFormat, "xmpmeta", "apply",
			fmt.Sprintf("no rating writer for %s", format), nil)
	}
}

// jpegPacket scans marker segments up to start-of-scan for the XMP APP1.
func jpegPacket(data []byte) (string, bool) {
	var packet string
	found := false
	walkJPEGSegments(data, func(marker byte, payload []byte) bool {
		if marker == 0xE1 && bytes.HasPrefix(payload, []byte(jpegXMPHeader)) {
			packet = string(payload[len(jpegXMPHeader):])
			found = true
			return false
		}
		return true
	})
	return packet, found
}

// walkJPEGSegments visits each marker segment before the entropy-coded scan.
// Malformed streams end the walk silently; callers treat that as absence.
func walkJPEGSegments(data []byte, visit func(marker byte, payload []byte) bool) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return
	}
	offset := 2
	for {
		// Tolerate fill bytes between segments.
		for offset < len(data) && data[offset] == 0xFF && offset+1 < len(data) && data[offset+1] == 0xFF {
			offset++
		}
		if offset+4 > len(data) || data[offset] != 0xFF {
			return
		}
		marker := data[offset+1]
		if marker == 0xDA || marker == 0xD9 {
			return // scan data or end of image
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			offset += 2 // standalone marker, no length
			continue
		}
		length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if length < 2 || offset+2+length > len(data) {
			return
		}
		if !visit(marker, data[offset+4:offset+2+length]) {
			return
		}
		offset += 2 + length
	}
}

// jpegSetPacket replaces the XMP APP1 payload, or inserts a new APP1 after
// the leading application segments when the file has none. Everything from
// the first non-application segment onward, including all entropy-coded
// image data, is copied verbatim.
func jpegSetPacket(data []byte, packet string) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("not a jpeg image")
	}
	payload := append([]byte(jpegXMPHeader), packet...)
	if len(payload) > 0xFFFD {
		return nil, fmt.Errorf("xmp packet too large for a single APP1 segment (%d bytes)", len(payload))
	}

	var out bytes.Buffer
	out.Write(data[:2])

	offset := 2
	insertAt := 2
	replaced := false
	for {
		if offset+4 > len(data) || data[offset] != 0xFF {
			break
		}
		marker := data[offset+1]
		if marker == 0xDA || marker == 0xD9 {
			break
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			out.Write(data[offset : offset+2])
			offset += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if length < 2 || offset+2+length > len(data) {
			return nil, fmt.Errorf("jpeg segment truncated at offset %d", offset)
		}
		segment := data[offset : offset+2+length]
		if marker == 0xE1 && bytes.HasPrefix(segment[4:], []byte(jpegXMPHeader)) {
			writeJPEGSegment(&out, 0xE1, payload)
			replaced = true
		} else {
			out.Write(segment)
		}
		offset += 2 + length
		if marker >= 0xE0 && marker <= 0xEF {
			insertAt = out.Len()
		}
	}

	if !replaced {
		rest := out.Bytes()[insertAt:]
		trailer := append([]byte(nil), rest...)
		out.Truncate(insertAt)
		writeJPEGSegment(&out, 0xE1, payload)
		out.Write(trailer)
	}

	out.Write(data[offset:])
	return out.Bytes(), nil
}

func writeJPEGSegment(out *bytes.Buffer, marker byte, payload []byte) {
	out.Write([]byte{0xFF, marker})
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(payload)+2))
	out.Write(length[:])
	out.Write(payload)
}

// webpPacket walks RIFF chunks looking for the "XMP " chunk. WebP is
// read-only for ratings today; Apply refuses it.
func webpPacket(data []byte) (string, bool) {
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return "", false
	}
	offset := 12
	for offset+8 <= len(data) {
		fourCC := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		if size < 0 || offset+8+size > len(data) {
			return "", false
		}
		if fourCC == "XMP " {
			return string(data[offset+8 : offset+8+size]), true
		}
		offset += 8 + size
		if size%2 == 1 {
			offset++ // chunks are even-aligned
		}
	}
	return "", false
}
