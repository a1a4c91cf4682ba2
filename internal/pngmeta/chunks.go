package pngmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Keywords used by text chunks this codec recognizes.
const (
	// KeywordParameters is the tEXt keyword Stable Diffusion front ends use
	// for the generation parameter blob.
	KeywordParameters = "parameters"
	// KeywordXMP is the iTXt keyword carrying an XMP packet.
	KeywordXMP = "XML:com.adobe.xmp"
	// keywordXMPShort is a nonstandard variant seen in the wild.
	keywordXMPShort = "xmp"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// TextChunk is one decoded text-type chunk (tEXt, zTXt, or iTXt).
type TextChunk struct {
	Keyword string
	Text    string
}

// rawChunk is an undecoded chunk slice into the original buffer.
type rawChunk struct {
	typ  string
	data []byte
	crc  uint32
}

// walkChunks iterates the chunk sequence, tolerating truncation and corrupt
// lengths: iteration simply stops at the first structural inconsistency, so
// callers always get the chunks that were recoverable.
func walkChunks(data []byte, visit func(rawChunk) bool) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return
	}
	offset := len(pngSignature)
	for {
		if offset+8 > len(data) {
			return
		}
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		if length < 0 || offset+8+length+4 > len(data) {
			return
		}
		chunk := rawChunk{
			typ:  string(data[offset+4 : offset+8]),
			data: data[offset+8 : offset+8+length],
			crc:  binary.BigEndian.Uint32(data[offset+8+length : offset+12+length]),
		}
		if !visit(chunk) {
			return
		}
		if chunk.typ == "IEND" {
			return
		}
		offset += 12 + length
	}
}

func (c rawChunk) crcValid() bool {
	sum := crc32.NewIEEE()
	sum.Write([]byte(c.typ))
	sum.Write(c.data)
	return sum.Sum32() == c.crc
}

// TextChunks decodes every recoverable text-type chunk. Chunks with CRC
// mismatches or undecodable payloads are skipped, never fatal.
func TextChunks(data []byte) []TextChunk {
	var chunks []TextChunk
	walkChunks(data, func(c rawChunk) bool {
		switch c.typ {
		case "tEXt", "zTXt", "iTXt":
			if !c.crcValid() {
				return true
			}
			if decoded, ok := decodeTextChunk(c); ok {
				chunks = append(chunks, decoded)
			}
		}
		return true
	})
	return chunks
}

func decodeTextChunk(c rawChunk) (TextChunk, bool) {
	switch c.typ {
	case "tEXt":
		keyword, rest, ok := splitNull(c.data)
		if !ok {
			return TextChunk{}, false
		}
		return TextChunk{Keyword: latin1String(keyword), Text: latin1String(rest)}, true
	case "zTXt":
		keyword, rest, ok := splitNull(c.data)
		if !ok || len(rest) < 1 || rest[0] != 0 {
			return TextChunk{}, false
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return TextChunk{}, false
		}
		return TextChunk{Keyword: latin1String(keyword), Text: latin1String(text)}, true
	case "iTXt":
		keyword, rest, ok := splitNull(c.data)
		if !ok || len(rest) < 2 {
			return TextChunk{}, false
		}
		compressed := rest[0] == 1
		rest = rest[2:] // compression flag + method
		if _, rest, ok = splitNull(rest); !ok {
			return TextChunk{}, false // language tag
		}
		if _, rest, ok = splitNull(rest); !ok {
			return TextChunk{}, false // translated keyword
		}
		text := rest
		if compressed {
			inflated, err := inflate(text)
			if err != nil {
				return TextChunk{}, false
			}
			text = inflated
		}
		return TextChunk{Keyword: latin1String(keyword), Text: string(text)}, true
	}
	return TextChunk{}, false
}

// FindText returns the text for the first chunk with the given keyword.
func FindText(data []byte, keyword string) (string, bool) {
	for _, chunk := range TextChunks(data) {
		if chunk.Keyword == keyword {
			return chunk.Text, true
		}
	}
	return "", false
}

// XMPPacket returns the embedded XMP packet, if any.
func XMPPacket(data []byte) (string, bool) {
	for _, chunk := range TextChunks(data) {
		if chunk.Keyword == KeywordXMP || chunk.Keyword == keywordXMPShort {
			return chunk.Text, true
		}
	}
	return "", false
}

// SetText returns a new PNG image with a text chunk for keyword holding text,
// replacing any existing text chunk with the same keyword. Every other chunk,
// including all pixel data, is copied through byte for byte. Latin-1
// representable text is written as tEXt; anything else as UTF-8 iTXt.
func SetText(data []byte, keyword, text string) ([]byte, error) {
	return setTextChunk(data, keyword, text, !isLatin1(text))
}

// SetInternationalText is SetText but always emits an iTXt chunk. The XMP
// embedding convention requires iTXt even for pure-ASCII packets.
func SetInternationalText(data []byte, keyword, text string) ([]byte, error) {
	return setTextChunk(data, keyword, text, true)
}

func setTextChunk(data []byte, keyword, text string, international bool) ([]byte, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, fmt.Errorf("not a png image")
	}
	if strings.ContainsRune(keyword, 0) || len(keyword) == 0 || len(keyword) > 79 {
		return nil, fmt.Errorf("invalid chunk keyword %q", keyword)
	}

	var out bytes.Buffer
	out.Write(pngSignature)

	sawEnd := false
	walkChunks(data, func(c rawChunk) bool {
		if isTextType(c.typ) {
			if decoded, ok := decodeTextChunk(c); ok && decoded.Keyword == keyword {
				return true // dropped; replacement goes before IEND
			}
		}
		if c.typ == "IEND" {
			writeTextChunk(&out, keyword, text, international)
			sawEnd = true
		}
		writeChunk(&out, c.typ, c.data)
		return true
	})
	if !sawEnd {
		return nil, fmt.Errorf("png chunk sequence is truncated")
	}
	return out.Bytes(), nil
}

func isTextType(typ string) bool {
	return typ == "tEXt" || typ == "zTXt" || typ == "iTXt"
}

func writeTextChunk(out *bytes.Buffer, keyword, text string, international bool) {
	if !international {
		payload := make([]byte, 0, len(keyword)+1+len(text))
		payload = append(payload, latin1Bytes(keyword)...)
		payload = append(payload, 0)
		payload = append(payload, latin1Bytes(text)...)
		writeChunk(out, "tEXt", payload)
		return
	}
	payload := make([]byte, 0, len(keyword)+5+len(text))
	payload = append(payload, latin1Bytes(keyword)...)
	payload = append(payload, 0, 0, 0) // keyword terminator, uncompressed, method 0
	payload = append(payload, 0, 0)    // empty language tag, translated keyword
	payload = append(payload, text...)
	writeChunk(out, "iTXt", payload)
}

func writeChunk(out *bytes.Buffer, typ string, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	out.Write(length[:])
	out.WriteString(typ)
	out.Write(data)

	sum := crc32.NewIEEE()
	sum.Write([]byte(typ))
	sum.Write(data)
	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], sum.Sum32())
	out.Write(crc[:])
}

func splitNull(data []byte) (before, after []byte, ok bool) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return nil, nil, false
	}
	return data[:idx], data[idx+1:], true
}

func inflate(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func latin1String(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

func latin1Bytes(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > 0xFF {
			return false
		}
	}
	return true
}
