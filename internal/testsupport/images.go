package testsupport

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// SampleParameters is a realistic generation-parameters blob as written by
// common Stable Diffusion front ends.
const SampleParameters = "masterpiece, (detailed eyes:1.2), 1girl, outdoors\n" +
	"Negative prompt: lowres, (blurry:1.4), bad anatomy\n" +
	"Steps: 28, Sampler: DPM++ 2M Karras, Schedule type: Karras, CFG scale: 7, " +
	"Seed: 3817412569, Size: 832x1216, Model: illustriousXL, Denoising strength: 0.4, Clip skip: 2"

// PNG builds a minimal valid 1x1 grayscale PNG carrying the given text
// chunks as tEXt (written between IDAT and IEND).
func PNG(t *testing.T, textChunks map[string]string) []byte {
	t.Helper()

	var out bytes.Buffer
	out.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1) // width
	binary.BigEndian.PutUint32(ihdr[4:8], 1) // height
	ihdr[8] = 8                              // bit depth
	// color type, compression, filter, interlace all zero
	appendChunk(&out, "IHDR", ihdr)

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	if _, err := zw.Write([]byte{0x00, 0x80}); err != nil {
		t.Fatalf("compress scanline: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zlib writer: %v", err)
	}
	appendChunk(&out, "IDAT", idat.Bytes())

	for keyword, text := range textChunks {
		payload := append([]byte(keyword), 0)
		payload = append(payload, []byte(text)...)
		appendChunk(&out, "tEXt", payload)
	}

	appendChunk(&out, "IEND", nil)
	return out.Bytes()
}

// JPEG builds a structurally valid JPEG byte stream: SOI, JFIF APP0, a
// minimal SOS segment, entropy filler, and EOI. It is not decodable pixel
// data, which metadata-layer tests never need.
func JPEG(t *testing.T) []byte {
	t.Helper()

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8}) // SOI

	app0 := []byte("JFIF\x00\x01\x02\x00\x00\x01\x00\x01\x00\x00")
	out.Write([]byte{0xFF, 0xE0})
	writeSegmentLength(&out, len(app0))
	out.Write(app0)

	sos := []byte{0x01, 0x01, 0x00, 0x00, 0x3F, 0x00}
	out.Write([]byte{0xFF, 0xDA})
	writeSegmentLength(&out, len(sos))
	out.Write(sos)

	out.Write([]byte{0x12, 0x34, 0x56, 0x78}) // entropy-coded filler
	out.Write([]byte{0xFF, 0xD9})             // EOI
	return out.Bytes()
}

// WriteFile writes data under dir and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

func appendChunk(out *bytes.Buffer, typ string, data []byte) {
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

func writeSegmentLength(out *bytes.Buffer, payloadLen int) {
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(payloadLen+2))
	out.Write(length[:])
}
