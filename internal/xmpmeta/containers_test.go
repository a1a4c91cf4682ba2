package xmpmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"pictor/internal/imagefile"
	"pictor/internal/services"
	"pictor/internal/testsupport"
)

func TestApplyReadRoundTripPNG(t *testing.T) {
	png := testsupport.PNG(t, nil)
	for rating := 0; rating <= MaxRating; rating++ {
		updated, err := Apply(png, imagefile.FormatPNG, rating)
		if err != nil {
			t.Fatalf("Apply(%d) failed: %v", rating, err)
		}
		if got := ReadRating(updated, imagefile.FormatPNG); got != rating {
			t.Errorf("read back %d, want %d", got, rating)
		}
		if imagefile.Sniff(updated) != imagefile.FormatPNG {
			t.Error("rewritten file no longer sniffs as PNG")
		}
	}
}

func TestApplyPNGPreservesPixelDataAndParameters(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{"parameters": testsupport.SampleParameters})

	updated, err := Apply(png, imagefile.FormatPNG, 4)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// The IDAT chunk (pixel data) must be byte-identical.
	idat := extractChunk(t, png, "IDAT")
	if !bytes.Contains(updated, idat) {
		t.Error("IDAT bytes changed by rating write")
	}
	// The generation parameters chunk must survive.
	if !bytes.Contains(updated, []byte(testsupport.SampleParameters)) {
		t.Error("parameters chunk lost during rating write")
	}
}

func TestApplyPNGUpdatesExistingPacket(t *testing.T) {
	png := testsupport.PNG(t, nil)
	first, err := Apply(png, imagefile.FormatPNG, 2)
	if err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	second, err := Apply(first, imagefile.FormatPNG, 5)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if got := ReadRating(second, imagefile.FormatPNG); got != 5 {
		t.Errorf("rating = %d, want 5", got)
	}
	// Only one XMP chunk should exist after the second write.
	if n := bytes.Count(second, []byte("XML:com.adobe.xmp")); n != 1 {
		t.Errorf("xmp chunk count = %d, want 1", n)
	}
}

func TestApplyReadRoundTripJPEG(t *testing.T) {
	jpeg := testsupport.JPEG(t)
	for _, rating := range []int{0, 3, 5} {
		updated, err := Apply(jpeg, imagefile.FormatJPEG, rating)
		if err != nil {
			t.Fatalf("Apply(%d) failed: %v", rating, err)
		}
		if got := ReadRating(updated, imagefile.FormatJPEG); got != rating {
			t.Errorf("read back %d, want %d", got, rating)
		}
		if imagefile.Sniff(updated) != imagefile.FormatJPEG {
			t.Error("rewritten file no longer sniffs as JPEG")
		}
	}
}

func TestApplyJPEGPreservesScanData(t *testing.T) {
	jpeg := testsupport.JPEG(t)
	updated, err := Apply(jpeg, imagefile.FormatJPEG, 3)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// Entropy filler and EOI from the fixture must be untouched.
	if !bytes.HasSuffix(updated, []byte{0x12, 0x34, 0x56, 0x78, 0xFF, 0xD9}) {
		t.Error("scan data altered by rating write")
	}
}

func TestApplyJPEGReplaceExisting(t *testing.T) {
	jpeg := testsupport.JPEG(t)
	first, err := Apply(jpeg, imagefile.FormatJPEG, 1)
	if err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	second, err := Apply(first, imagefile.FormatJPEG, 4)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if got := ReadRating(second, imagefile.FormatJPEG); got != 4 {
		t.Errorf("rating = %d, want 4", got)
	}
	if n := bytes.Count(second, []byte(jpegXMPHeader)); n != 1 {
		t.Errorf("xmp segment count = %d, want 1", n)
	}
}

func TestApplyUnsupportedFormats(t *testing.T) {
	gif := []byte("GIF89a trailer bytes")
	webp := webpWithXMP(t, sealedPacket)

	for _, tc := range []struct {
		name   string
		data   []byte
		format imagefile.Format
	}{
		{"gif", gif, imagefile.FormatGIF},
		{"bmp", []byte{'B', 'M', 0, 0}, imagefile.FormatBMP},
		{"webp", webp, imagefile.FormatWebP},
		{"unsupported", []byte("plain"), imagefile.FormatUnsupported},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(tc.data, tc.format, 3)
			if !errors.Is(err, services.ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestWebPReadOnly(t *testing.T) {
	webp := webpWithXMP(t, sealedPacket)
	if got := ReadRating(webp, imagefile.FormatWebP); got != 3 {
		t.Errorf("webp rating = %d, want 3", got)
	}
}

func TestReadRatingNoPacket(t *testing.T) {
	if got := ReadRating(testsupport.PNG(t, nil), imagefile.FormatPNG); got != 0 {
		t.Errorf("rating without packet = %d, want 0", got)
	}
	if got := ReadRating(testsupport.JPEG(t), imagefile.FormatJPEG); got != 0 {
		t.Errorf("jpeg rating without packet = %d, want 0", got)
	}
	if got := ReadRating([]byte("garbage"), imagefile.FormatUnsupported); got != 0 {
		t.Errorf("garbage rating = %d, want 0", got)
	}
}

// webpWithXMP builds a minimal RIFF/WEBP container with an XMP chunk.
func webpWithXMP(t *testing.T, packet string) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString("WEBP")

	vp8 := []byte{0x00, 0x01, 0x02, 0x03}
	writeRIFFChunk(&body, "VP8 ", vp8)
	writeRIFFChunk(&body, "XMP ", []byte(packet))

	var out bytes.Buffer
	out.WriteString("RIFF")
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(body.Len()))
	out.Write(size[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeRIFFChunk(out *bytes.Buffer, fourCC string, data []byte) {
	out.WriteString(fourCC)
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(data)))
	out.Write(size[:])
	out.Write(data)
	if len(data)%2 == 1 {
		out.WriteByte(0)
	}
}

// extractChunk pulls a chunk payload out of a PNG byte stream.
func extractChunk(t *testing.T, data []byte, typ string) []byte {
	t.Helper()
	idx := bytes.Index(data, []byte(typ))
	if idx < 0 {
		t.Fatalf("chunk %s not found", typ)
	}
	length := int(binary.BigEndian.Uint32(data[idx-4 : idx]))
	return data[idx+4 : idx+4+length]
}
