package pngmeta

import (
	"bytes"
	"encoding/binary"
	"testing"

	"pictor/internal/imagefile"
	"pictor/internal/testsupport"
)

func TestFindTextRoundTrip(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{KeywordParameters: testsupport.SampleParameters})

	text, ok := FindText(png, KeywordParameters)
	if !ok {
		t.Fatal("parameters chunk not found")
	}
	if text != testsupport.SampleParameters {
		t.Errorf("text mismatch:\ngot  %q\nwant %q", text, testsupport.SampleParameters)
	}
}

func TestFindTextAbsent(t *testing.T) {
	png := testsupport.PNG(t, nil)
	if _, ok := FindText(png, KeywordParameters); ok {
		t.Error("expected no parameters chunk")
	}
}

func TestTextChunksNotPNG(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not a png at all"), {0x89, 'P'}} {
		if chunks := TextChunks(data); chunks != nil {
			t.Errorf("TextChunks(%q) = %v, want nil", data, chunks)
		}
	}
}

func TestTextChunksTruncated(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{KeywordParameters: "prompt\nSteps: 20"})

	// Chop the file mid-way through the tEXt chunk. Extraction must not
	// panic and must simply come back empty.
	cut := bytes.Index(png, []byte("tEXt")) + 6
	truncated := png[:cut]
	if _, ok := FindText(truncated, KeywordParameters); ok {
		t.Error("truncated chunk should not decode")
	}
}

func TestTextChunksBadCRC(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{KeywordParameters: "prompt text"})

	// Flip a byte inside the tEXt payload without fixing the CRC.
	idx := bytes.Index(png, []byte("prompt text"))
	corrupted := append([]byte(nil), png...)
	corrupted[idx] ^= 0xFF

	if _, ok := FindText(corrupted, KeywordParameters); ok {
		t.Error("chunk with CRC mismatch should be skipped")
	}
}

func TestTextChunksCorruptLength(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{KeywordParameters: "prompt"})

	// Overwrite the tEXt length field with a value past the buffer end.
	idx := bytes.Index(png, []byte("tEXt")) - 4
	corrupted := append([]byte(nil), png...)
	binary.BigEndian.PutUint32(corrupted[idx:idx+4], 1<<30)

	if _, ok := FindText(corrupted, KeywordParameters); ok {
		t.Error("chunk with absurd length should stop decoding, not crash")
	}
}

func TestSetTextInsertsBeforeIEND(t *testing.T) {
	png := testsupport.PNG(t, nil)

	updated, err := SetText(png, KeywordParameters, testsupport.SampleParameters)
	if err != nil {
		t.Fatalf("SetText failed: %v", err)
	}

	text, ok := FindText(updated, KeywordParameters)
	if !ok || text != testsupport.SampleParameters {
		t.Fatalf("round trip failed: ok=%v text=%q", ok, text)
	}

	// Pixel chunks must be untouched.
	if got, want := chunkPayload(t, updated, "IDAT"), chunkPayload(t, png, "IDAT"); !bytes.Equal(got, want) {
		t.Error("IDAT payload changed by text write")
	}
	if got, want := chunkPayload(t, updated, "IHDR"), chunkPayload(t, png, "IHDR"); !bytes.Equal(got, want) {
		t.Error("IHDR payload changed by text write")
	}
}

func TestSetTextReplacesExisting(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{KeywordParameters: "old blob"})

	updated, err := SetText(png, KeywordParameters, "new blob")
	if err != nil {
		t.Fatalf("SetText failed: %v", err)
	}

	chunks := TextChunks(updated)
	count := 0
	for _, chunk := range chunks {
		if chunk.Keyword == KeywordParameters {
			count++
			if chunk.Text != "new blob" {
				t.Errorf("text = %q, want %q", chunk.Text, "new blob")
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one parameters chunk, got %d", count)
	}
}

func TestSetTextPreservesOtherKeywords(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{"Software": "pictor test"})

	updated, err := SetText(png, KeywordParameters, "blob")
	if err != nil {
		t.Fatalf("SetText failed: %v", err)
	}
	if text, ok := FindText(updated, "Software"); !ok || text != "pictor test" {
		t.Errorf("unrelated text chunk lost: ok=%v text=%q", ok, text)
	}
}

func TestSetTextNonLatin1UsesITXt(t *testing.T) {
	png := testsupport.PNG(t, nil)
	const text = "桜の木の下で\nSteps: 20"

	updated, err := SetText(png, KeywordParameters, text)
	if err != nil {
		t.Fatalf("SetText failed: %v", err)
	}
	got, ok := FindText(updated, KeywordParameters)
	if !ok || got != text {
		t.Fatalf("utf-8 round trip failed: ok=%v got=%q", ok, got)
	}
}

func TestSetTextRejectsNonPNG(t *testing.T) {
	if _, err := SetText([]byte("not png"), KeywordParameters, "x"); err == nil {
		t.Error("expected error for non-png input")
	}
}

func TestSetTextRejectsBadKeyword(t *testing.T) {
	png := testsupport.PNG(t, nil)
	for _, keyword := range []string{"", "has\x00null", string(make([]byte, 80))} {
		if _, err := SetText(png, keyword, "x"); err == nil {
			t.Errorf("keyword %q should be rejected", keyword)
		}
	}
}

func TestExtractFormatGated(t *testing.T) {
	png := testsupport.PNG(t, map[string]string{KeywordParameters: testsupport.SampleParameters})

	if meta := Extract(png, imagefile.FormatJPEG); meta != nil {
		t.Error("non-png formats must deterministically return nil")
	}
	if meta := Extract(png, imagefile.FormatUnsupported); meta != nil {
		t.Error("unsupported format must return nil")
	}
	if meta := Extract(png, imagefile.FormatPNG); meta == nil {
		t.Error("png with parameters chunk should extract")
	}
}

func TestExtractAbsentIsNil(t *testing.T) {
	png := testsupport.PNG(t, nil)
	if meta := Extract(png, imagefile.FormatPNG); meta != nil {
		t.Errorf("expected nil for png without parameters, got %+v", meta)
	}
}

// chunkPayload finds the first chunk of the given type and returns its data.
func chunkPayload(t *testing.T, data []byte, typ string) []byte {
	t.Helper()
	var payload []byte
	walkChunks(data, func(c rawChunk) bool {
		if c.typ == typ {
			payload = c.data
			return false
		}
		return true
	})
	if payload == nil && typ != "IEND" {
		t.Fatalf("chunk %s not found", typ)
	}
	return payload
}
