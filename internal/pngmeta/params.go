package pngmeta

import (
	"regexp"
	"strconv"
	"strings"

	"pictor/internal/imagefile"
)

// Tag is one prompt term, optionally carrying an attention weight from the
// "(name:1.2)" convention.
type Tag struct {
	Name      string
	Weight    float64
	HasWeight bool
}

// GenerationMetadata is the parsed generative-parameters payload for an
// image. Raw always holds the original text blob; the structured fields are
// best effort because the source text has no formal schema. No key in Fields
// is guaranteed present.
type GenerationMetadata struct {
	Raw            string
	Prompt         []Tag
	NegativePrompt []Tag
	Fields         map[string]string
}

var (
	weightedTagPattern = regexp.MustCompile(`^\(([^:()]+):([0-9]+(?:\.[0-9]+)?)\)$`)
	fieldPattern       = regexp.MustCompile(`(Steps|Sampler|Schedule type|CFG scale|Seed|Size|Model|Denoising strength|Clip skip):\s*([^,\n]+)`)
)

const negativePromptMarker = "\nNegative prompt:"

// Extract recovers generation metadata from raw image bytes. Only the PNG
// text-chunk convention is supported today; other formats deterministically
// return nil so callers never need to special-case them. Absence and
// structural corruption both return nil, never an error.
func Extract(data []byte, format imagefile.Format) *GenerationMetadata {
	if format != imagefile.FormatPNG {
		return nil
	}
	text, ok := FindText(data, KeywordParameters)
	if !ok || strings.TrimSpace(text) == "" {
		return nil
	}
	return ParseParameters(text)
}

// ParseParameters decomposes a generation-parameters blob. The layout this
// understands is the common one: positive prompt, an optional
// "Negative prompt:" section, then a "Steps: ..." key/value trailer.
// Sections that do not match are left empty; Raw is always populated.
func ParseParameters(text string) *GenerationMetadata {
	meta := &GenerationMetadata{Raw: text, Fields: map[string]string{}}

	prompt := text
	remainder := ""
	if idx := strings.Index(text, negativePromptMarker); idx >= 0 {
		prompt = text[:idx]
		remainder = text[idx+len(negativePromptMarker):]
	}

	negative := ""
	trailer := ""
	if remainder != "" {
		if idx := strings.Index(remainder, "\nSteps:"); idx >= 0 {
			negative = remainder[:idx]
			trailer = "Steps:" + remainder[idx+len("\nSteps:"):]
		} else {
			negative = remainder
		}
	} else if idx := strings.Index(prompt, "\nSteps:"); idx >= 0 {
		trailer = "Steps:" + prompt[idx+len("\nSteps:"):]
		prompt = prompt[:idx]
	}

	meta.Prompt = parseTags(prompt)
	meta.NegativePrompt = parseTags(negative)

	for _, match := range fieldPattern.FindAllStringSubmatch(trailer, -1) {
		value := strings.TrimSpace(match[2])
		if value == "" {
			continue
		}
		meta.Fields[match[1]] = value
	}
	return meta
}

func parseTags(section string) []Tag {
	var tags []Tag
	for _, piece := range strings.Split(section, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if match := weightedTagPattern.FindStringSubmatch(piece); match != nil {
			name := strings.TrimSpace(match[1])
			if name == "" {
				continue
			}
			weight, err := strconv.ParseFloat(match[2], 64)
			if err == nil {
				tags = append(tags, Tag{Name: name, Weight: weight, HasWeight: true})
				continue
			}
			tags = append(tags, Tag{Name: name})
			continue
		}
		tags = append(tags, Tag{Name: piece})
	}
	return tags
}
