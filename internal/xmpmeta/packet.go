package xmpmeta

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pictor/internal/services"
)

// Namespace is the XMP basic schema namespace holding the Rating property.
const Namespace = "http://ns.adobe.com/xap/1.0/"

// MaxRating is the upper bound of the rating scale. Zero means unrated and is
// indistinguishable from an absent property outside the storage layer.
const MaxRating = 5

var (
	ratingAttrPattern    = regexp.MustCompile(`(xmp:Rating\s*=\s*")([^"]*)(")`)
	ratingElementPattern = regexp.MustCompile(`(<xmp:Rating[^>]*>)([^<]*)(</xmp:Rating>)`)
	descriptionPattern   = regexp.MustCompile(`<rdf:Description\b`)
)

// RatingFromPacket extracts the xmp:Rating property from a serialized XMP
// packet. Absent, unparsable, or out-of-range values read as 0.
func RatingFromPacket(packet string) int {
	var value string
	if match := ratingAttrPattern.FindStringSubmatch(packet); match != nil {
		value = match[2]
	} else if match := ratingElementPattern.FindStringSubmatch(packet); match != nil {
		value = match[2]
	} else {
		return 0
	}

	rating, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || rating < 0 || rating > MaxRating {
		return 0
	}
	return rating
}

// SetRatingInPacket returns packet with xmp:Rating set to rating, preserving
// every other property by editing the packet text in place. An empty packet
// produces a fresh minimal one. A non-empty packet with no recognizable RDF
// description is rejected as corrupt rather than guessed at.
func SetRatingInPacket(packet string, rating int) (string, error) {
	if rating < 0 || rating > MaxRating {
		return "", services.Wrap(services.ErrValidation, "xmpmeta", "set-rating",
			fmt.Sprintf("rating must be 0-%d, got %d", MaxRating, rating), nil)
	}

	if strings.TrimSpace(packet) == "" {
		return newPacket(rating), nil
	}

	value := strconv.Itoa(rating)
	if ratingAttrPattern.MatchString(packet) {
		replaced := false
		out := ratingAttrPattern.ReplaceAllStringFunc(packet, func(match string) string {
			if replaced {
				return match
			}
			replaced = true
			sub := ratingAttrPattern.FindStringSubmatch(match)
			return sub[1] + value + sub[3]
		})
		return out, nil
	}
	if ratingElementPattern.MatchString(packet) {
		replaced := false
		out := ratingElementPattern.ReplaceAllStringFunc(packet, func(match string) string {
			if replaced {
				return match
			}
			replaced = true
			sub := ratingElementPattern.FindStringSubmatch(match)
			return sub[1] + value + sub[3]
		})
		return out, nil
	}

	// No rating yet: graft the attribute onto the first rdf:Description,
	// declaring the xmp namespace if the packet does not carry it already.
	loc := descriptionPattern.FindStringIndex(packet)
	if loc == nil {
		return "", services.Wrap(services.ErrCorruptMetadata, "xmpmeta", "set-rating",
			"packet has no rdf:Description element", nil)
	}
	insert := ` xmp:Rating="` + value + `"`
	if !strings.Contains(packet, Namespace) {
		insert = ` xmlns:xmp="` + Namespace + `"` + insert
	}
	return packet[:loc[1]] + insert + packet[loc[1]:], nil
}

func newPacket(rating int) string {
	return `<?xpacket begin="` + "\uFEFF" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="pictor">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:xmp="` + Namespace + `" xmp:Rating="` + strconv.Itoa(rating) + `"/>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`
}
