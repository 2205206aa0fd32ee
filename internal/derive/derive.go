// Package derive turns raw listing fields into the tokens a poster layout
// displays. Every function is pure and safe on empty input.
package derive

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mars_poster/internal/domain"
)

// DefaultBullets backfill the fixed three-slot policy, by position.
var DefaultBullets = [3]string{
	"Beautiful property with modern amenities",
	"Prime location with excellent connectivity",
	"Ready to move condition",
}

var (
	lineBreak   = regexp.MustCompile(`\r\n|\r|\n`)
	locationSep = regexp.MustCompile(`[\s,]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Bullets returns every non-blank description line, trimmed, in order.
func Bullets(desc string) []string {
	out := []string{}
	for _, line := range lineBreak.Split(desc, -1) {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FixedBullets always returns three entries. Slot i falls back to
// DefaultBullets[i] when the description has fewer than i+1 lines.
func FixedBullets(desc string) []string {
	lines := Bullets(desc)
	out := make([]string, len(DefaultBullets))
	for i := range out {
		if i < len(lines) {
			out[i] = lines[i]
		} else {
			out[i] = DefaultBullets[i]
		}
	}
	return out
}

// BulletsFor applies the layout's bullet policy. Unknown policies behave as
// BulletsAsIs.
func BulletsFor(p domain.BulletPolicy, desc string) []string {
	if p == domain.BulletsFixedThree {
		return FixedBullets(desc)
	}
	return Bullets(desc)
}

// Subtitle picks the headline tag from keywords in the title.
// SALE wins over RENT, RENT over AUCTION.
func Subtitle(title string) string {
	// a Caser is stateful, so one per call
	t := cases.Upper(language.Und).String(title)
	switch {
	case strings.Contains(t, "SALE"):
		return "FOR SALE"
	case strings.Contains(t, "RENT"):
		return "FOR RENT"
	case strings.Contains(t, "AUCTION"):
		return "FOR AUCTION"
	}
	return "AVAILABLE"
}

// LocationShort is " @" plus the first token of the location, where tokens
// are separated by runs of whitespace and commas. Empty location gives "".
func LocationShort(loc string) string {
	t := strings.TrimSpace(loc)
	if t == "" {
		return ""
	}
	for _, tok := range locationSep.Split(t, -1) {
		if tok != "" {
			return " @" + tok
		}
	}
	return ""
}

// LocationParts splits on commas only: the first segment is the city, the
// second (when present) is returned parenthesised as the sub-region.
func LocationParts(loc string) (city, region string) {
	parts := strings.Split(loc, ",")
	city = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		if r := strings.TrimSpace(parts[1]); r != "" {
			region = "(" + r + ")"
		}
	}
	return city, region
}

// TitleWord is the first space-separated word of the title.
func TitleWord(title string) string {
	for _, w := range strings.Split(title, " ") {
		if w = strings.TrimSpace(w); w != "" {
			return w
		}
	}
	return ""
}

// FileName is the download name for an exported poster.
func FileName(title string) string {
	t := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if t == "" {
		return "poster.png"
	}
	return whitespace.ReplaceAllString(t, "_") + "_poster.png"
}

// All derives every token for the given bullet policy and record.
func All(p domain.BulletPolicy, r domain.ListingRecord) domain.Derived {
	city, region := LocationParts(r.Location)
	return domain.Derived{
		Bullets:        BulletsFor(p, r.Description),
		Subtitle:       Subtitle(r.Title),
		LocationShort:  LocationShort(r.Location),
		LocationCity:   city,
		LocationRegion: region,
		TitleWord:      TitleWord(r.Title),
		FileName:       FileName(r.Title),
	}
}
