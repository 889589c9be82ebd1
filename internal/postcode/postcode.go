// Package postcode provides UK postcode parsing helpers. The outward code
// (area + district, e.g. "LE4") is the coarse geographic equality key used
// by the geography hard filter.
package postcode

import (
	"regexp"
	"strings"
)

// fullRe matches a full or outward-only UK postcode. The inward part
// (digit + two letters) is optional because job adverts usually quote
// only the outward code.
var fullRe = regexp.MustCompile(`(?i)\b([A-Z]{1,2}[0-9][A-Z0-9]?)(?:\s*([0-9][A-Z]{2}))?\b`)

// areaRe captures the leading letters of an outward code.
var areaRe = regexp.MustCompile(`(?i)^([A-Z]{1,2})`)

// Extract returns the first postcode-looking token in the text, normalized
// to upper case with a single space between outward and inward parts.
// Returns "" when no postcode is present.
func Extract(text string) string {
	m := fullRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	out := strings.ToUpper(m[1])
	if m[2] != "" {
		return out + " " + strings.ToUpper(m[2])
	}
	return out
}

// Outward returns the outward code of a postcode: the first token of a full
// postcode, or the whole string when only the outward part was given.
func Outward(pc string) string {
	pc = strings.TrimSpace(strings.ToUpper(pc))
	if pc == "" {
		return ""
	}
	if idx := strings.IndexByte(pc, ' '); idx > 0 {
		return pc[:idx]
	}
	// "LE46PN" with no space: outward is everything except the trailing
	// digit+letter+letter inward part.
	if len(pc) >= 5 {
		tail := pc[len(pc)-3:]
		if tail[0] >= '0' && tail[0] <= '9' && isLetter(tail[1]) && isLetter(tail[2]) {
			return pc[:len(pc)-3]
		}
	}
	return pc
}

// SameOutward reports whether two postcodes share an outward code. Returns
// false when either side is empty.
func SameOutward(a, b string) bool {
	oa, ob := Outward(a), Outward(b)
	if oa == "" || ob == "" {
		return false
	}
	return oa == ob
}

// Area returns the postcode area letters (e.g. "LE" for "LE4 6PN"), used as
// a loose same-cluster key.
func Area(pc string) string {
	m := areaRe.FindStringSubmatch(Outward(pc))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
