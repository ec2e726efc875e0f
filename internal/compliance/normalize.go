package compliance

import "strings"

// strippedPunctuation is the fixed set removed before comparison.
const strippedPunctuation = ".,/#!$%^&*;:{}=-_`~()'\""

// Normalize canonicalizes a free-text entity name for comparison:
// lower-cases, strips punctuation, collapses internal whitespace, trims.
// It is pure and idempotent.
func Normalize(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if strings.ContainsRune(strippedPunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NameSatisfies reports whether the normalized required name is contained
// within the normalized extracted name. Containment rather than equality:
// extracted holder names often carry suffixes like "and its subsidiaries".
// Containment is checked in one direction only, which favors under-flagging;
// very short required names raise the false-positive risk.
func NameSatisfies(required, extracted string) bool {
	req := Normalize(required)
	if req == "" {
		return true
	}
	return strings.Contains(Normalize(extracted), req)
}
