package domain

import "strings"

// fullWidthOffset maps the full-width ASCII block (U+FF01–U+FF5E) onto its
// half-width equivalents (U+0021–U+007E).
const fullWidthOffset = 0xFF01 - 0x21

// DefaultPlaceSuffixes is the facility-designator list stripped from
// interchange names, in application order. Both full-width and half-width
// spellings are listed: width folding runs first, so the full-width entries
// rarely fire, but the order is observable ("水戸ＳＩＣ" folds to "水戸SIC",
// loses "IC" before "SIC" is ever tried, and ends up "水戸S").
var DefaultPlaceSuffixes = []string{
	"ＩＣ", "IC",
	"ＪＣＴ", "JCT",
	"ＳＩＣ", "SIC",
	"ＳＡ", "SA",
	"ＰＡ", "PA",
	"ＴＢ", "TB",
}

// foldWidth converts full-width ASCII characters to half-width and the
// ideographic space to a regular space.
func foldWidth(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0xFF01 && r <= 0xFF5E {
			return r - fullWidthOffset
		}
		if r == 0x3000 { // ideographic space
			return ' '
		}
		return r
	}, s)
}

// NormalizeRoute canonicalizes a route name for comparison: width folding,
// then exactly one trailing 道 stripped, then whitespace trimmed.
// "常磐自動車道" and its abbreviation "常磐道" become "常磐自動車" and "常磐",
// which match by substring containment rather than equality.
// Empty or non-route text degrades to the empty string, never an error.
func NormalizeRoute(raw string) string {
	s := foldWidth(raw)
	s = strings.TrimSuffix(s, "道")
	return strings.TrimSpace(s)
}

// NormalizePlace canonicalizes an interchange or section name using
// [DefaultPlaceSuffixes].
func NormalizePlace(raw string) string {
	return NormalizePlaceWith(raw, DefaultPlaceSuffixes)
}

// NormalizePlaceWith canonicalizes a place name with a custom suffix list:
// width folding, then every occurrence of each suffix removed in list order
// (global substring removal, not anchored to the end), then whitespace
// trimmed. Total over all inputs.
func NormalizePlaceWith(raw string, suffixes []string) string {
	s := foldWidth(raw)
	for _, suffix := range suffixes {
		s = strings.ReplaceAll(s, suffix, "")
	}
	return strings.TrimSpace(s)
}
