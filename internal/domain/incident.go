package domain

import (
	"sort"
	"strings"
)

// SectionSeparator is the wave dash between the start and end interchange in
// a section label, e.g. "水戸IC〜那珂IC".
const SectionSeparator = "〜"

// IncidentRecord is one observed roadkill event from the patrol obstacle log.
// Records are immutable once loaded; many records map to one resolved segment.
type IncidentRecord struct {
	RouteName    string  // common route name, e.g. "常磐道" (display)
	OfficialName string  // official route name when the log carries one, may be empty
	Section      string  // section label "A〜B"
	Direction    string  // 上り/下り style direction tag
	Month        int     // 1–12
	Hour         int     // 0–23
	Weekday      string  // one of the 月–日 labels
	Weather      string  // weather category at removal time
	Species      string  // animal species category
	LengthKm     float64 // section length in km, 0 when unknown
}

// SplitSectionLabel splits a raw section label on the separator glyph.
// A label without the separator yields the whole text as start and an empty
// end. Malformed labels are tolerated, not fatal.
func SplitSectionLabel(label string) (start, end string) {
	start, end, _ = strings.Cut(label, SectionSeparator)
	return start, end
}

// SectionGroupKey is the normalized (route, section) identity that incident
// records group under. Resolution is a function of this key only, never of
// the raw spellings.
func SectionGroupKey(routeName, section string) string {
	return NormalizeRoute(routeName) + "|" + NormalizePlace(section)
}

// weekdayOrder fixes the display order of the seven weekday labels.
var weekdayOrder = []string{"月", "火", "水", "木", "金", "土", "日"}

// Filter selects a subset of incident records. A nil or empty slice places
// no constraint on that attribute.
type Filter struct {
	Months   []int
	Hours    []int
	Weekdays []string
	Weathers []string
	Species  []string
}

// Matches reports whether the record passes every populated constraint.
func (f Filter) Matches(rec IncidentRecord) bool {
	return containsInt(f.Months, rec.Month) &&
		containsInt(f.Hours, rec.Hour) &&
		containsString(f.Weekdays, rec.Weekday) &&
		containsString(f.Weathers, rec.Weather) &&
		containsString(f.Species, rec.Species)
}

// ApplyFilter returns the records matching the filter, preserving input order.
func ApplyFilter(records []IncidentRecord, f Filter) []IncidentRecord {
	out := make([]IncidentRecord, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterOptions lists the distinct values available for each filterable
// attribute, for consumers building filter controls.
type FilterOptions struct {
	Months   []int    `json:"months"`
	Hours    []int    `json:"hours"`
	Weekdays []string `json:"weekdays"`
	Weathers []string `json:"weathers"`
	Species  []string `json:"species"`
}

// CollectFilterOptions scans the records and returns sorted distinct values.
// Weekdays keep the fixed 月–日 order rather than sorting lexicographically.
func CollectFilterOptions(records []IncidentRecord) FilterOptions {
	months := map[int]bool{}
	hours := map[int]bool{}
	weekdays := map[string]bool{}
	weathers := map[string]bool{}
	species := map[string]bool{}

	for _, rec := range records {
		months[rec.Month] = true
		hours[rec.Hour] = true
		weekdays[rec.Weekday] = true
		if rec.Weather != "" {
			weathers[rec.Weather] = true
		}
		if rec.Species != "" {
			species[rec.Species] = true
		}
	}

	opts := FilterOptions{
		Months:   sortedInts(months),
		Hours:    sortedInts(hours),
		Weathers: sortedStrings(weathers),
		Species:  sortedStrings(species),
	}
	for _, d := range weekdayOrder {
		if weekdays[d] {
			opts.Weekdays = append(opts.Weekdays, d)
		}
	}
	return opts
}

func containsInt(allowed []int, v int) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func containsString(allowed []string, v string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
