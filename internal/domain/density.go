package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// SectionCount is one aggregated incident group: all records sharing a
// normalized (route, section) key. Display names come from the first record
// in the group, as does the section length.
type SectionCount struct {
	GroupKey    string
	RouteName   string
	Section     string
	SectionNorm string
	Count       int
	LengthKm    float64
}

// ResolvedSegment binds an aggregated incident count to a concrete
// geographic line, ready for the rendering layer. Endpoint-mode resolutions
// carry Start/End; pre-cut resolutions carry the full polyline in Geometry.
type ResolvedSegment struct {
	RouteName    string         `json:"route_name"`
	Section      string         `json:"section"`
	Start        orb.Point      `json:"start"` // [lon, lat]
	End          orb.Point      `json:"end"`   // [lon, lat]
	Geometry     orb.LineString `json:"geometry,omitempty"`
	Count        int            `json:"count"`
	LengthKm     float64        `json:"length_km"`
	DensityPerKm float64        `json:"density_per_km"`
	Description  string         `json:"description"`
}

// DensityResult is one complete density view for the current filter state.
// MaxDensity is the normalization bound for color mapping and must be
// recomputed on every filter change; it carries no correctness weight.
type DensityResult struct {
	Segments    []ResolvedSegment `json:"segments"`
	MaxDensity  float64           `json:"max_density"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// AggregateSections groups incident records by normalized (route, section)
// key. count = group size; length and display names come from the first
// record of each group. Output is sorted by group key so downstream
// resolution sees a deterministic order.
func AggregateSections(records []IncidentRecord) []SectionCount {
	groups := make(map[string]*SectionCount)
	keys := make([]string, 0)

	for _, rec := range records {
		key := SectionGroupKey(rec.RouteName, rec.Section)
		g, ok := groups[key]
		if !ok {
			g = &SectionCount{
				GroupKey:    key,
				RouteName:   rec.RouteName,
				Section:     rec.Section,
				SectionNorm: NormalizePlace(rec.Section),
				LengthKm:    rec.LengthKm,
			}
			groups[key] = g
			keys = append(keys, key)
		}
		g.Count++
	}

	sort.Strings(keys)
	out := make([]SectionCount, 0, len(groups))
	for _, key := range keys {
		out = append(out, *groups[key])
	}
	return out
}

// BuildDensityMap resolves each section group to endpoint coordinates and
// derives the per-kilometer density. Unresolvable sections are dropped from
// the map silently; they remain visible in pre-resolution statistics only.
func BuildDensityMap(counts []SectionCount, resolver *Resolver) DensityResult {
	segments := make([]ResolvedSegment, 0, len(counts))
	for _, sc := range counts {
		endpoints, ok := resolver.Resolve(sc.RouteName, sc.Section)
		if !ok {
			continue
		}
		segments = append(segments, newResolvedSegment(sc, ResolvedSegment{
			Start: endpoints.Start,
			End:   endpoints.End,
		}))
	}
	return finishDensityResult(segments)
}

// BuildDensityMapPrecut joins section groups onto the pre-cut segment index.
// Every indexed segment appears in the output: a segment with no matching
// incident group keeps count 0 and density 0 so the base map stays complete.
// Direction mismatches are absorbed by trying both key orderings.
func BuildDensityMapPrecut(counts []SectionCount, index *SegmentIndex) DensityResult {
	byNorm := make(map[string]SectionCount, len(counts))
	for _, sc := range counts {
		if _, exists := byNorm[sc.SectionNorm]; !exists {
			byNorm[sc.SectionNorm] = sc
		}
	}

	segments := make([]ResolvedSegment, 0, index.Len())
	for _, seg := range index.Segments() {
		startNorm := NormalizePlace(seg.StartIC)
		endNorm := NormalizePlace(seg.EndIC)

		sc, ok := byNorm[startNorm+SectionSeparator+endNorm]
		if !ok {
			sc, ok = byNorm[endNorm+SectionSeparator+startNorm]
		}
		if !ok {
			sc = SectionCount{
				RouteName: seg.RouteName,
				Section:   seg.StartIC + SectionSeparator + seg.EndIC,
			}
		}
		if sc.Section == "" {
			sc.Section = seg.StartIC + SectionSeparator + seg.EndIC
		}

		rs := newResolvedSegment(sc, ResolvedSegment{Geometry: seg.Geometry})
		if len(seg.Geometry) > 0 {
			rs.Start = seg.Geometry[0]
			rs.End = seg.Geometry[len(seg.Geometry)-1]
		}
		segments = append(segments, rs)
	}
	return finishDensityResult(segments)
}

// newResolvedSegment fills the count, length, density, and description fields
// shared by both resolution modes.
func newResolvedSegment(sc SectionCount, base ResolvedSegment) ResolvedSegment {
	base.RouteName = sc.RouteName
	base.Section = sc.Section
	base.Count = sc.Count
	base.LengthKm = sc.LengthKm
	base.DensityPerKm = densityPerKm(sc.Count, sc.LengthKm)
	base.Description = describeSegment(base)
	return base
}

// densityPerKm is defined as 0 when the length is zero, negative, or unknown.
// Such segments contribute to counts but never to density coloring.
func densityPerKm(count int, lengthKm float64) float64 {
	if lengthKm <= 0 {
		return 0
	}
	return float64(count) / lengthKm
}

// describeSegment formats the human-readable tooltip text. Segments without
// a usable length get the short form, mirroring how they are excluded from
// density coloring.
func describeSegment(s ResolvedSegment) string {
	if s.LengthKm > 0 {
		return fmt.Sprintf("路線名: %s / 区間: %s / 1kmあたり件数: %.2f 件/km / 合計件数: %d 件 / 区間長: %.1f km",
			s.RouteName, s.Section, s.DensityPerKm, s.Count, s.LengthKm)
	}
	return fmt.Sprintf("路線名: %s / 区間: %s / 件数: %d 件", s.RouteName, s.Section, s.Count)
}

// finishDensityResult computes the color-scale bound, stamps the snapshot
// time, and orders segments by density descending (section label on ties)
// for stable display.
func finishDensityResult(segments []ResolvedSegment) DensityResult {
	var maxDensity float64
	for _, s := range segments {
		if s.DensityPerKm > maxDensity {
			maxDensity = s.DensityPerKm
		}
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].DensityPerKm != segments[j].DensityPerKm {
			return segments[i].DensityPerKm > segments[j].DensityPerKm
		}
		return segments[i].Section < segments[j].Section
	})

	return DensityResult{
		Segments:    segments,
		MaxDensity:  maxDensity,
		GeneratedAt: clock.Now(),
	}
}
