package domain

import "github.com/paulmach/orb"

// CutSegment is one IC-to-IC piece of a centerline from the pre-cut reference
// variant, produced offline by splitting route geometries at interchange
// points. StartIC/EndIC keep the source spelling for display.
type CutSegment struct {
	RouteName string
	StartIC   string
	EndIC     string
	Geometry  orb.LineString
}

// SegmentIndex looks up pre-cut segments by their normalized section key.
// Built once, immutable afterwards.
type SegmentIndex struct {
	segments []CutSegment
	byKey    map[string]int // normalized "start〜end" → first segment index
}

// sectionKey is the normalized lookup key for a start/end name pair.
func sectionKey(startNorm, endNorm string) string {
	return startNorm + SectionSeparator + endNorm
}

// BuildSegmentIndex indexes cut segments under their forward section key.
// Only the first segment claims a duplicate key, matching first-wins lookup.
func BuildSegmentIndex(segments []CutSegment) *SegmentIndex {
	idx := &SegmentIndex{
		segments: segments,
		byKey:    make(map[string]int, len(segments)),
	}
	for i, seg := range segments {
		k := sectionKey(NormalizePlace(seg.StartIC), NormalizePlace(seg.EndIC))
		if _, exists := idx.byKey[k]; !exists {
			idx.byKey[k] = i
		}
	}
	return idx
}

// Lookup finds the segment for a normalized section key, trying the forward
// ordering first and then the reverse, since direction is not consistent
// between the incident log and the reference data. The key is the incident's
// PLACE-normalized section label (suffix removal leaves the separator glyph
// untouched, so normalizing the whole label and concatenating normalized
// halves agree).
func (idx *SegmentIndex) Lookup(sectionNorm string) (CutSegment, bool) {
	if i, ok := idx.byKey[sectionNorm]; ok {
		return idx.segments[i], true
	}
	start, end := SplitSectionLabel(sectionNorm)
	if i, ok := idx.byKey[sectionKey(end, start)]; ok {
		return idx.segments[i], true
	}
	return CutSegment{}, false
}

// Segments returns every indexed segment in input order. Segments without a
// matching incident group still render, at zero count, to keep the base map
// complete.
func (idx *SegmentIndex) Segments() []CutSegment {
	return idx.segments
}

// Len reports the number of indexed segments.
func (idx *SegmentIndex) Len() int { return len(idx.segments) }
