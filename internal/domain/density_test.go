package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSections(t *testing.T) {
	records := []IncidentRecord{
		{RouteName: "常磐道", Section: "水戸IC〜那珂IC", LengthKm: 10.1},
		{RouteName: "常磐道", Section: "水戸ＩＣ〜那珂ＩＣ", LengthKm: 10.1}, // full-width, same group
		{RouteName: "東北道", Section: "宇都宮IC〜矢板IC", LengthKm: 14.6},
	}

	counts := AggregateSections(records)
	require.Len(t, counts, 2)

	byRoute := map[string]SectionCount{}
	for _, c := range counts {
		byRoute[c.RouteName] = c
	}

	joban := byRoute["常磐道"]
	assert.Equal(t, 2, joban.Count)
	assert.Equal(t, 10.1, joban.LengthKm)
	assert.Equal(t, "水戸IC〜那珂IC", joban.Section, "display name from first record")
	assert.Equal(t, "水戸〜那珂", joban.SectionNorm)

	assert.Equal(t, 1, byRoute["東北道"].Count)
}

func TestAggregateSections_DeterministicOrder(t *testing.T) {
	records := sampleRecords()
	first := AggregateSections(records)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, AggregateSections(records))
	}
}

func TestBuildDensityMap(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	idx := jobanIndex(t)
	resolver := NewResolver(idx, DefaultDistanceThresholdMeters)

	records := []IncidentRecord{
		{RouteName: "常磐道", Section: "水戸IC〜那珂IC", LengthKm: 10.0},
		{RouteName: "常磐道", Section: "水戸IC〜那珂IC", LengthKm: 10.0},
		{RouteName: "山陽道", Section: "岡山IC〜倉敷IC", LengthKm: 8.0}, // unresolvable, dropped
	}

	result := BuildDensityMap(AggregateSections(records), resolver)

	require.Len(t, result.Segments, 1)
	seg := result.Segments[0]
	assert.Equal(t, "常磐道", seg.RouteName)
	assert.Equal(t, 2, seg.Count, "identical records increment one segment, never create a second")
	assert.Equal(t, 10.0, seg.LengthKm)
	assert.InDelta(t, 0.2, seg.DensityPerKm, 1e-9)
	assert.InDelta(t, 0.2, result.MaxDensity, 1e-9)
	assert.Equal(t, orb.Point{140.0005, 36.3}, seg.Start)
	assert.Equal(t, orb.Point{140.0005, 36.4}, seg.End)
	assert.Contains(t, seg.Description, "常磐道")
	assert.Contains(t, seg.Description, "0.20 件/km")
	assert.Equal(t, fixed, result.GeneratedAt)
}

func TestBuildDensityMap_Empty(t *testing.T) {
	idx := jobanIndex(t)
	resolver := NewResolver(idx, DefaultDistanceThresholdMeters)

	result := BuildDensityMap(nil, resolver)
	assert.Empty(t, result.Segments)
	assert.Equal(t, 0.0, result.MaxDensity)
}

func TestDensityPerKm_Floor(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		lengthKm float64
		expected float64
	}{
		{"positive length", 4, 2.0, 2.0},
		{"zero length", 4, 0, 0},
		{"negative length", 4, -1.5, 0},
		{"zero count", 0, 2.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, densityPerKm(tt.count, tt.lengthKm))
		})
	}
}

func TestBuildDensityMap_ZeroLengthKeepsCountExcludesDensity(t *testing.T) {
	idx := jobanIndex(t)
	resolver := NewResolver(idx, DefaultDistanceThresholdMeters)

	records := []IncidentRecord{
		{RouteName: "常磐道", Section: "水戸IC〜那珂IC", LengthKm: 0},
	}
	result := BuildDensityMap(AggregateSections(records), resolver)

	require.Len(t, result.Segments, 1)
	assert.Equal(t, 1, result.Segments[0].Count)
	assert.Equal(t, 0.0, result.Segments[0].DensityPerKm)
	assert.Equal(t, 0.0, result.MaxDensity)
	assert.Contains(t, result.Segments[0].Description, "件数: 1 件")
}

func TestBuildDensityMapPrecut(t *testing.T) {
	idx := BuildSegmentIndex(testCutSegments())

	records := []IncidentRecord{
		// Reversed direction relative to the cut segment: both orderings match.
		{RouteName: "常磐道", Section: "那珂IC〜水戸IC", LengthKm: 10.0},
		{RouteName: "常磐道", Section: "那珂IC〜水戸IC", LengthKm: 10.0},
		{RouteName: "常磐道", Section: "那珂IC〜水戸IC", LengthKm: 10.0},
	}
	result := BuildDensityMapPrecut(AggregateSections(records), idx)

	// Every cut segment renders, matched or not.
	require.Len(t, result.Segments, 2)

	var matched, unmatched ResolvedSegment
	for _, s := range result.Segments {
		if s.Count > 0 {
			matched = s
		} else {
			unmatched = s
		}
	}

	assert.Equal(t, 3, matched.Count)
	assert.InDelta(t, 0.3, matched.DensityPerKm, 1e-9)
	assert.Equal(t, "那珂IC〜水戸IC", matched.Section, "incident spelling kept for display")
	require.NotEmpty(t, matched.Geometry)
	assert.Equal(t, matched.Geometry[0], matched.Start)

	assert.Equal(t, 0, unmatched.Count)
	assert.Equal(t, 0.0, unmatched.DensityPerKm)
	assert.Equal(t, "那珂IC〜日立南太田IC", unmatched.Section)
	assert.Equal(t, "常磐自動車道", unmatched.RouteName, "falls back to reference route name")
}

func TestFinishDensityResult_SortsByDensityDescending(t *testing.T) {
	idx := BuildSegmentIndex(testCutSegments())

	records := []IncidentRecord{
		{RouteName: "常磐道", Section: "水戸IC〜那珂IC", LengthKm: 10.0},
		{RouteName: "常磐道", Section: "那珂IC〜日立南太田IC", LengthKm: 2.0},
	}
	result := BuildDensityMapPrecut(AggregateSections(records), idx)

	require.Len(t, result.Segments, 2)
	assert.Equal(t, "那珂IC〜日立南太田IC", result.Segments[0].Section)
	assert.InDelta(t, 0.5, result.MaxDensity, 1e-9)
}
