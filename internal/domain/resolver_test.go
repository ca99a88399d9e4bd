package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobanIndex builds a small reference set around a north-south route at
// longitude 140 with two interchanges sitting just off the centerline.
func jobanIndex(t *testing.T, extraPoints ...InterchangePoint) *ReferenceIndex {
	t.Helper()

	points := append([]InterchangePoint{
		{Name: "水戸IC", Point: orb.Point{140.0005, 36.3}},
		{Name: "那珂IC", Point: orb.Point{140.0005, 36.4}},
	}, extraPoints...)
	lines := []RouteLine{
		{RouteName: "常磐自動車道", Line: orb.LineString{{140.0, 36.0}, {140.0, 37.0}}},
	}

	idx, err := BuildReferenceIndex(points, lines)
	require.NoError(t, err)
	return idx
}

func TestResolver_Resolve(t *testing.T) {
	idx := jobanIndex(t)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	got, ok := r.Resolve("常磐道", "水戸IC〜那珂IC")
	require.True(t, ok)
	assert.Equal(t, orb.Point{140.0005, 36.3}, got.Start)
	assert.Equal(t, orb.Point{140.0005, 36.4}, got.End)
	assert.Equal(t, "常磐自動車", got.Route.Key)
	assert.Equal(t, 1, got.Route.Ambiguity)
}

func TestResolver_RouteContainment(t *testing.T) {
	points := []InterchangePoint{
		{Name: "宇都宮IC", Point: orb.Point{139.8005, 36.55}},
		{Name: "矢板IC", Point: orb.Point{139.8005, 36.75}},
	}
	lines := []RouteLine{
		{RouteName: "東北自動車道", Line: orb.LineString{{139.8, 36.0}, {139.8, 37.0}}},
	}
	idx, err := BuildReferenceIndex(points, lines)
	require.NoError(t, err)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	// "東北道" normalizes to "東北", a substring of the reference key
	// "東北自動車", so containment succeeds where equality would not.
	match, ok := r.MatchRoute("東北道")
	require.True(t, ok)
	assert.Equal(t, "東北自動車", match.Key)

	_, ok = r.Resolve("東北道", "宇都宮IC〜矢板IC")
	assert.True(t, ok)
}

func TestResolver_MatchRoute_Diagnostics(t *testing.T) {
	lines := []RouteLine{
		{RouteName: "関越自動車道", Line: orb.LineString{{139.0, 36.0}, {139.0, 37.0}}},
		{RouteName: "北関東自動車道", Line: orb.LineString{{139.5, 36.4}, {140.2, 36.4}}},
	}
	points := []InterchangePoint{{Name: "高崎IC", Point: orb.Point{139.0, 36.3}}}
	idx, err := BuildReferenceIndex(points, lines)
	require.NoError(t, err)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	// "関" is contained in both normalized keys; lexicographic order makes
	// the winner reproducible and Ambiguity exposes the collision.
	match, ok := r.MatchRoute("関")
	require.True(t, ok)
	assert.Equal(t, "北関東自動車", match.Key)
	assert.Equal(t, 2, match.Ambiguity)
	assert.InDelta(t, float64(len("関"))/float64(len("北関東自動車")), match.Score, 1e-9)

	_, ok = r.MatchRoute("山陽道")
	assert.False(t, ok)
	_, ok = r.MatchRoute("")
	assert.False(t, ok)
}

func TestResolver_MalformedSectionLabel(t *testing.T) {
	idx := jobanIndex(t)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	// No separator: end label defaults to empty, candidate lookup fails,
	// the section is dropped without an error.
	_, ok := r.Resolve("常磐道", "水戸IC")
	assert.False(t, ok)
}

func TestResolver_UnknownNames(t *testing.T) {
	idx := jobanIndex(t)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	_, ok := r.Resolve("山陽道", "水戸IC〜那珂IC")
	assert.False(t, ok, "unknown route")

	_, ok = r.Resolve("常磐道", "水戸IC〜謎IC")
	assert.False(t, ok, "unknown end interchange")
}

func TestResolver_PlausibilityFilter(t *testing.T) {
	// A distant duplicate of 水戸IC (another prefecture) must be filtered
	// out by the distance-to-route check.
	idx := jobanIndex(t, InterchangePoint{Name: "水戸IC", Point: orb.Point{135.5, 34.7}})
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	got, ok := r.Resolve("常磐道", "水戸IC〜那珂IC")
	require.True(t, ok)
	assert.Equal(t, orb.Point{140.0005, 36.3}, got.Start)
}

func TestResolver_ThresholdIsStrict(t *testing.T) {
	idx := jobanIndex(t)
	route, ok := idx.RouteGeometry("常磐自動車")
	require.True(t, ok)

	// A candidate sitting exactly at the threshold distance is excluded;
	// nudging the threshold just past it lets the section resolve.
	d := DistanceToRouteMeters(route, orb.Point{140.0005, 36.3})
	require.Greater(t, d, 0.0)

	_, ok = NewResolver(idx, d).Resolve("常磐道", "水戸IC〜那珂IC")
	assert.False(t, ok, "distance == threshold must be excluded")

	_, ok = NewResolver(idx, d*1.01).Resolve("常磐道", "水戸IC〜那珂IC")
	assert.True(t, ok)
}

func TestResolver_ZeroDistancePairExcluded(t *testing.T) {
	// Both labels resolve to the identical coordinate: the only available
	// pair has zero distance, so resolution fails rather than producing a
	// zero-length segment.
	points := []InterchangePoint{
		{Name: "友部IC", Point: orb.Point{140.0005, 36.3}},
		{Name: "友部JCT", Point: orb.Point{140.0005, 36.3}},
	}
	lines := []RouteLine{
		{RouteName: "常磐自動車道", Line: orb.LineString{{140.0, 36.0}, {140.0, 37.0}}},
	}
	idx, err := BuildReferenceIndex(points, lines)
	require.NoError(t, err)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	_, ok := r.Resolve("常磐道", "友部IC〜友部JCT")
	assert.False(t, ok)
}

func TestResolver_TieBreakDeterministic(t *testing.T) {
	// Two start candidates mirrored around the single end candidate produce
	// exactly equal pair distances; the first candidate in input order wins,
	// run after run.
	points := []InterchangePoint{
		{Name: "水戸IC", Point: orb.Point{140.0, 36.2}},
		{Name: "水戸IC", Point: orb.Point{140.0, 36.8}},
		{Name: "那珂IC", Point: orb.Point{140.0, 36.5}},
	}
	lines := []RouteLine{
		{RouteName: "常磐自動車道", Line: orb.LineString{{140.0, 36.0}, {140.0, 37.0}}},
	}
	idx, err := BuildReferenceIndex(points, lines)
	require.NoError(t, err)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	first, ok := r.Resolve("常磐道", "水戸IC〜那珂IC")
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := r.Resolve("常磐道", "水戸IC〜那珂IC")
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestResolver_ExactTiePicksFirstCandidate(t *testing.T) {
	// Duplicated interchange geometry (a common data artifact) produces
	// bit-identical pair distances; the first candidate in iteration order
	// wins instead of raising an ambiguity error.
	points := []InterchangePoint{
		{Name: "水戸IC", Point: orb.Point{140.0, 36.3}},
		{Name: "水戸IC", Point: orb.Point{140.0, 36.3}},
		{Name: "那珂IC", Point: orb.Point{140.0, 36.4}},
	}
	lines := []RouteLine{
		{RouteName: "常磐自動車道", Line: orb.LineString{{140.0, 36.0}, {140.0, 37.0}}},
	}
	idx, err := BuildReferenceIndex(points, lines)
	require.NoError(t, err)

	got, ok := NewResolver(idx, DefaultDistanceThresholdMeters).Resolve("常磐道", "水戸IC〜那珂IC")
	require.True(t, ok)
	assert.Equal(t, orb.Point{140.0, 36.3}, got.Start)
	assert.Equal(t, orb.Point{140.0, 36.4}, got.End)
}

func TestResolver_ResolutionDependsOnNormalizedKeysOnly(t *testing.T) {
	idx := jobanIndex(t)
	r := NewResolver(idx, DefaultDistanceThresholdMeters)

	a, okA := r.Resolve("常磐道", "水戸IC〜那珂IC")
	b, okB := r.Resolve("常磐道", "水戸ＩＣ〜那珂ＩＣ") // full-width spelling
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}
