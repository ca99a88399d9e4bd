package domain

import (
	"errors"
	"sort"

	"github.com/paulmach/orb"
)

// ErrMissingReferenceData signals that a required geometric source is empty.
// No segment can resolve without both references; callers degrade to an
// empty map rather than crashing.
var ErrMissingReferenceData = errors.New("reference data missing: interchange points and route lines are both required")

// InterchangePoint is a named point from the interchange reference dataset.
type InterchangePoint struct {
	Name  string
	Point orb.Point
}

// RouteLine is one centerline fragment from the route reference dataset.
// Routes fragmented across records merge under one key during indexing.
type RouteLine struct {
	RouteName string
	Line      orb.LineString
}

// ReferenceIndex holds the two lookup structures built from the geometric
// references: PLACE-normalized interchange name → candidate points, and
// ROUTE-normalized route name → merged geometry. It is immutable after
// construction and safe to share by reference across queries. It is always
// an explicitly constructed value passed by handle, never a hidden
// package-level cache.
type ReferenceIndex struct {
	places    map[string][]orb.Point
	routes    map[string]orb.MultiLineString
	routeKeys []string // sorted lexicographically for reproducible first-match
}

// BuildReferenceIndex groups interchange points by normalized name (keeping
// duplicates, in input order) and merges route fragments by normalized route
// name. Grouping uses exact key equality; the containment tolerance belongs
// to resolution, not indexing. Identical inputs always produce identical
// groupings.
func BuildReferenceIndex(points []InterchangePoint, lines []RouteLine) (*ReferenceIndex, error) {
	if len(points) == 0 || len(lines) == 0 {
		return nil, ErrMissingReferenceData
	}

	idx := &ReferenceIndex{
		places: make(map[string][]orb.Point),
		routes: make(map[string]orb.MultiLineString),
	}

	for _, p := range points {
		key := NormalizePlace(p.Name)
		if key == "" {
			continue
		}
		idx.places[key] = append(idx.places[key], p.Point)
	}

	for _, l := range lines {
		key := NormalizeRoute(l.RouteName)
		if key == "" || len(l.Line) == 0 {
			continue
		}
		idx.routes[key] = append(idx.routes[key], l.Line)
	}

	idx.routeKeys = make([]string, 0, len(idx.routes))
	for key := range idx.routes {
		idx.routeKeys = append(idx.routeKeys, key)
	}
	sort.Strings(idx.routeKeys)

	return idx, nil
}

// PlaceCandidates returns all candidate points for a PLACE-normalized name.
// Duplicate interchange names across routes yield multiple candidates.
func (idx *ReferenceIndex) PlaceCandidates(nameNorm string) []orb.Point {
	return idx.places[nameNorm]
}

// RouteGeometry returns the merged geometry for a ROUTE-normalized key.
func (idx *ReferenceIndex) RouteGeometry(key string) (orb.MultiLineString, bool) {
	g, ok := idx.routes[key]
	return g, ok
}

// RouteKeys returns the normalized route keys in lexicographic order,
// the documented iteration order for first-match route resolution.
func (idx *ReferenceIndex) RouteKeys() []string {
	return idx.routeKeys
}

// Places reports the number of distinct normalized interchange names.
func (idx *ReferenceIndex) Places() int { return len(idx.places) }

// Routes reports the number of distinct normalized route keys.
func (idx *ReferenceIndex) Routes() int { return len(idx.routes) }
