package domain

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

const (
	// DefaultDistanceThresholdMeters bounds how far an interchange candidate
	// may sit from its route geometry before it is discarded as implausible.
	DefaultDistanceThresholdMeters = 3000

	// metersPerDegree is the flat conversion applied to degree-space
	// distances. An approximation, not geodesically exact; fine at the
	// 3 km scale this filter operates on.
	metersPerDegree = 111000
)

// RouteMatch describes how an incident route name matched a reference key.
// Score is the fraction of the reference key covered by the incident name,
// and Ambiguity counts every reference key that would have matched. Both
// are diagnostics for the substring heuristic's false-positive risk.
type RouteMatch struct {
	Key       string
	Score     float64
	Ambiguity int
}

// ResolvedEndpoints is a successful resolution: the winning candidate pair
// plus the route match that anchored it.
type ResolvedEndpoints struct {
	Start orb.Point
	End   orb.Point
	Route RouteMatch
}

// Resolver maps (route, section) text to concrete endpoint coordinates using
// a ReferenceIndex. It holds no mutable state and is safe for repeated use.
type Resolver struct {
	index           *ReferenceIndex
	thresholdMeters float64
}

// NewResolver creates a Resolver. A zero or negative threshold falls back to
// DefaultDistanceThresholdMeters.
func NewResolver(index *ReferenceIndex, thresholdMeters float64) *Resolver {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultDistanceThresholdMeters
	}
	return &Resolver{index: index, thresholdMeters: thresholdMeters}
}

// MatchRoute finds the reference route key containing the normalized incident
// route name. Keys are scanned in lexicographic order so the first match is
// reproducible across runs; Ambiguity reports how many keys matched in total.
func (r *Resolver) MatchRoute(rawRoute string) (RouteMatch, bool) {
	norm := NormalizeRoute(rawRoute)
	if norm == "" {
		return RouteMatch{}, false
	}

	var match RouteMatch
	for _, key := range r.index.RouteKeys() {
		if !strings.Contains(key, norm) {
			continue
		}
		match.Ambiguity++
		if match.Key == "" {
			match.Key = key
			match.Score = float64(len(norm)) / float64(len(key))
		}
	}
	if match.Key == "" {
		return RouteMatch{}, false
	}
	return match, true
}

// Resolve maps a raw route name and section label to endpoint coordinates.
// Stages short-circuit on the first failure: section split, route containment
// match, candidate lookup for both labels, plausibility filter against the
// route geometry, then nearest-positive-distance pair selection. The greedy
// nearest-pair choice is per-section, not a global optimum.
func (r *Resolver) Resolve(rawRoute, sectionLabel string) (ResolvedEndpoints, bool) {
	startLabel, endLabel := SplitSectionLabel(sectionLabel)
	startNorm := NormalizePlace(startLabel)
	endNorm := NormalizePlace(endLabel)

	match, ok := r.MatchRoute(rawRoute)
	if !ok {
		return ResolvedEndpoints{}, false
	}
	routeGeom, ok := r.index.RouteGeometry(match.Key)
	if !ok {
		return ResolvedEndpoints{}, false
	}

	startCandidates := r.index.PlaceCandidates(startNorm)
	endCandidates := r.index.PlaceCandidates(endNorm)
	if len(startCandidates) == 0 || len(endCandidates) == 0 {
		return ResolvedEndpoints{}, false
	}

	validStarts := r.nearRoute(startCandidates, routeGeom)
	validEnds := r.nearRoute(endCandidates, routeGeom)
	if len(validStarts) == 0 || len(validEnds) == 0 {
		return ResolvedEndpoints{}, false
	}

	start, end, ok := nearestPositivePair(validStarts, validEnds)
	if !ok {
		return ResolvedEndpoints{}, false
	}
	return ResolvedEndpoints{Start: start, End: end, Route: match}, true
}

// nearRoute keeps candidates strictly closer to the route geometry than the
// threshold. A candidate at exactly the threshold distance is excluded.
func (r *Resolver) nearRoute(candidates []orb.Point, route orb.MultiLineString) []orb.Point {
	kept := make([]orb.Point, 0, len(candidates))
	for _, p := range candidates {
		if DistanceToRouteMeters(route, p) < r.thresholdMeters {
			kept = append(kept, p)
		}
	}
	return kept
}

// DistanceToRouteMeters approximates the distance from a point to a route
// geometry: planar distance in degrees scaled by 111000 m/degree.
func DistanceToRouteMeters(route orb.MultiLineString, p orb.Point) float64 {
	return planar.DistanceFrom(route, p) * metersPerDegree
}

// nearestPositivePair scans the cross product of start and end candidates for
// the pair with the smallest positive great-circle distance. Zero-distance
// pairs (both labels resolving to the identical point) are invalid and
// skipped even when no other pair exists. Strict less-than keeps the first
// pair in iteration order on exact ties, so repeated runs agree.
func nearestPositivePair(starts, ends []orb.Point) (orb.Point, orb.Point, bool) {
	var (
		best     float64
		bestPair [2]orb.Point
		found    bool
	)
	for _, s := range starts {
		for _, e := range ends {
			d := geo.DistanceHaversine(s, e)
			if d <= 0 {
				continue
			}
			if !found || d < best {
				best = d
				bestPair = [2]orb.Point{s, e}
				found = true
			}
		}
	}
	return bestPair[0], bestPair[1], found
}
