// Command validate checks a data set offline before deploying it: it loads
// the incident CSV and the reference GeoJSON, runs the full resolution, and
// reports which sections cannot be placed on the highway geometry and why.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -incidents data/incidents.csv \
//	  -interchanges data/N06_interchanges.geojson \
//	  -routes data/N06_routes.geojson
//
// or, for a pre-cut segment extract:
//
//	go run ./cmd/validate -incidents data/incidents.csv -segments data/segments.geojson
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/wildpath/roadkill-map/internal/adapter/csvfile"
	"github.com/wildpath/roadkill-map/internal/adapter/geojsonfile"
	"github.com/wildpath/roadkill-map/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	incidents := flag.String("incidents", "", "path to incident CSV")
	interchanges := flag.String("interchanges", "", "path to interchange GeoJSON (N06 points)")
	routes := flag.String("routes", "", "path to route GeoJSON (N06 lines)")
	segments := flag.String("segments", "", "path to pre-cut segment GeoJSON (replaces -interchanges/-routes)")
	skipRows := flag.Int("skip-rows", 2, "title rows to skip before the CSV header")
	threshold := flag.Float64("threshold", domain.DefaultDistanceThresholdMeters, "candidate plausibility threshold in meters")
	flag.Parse()

	if *incidents == "" || (*segments == "" && (*interchanges == "" || *routes == "")) {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*incidents, *interchanges, *routes, *segments, *skipRows, *threshold); code != 0 {
		os.Exit(code)
	}
}

func run(incidentPath, interchangePath, routePath, segmentPath string, skipRows int, threshold float64) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Println("=== Roadkill Map Data Validation ===")
	fmt.Println()

	records, err := csvfile.NewLoader(incidentPath, skipRows, logger).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load incidents: %v\n", err)
		return 1
	}

	counts := domain.AggregateSections(records)

	var phases []*phase
	phases = append(phases, validateIncidents(records, counts))

	if segmentPath != "" {
		index, err := loadSegments(logger, segmentPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load segments: %v\n", err)
			return 1
		}
		phases = append(phases, validatePrecutCoverage(counts, index))
		result := domain.BuildDensityMapPrecut(counts, index)
		phases = append(phases, validateDensity(result))
	} else {
		resolver, err := loadResolver(logger, interchangePath, routePath, threshold)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load reference data: %v\n", err)
			return 1
		}
		phases = append(phases, validateResolutionCoverage(counts, resolver))
		result := domain.BuildDensityMap(counts, resolver)
		phases = append(phases, validateDensity(result))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d incidents in %d sections\n", len(records), len(counts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadResolver(logger *slog.Logger, interchangePath, routePath string, threshold float64) (*domain.Resolver, error) {
	loader := geojsonfile.NewLoader(logger)
	points, err := loader.LoadInterchanges(interchangePath)
	if err != nil {
		return nil, err
	}
	lines, err := loader.LoadRouteLines(routePath)
	if err != nil {
		return nil, err
	}
	index, err := domain.BuildReferenceIndex(points, lines)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Reference data: %d interchange names, %d routes\n", index.Places(), index.Routes())
	return domain.NewResolver(index, threshold), nil
}

func loadSegments(logger *slog.Logger, path string) (*domain.SegmentIndex, error) {
	cuts, err := geojsonfile.NewLoader(logger).LoadCutSegments(path)
	if err != nil {
		return nil, err
	}
	index := domain.BuildSegmentIndex(cuts)
	fmt.Printf("Reference data: %d pre-cut segments\n", index.Len())
	return index, nil
}

// ── Phase 1: Incident Log Integrity ──

func validateIncidents(records []domain.IncidentRecord, counts []domain.SectionCount) *phase {
	p := &phase{name: "Phase 1: Incident Log Integrity"}

	if len(records) == 0 {
		p.errorf("no usable incident records")
		return p
	}

	for _, rec := range records {
		if _, end := domain.SplitSectionLabel(rec.Section); end == "" {
			p.errorf("section %q has no separator, cannot resolve endpoints", rec.Section)
		}
	}

	for _, sc := range counts {
		if sc.LengthKm <= 0 {
			p.errorf("section %q (%s) has no length, density will be omitted", sc.Section, sc.RouteName)
		}
	}

	return p
}

// ── Phase 2: Resolution Coverage ──
// Reports every section the resolver cannot place, with the failing stage.

func validateResolutionCoverage(counts []domain.SectionCount, resolver *domain.Resolver) *phase {
	p := &phase{name: "Phase 2: Resolution Coverage"}

	for _, sc := range counts {
		match, ok := resolver.MatchRoute(sc.RouteName)
		if !ok {
			p.errorf("%s (%s): no reference route contains the normalized name", sc.RouteName, sc.Section)
			continue
		}
		if match.Ambiguity > 1 {
			fmt.Printf("  Note: route %q matches %d reference keys, using %q (score %.2f)\n",
				sc.RouteName, match.Ambiguity, match.Key, match.Score)
		}
		if _, ok := resolver.Resolve(sc.RouteName, sc.Section); !ok {
			p.errorf("%s (%s): matched route %q but endpoints could not be placed", sc.RouteName, sc.Section, match.Key)
		}
	}

	return p
}

func validatePrecutCoverage(counts []domain.SectionCount, index *domain.SegmentIndex) *phase {
	p := &phase{name: "Phase 2: Pre-cut Segment Coverage"}

	for _, sc := range counts {
		if _, ok := index.Lookup(sc.SectionNorm); !ok {
			p.errorf("%s (%s): no pre-cut segment matches either direction", sc.RouteName, sc.Section)
		}
	}

	return p
}

// ── Phase 3: Density Consistency ──

func validateDensity(result domain.DensityResult) *phase {
	p := &phase{name: "Phase 3: Density Consistency"}

	maxSeen := 0.0
	for _, seg := range result.Segments {
		if seg.LengthKm > 0 {
			expected := float64(seg.Count) / seg.LengthKm
			if math.Abs(seg.DensityPerKm-expected) > 1e-9 {
				p.errorf("%s (%s): density %.6f does not equal count/length %.6f",
					seg.RouteName, seg.Section, seg.DensityPerKm, expected)
			}
		} else if seg.DensityPerKm != 0 {
			p.errorf("%s (%s): zero-length segment has density %.6f", seg.RouteName, seg.Section, seg.DensityPerKm)
		}
		if seg.DensityPerKm > maxSeen {
			maxSeen = seg.DensityPerKm
		}
		if seg.Description == "" {
			p.errorf("%s (%s): missing description", seg.RouteName, seg.Section)
		}
	}

	if math.Abs(result.MaxDensity-maxSeen) > 1e-9 {
		p.errorf("max density %.6f does not match observed maximum %.6f", result.MaxDensity, maxSeen)
	}

	return p
}
