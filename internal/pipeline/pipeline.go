// Package pipeline wires the data sources to the resolution and density
// stages and serves filtered snapshots to the HTTP layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wildpath/roadkill-map/internal/domain"
	"github.com/wildpath/roadkill-map/internal/observability"
)

// IncidentSource loads the roadkill removal log.
type IncidentSource interface {
	Load() ([]domain.IncidentRecord, error)
}

// ReferenceSource loads interchange points and route polylines.
type ReferenceSource interface {
	Interchanges() ([]domain.InterchangePoint, error)
	RouteLines() ([]domain.RouteLine, error)
}

// SegmentSource loads pre-cut inter-IC segments.
type SegmentSource interface {
	CutSegments() ([]domain.CutSegment, error)
}

// Pipeline loads reference data once at startup and serves density
// snapshots computed against a caller-supplied filter. Loaded state is
// immutable after Load; Snapshot and Options are safe for concurrent use.
type Pipeline struct {
	incidents       IncidentSource
	reference       ReferenceSource // nil in pre-cut mode
	segmentSource   SegmentSource   // nil in endpoint resolution mode
	thresholdMeters float64
	logger          *slog.Logger
	metrics         *observability.Metrics

	mu       sync.RWMutex
	records  []domain.IncidentRecord
	resolver *domain.Resolver
	segments *domain.SegmentIndex
	options  domain.FilterOptions

	ready atomic.Bool
}

// New creates a Pipeline in endpoint resolution mode.
func New(incidents IncidentSource, reference ReferenceSource, thresholdMeters float64, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		incidents:       incidents,
		reference:       reference,
		thresholdMeters: thresholdMeters,
		logger:          logger,
		metrics:         metrics,
	}
}

// NewPrecut creates a Pipeline that matches sections against pre-cut
// segments instead of resolving endpoints geometrically.
func NewPrecut(incidents IncidentSource, segments SegmentSource, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		incidents:     incidents,
		segmentSource: segments,
		logger:        logger,
		metrics:       metrics,
	}
}

// Load reads all configured sources and builds the lookup structures.
func (p *Pipeline) Load(ctx context.Context) error {
	start := time.Now()

	records, err := p.incidents.Load()
	if err != nil {
		return fmt.Errorf("load incidents: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var (
		resolver *domain.Resolver
		segments *domain.SegmentIndex
	)
	if p.segmentSource != nil {
		segments, err = p.loadSegments()
	} else {
		resolver, err = p.loadReference()
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.records = records
	p.resolver = resolver
	p.segments = segments
	p.options = domain.CollectFilterOptions(records)
	p.mu.Unlock()

	p.metrics.IncidentsLoaded.Set(float64(len(records)))
	p.reportResolution(records, resolver, segments)
	p.ready.Store(true)
	p.metrics.PipelineReady.Set(1)

	p.logger.Info("pipeline loaded",
		"incidents", len(records),
		"precut", p.segmentSource != nil,
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) loadReference() (*domain.Resolver, error) {
	points, err := p.reference.Interchanges()
	if err != nil {
		return nil, fmt.Errorf("load interchanges: %w", err)
	}
	lines, err := p.reference.RouteLines()
	if err != nil {
		return nil, fmt.Errorf("load route lines: %w", err)
	}
	index, err := domain.BuildReferenceIndex(points, lines)
	if err != nil {
		return nil, fmt.Errorf("build reference index: %w", err)
	}
	p.metrics.ReferencePlaces.Set(float64(index.Places()))
	p.metrics.ReferenceRoutes.Set(float64(index.Routes()))
	return domain.NewResolver(index, p.thresholdMeters), nil
}

func (p *Pipeline) loadSegments() (*domain.SegmentIndex, error) {
	cuts, err := p.segmentSource.CutSegments()
	if err != nil {
		return nil, fmt.Errorf("load cut segments: %w", err)
	}
	if len(cuts) == 0 {
		return nil, errors.New("cut segment file contains no usable segments")
	}
	return domain.BuildSegmentIndex(cuts), nil
}

// reportResolution runs the unfiltered resolution once so the logs and
// metrics show how much of the log the reference data can place.
func (p *Pipeline) reportResolution(records []domain.IncidentRecord, resolver *domain.Resolver, segments *domain.SegmentIndex) {
	counts := domain.AggregateSections(records)

	resolved := 0
	if resolver != nil {
		result := domain.BuildDensityMap(counts, resolver)
		resolved = len(result.Segments)

		ambiguous := 0
		for _, sc := range counts {
			if match, ok := resolver.MatchRoute(sc.RouteName); ok && match.Ambiguity > 1 {
				ambiguous++
				p.logger.Debug("ambiguous route match",
					"route", sc.RouteName,
					"matched", match.Key,
					"score", match.Score,
					"candidates", match.Ambiguity,
				)
			}
		}
		p.metrics.AmbiguousRouteMatches.Add(float64(ambiguous))
	} else {
		for _, sc := range counts {
			if _, ok := segments.Lookup(sc.SectionNorm); ok {
				resolved++
			}
		}
	}

	dropped := len(counts) - resolved
	p.metrics.SectionsResolved.Add(float64(resolved))
	p.metrics.SectionsDropped.Add(float64(dropped))
	if dropped > 0 {
		p.logger.Warn("some sections could not be placed on reference geometry",
			"total", len(counts), "resolved", resolved, "dropped", dropped)
	}
}

// CheckReadiness returns nil once the pipeline has loaded its sources.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded reference data yet")
	}
	return nil
}

// Snapshot computes the density map for the records matching the filter.
// Before Load completes it returns an empty result.
func (p *Pipeline) Snapshot(_ context.Context, filter domain.Filter) domain.DensityResult {
	start := time.Now()
	defer func() {
		p.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	}()

	p.mu.RLock()
	records := p.records
	resolver := p.resolver
	segments := p.segments
	p.mu.RUnlock()

	counts := domain.AggregateSections(domain.ApplyFilter(records, filter))
	if segments != nil {
		return domain.BuildDensityMapPrecut(counts, segments)
	}
	if resolver == nil {
		return domain.DensityResult{}
	}
	return domain.BuildDensityMap(counts, resolver)
}

// Options returns the distinct filter values present in the loaded log.
func (p *Pipeline) Options() domain.FilterOptions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.options
}
