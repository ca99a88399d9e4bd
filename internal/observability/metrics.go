package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// resolution pipeline.
type Metrics struct {
	IncidentsLoaded prometheus.Gauge
	ReferenceRoutes prometheus.Gauge
	ReferencePlaces prometheus.Gauge
	PipelineReady   prometheus.Gauge

	// Resolution metrics.
	SectionsResolved      prometheus.Counter
	SectionsDropped       prometheus.Counter
	AmbiguousRouteMatches prometheus.Counter
	SnapshotDuration      prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		IncidentsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadkill_map",
			Name:      "incidents_loaded",
			Help:      "Incident records held in memory after the last load.",
		}),
		ReferenceRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadkill_map",
			Name:      "reference_routes",
			Help:      "Distinct normalized route keys in the reference index.",
		}),
		ReferencePlaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadkill_map",
			Name:      "reference_places",
			Help:      "Distinct normalized interchange names in the reference index.",
		}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadkill_map",
			Name:      "pipeline_ready",
			Help:      "1 when reference and incident data loaded successfully, 0 otherwise.",
		}),
		SectionsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadkill_map",
			Name:      "sections_resolved_total",
			Help:      "Section groups successfully matched to a geographic segment.",
		}),
		SectionsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadkill_map",
			Name:      "sections_dropped_total",
			Help:      "Section groups dropped because no reference geometry matched.",
		}),
		AmbiguousRouteMatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roadkill_map",
			Name:      "ambiguous_route_matches_total",
			Help:      "Route containment matches where more than one reference key matched.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roadkill_map",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of a complete filter-aggregate-resolve pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadkill_map",
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadkill_map",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.IncidentsLoaded,
		m.ReferenceRoutes,
		m.ReferencePlaces,
		m.PipelineReady,
		m.SectionsResolved,
		m.SectionsDropped,
		m.AmbiguousRouteMatches,
		m.SnapshotDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		IncidentsLoaded:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "roadkill_map", Name: "incidents_loaded"}),
		ReferenceRoutes:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "roadkill_map", Name: "reference_routes"}),
		ReferencePlaces:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "roadkill_map", Name: "reference_places"}),
		PipelineReady:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "roadkill_map", Name: "pipeline_ready"}),
		SectionsResolved:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadkill_map", Name: "sections_resolved_total"}),
		SectionsDropped:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadkill_map", Name: "sections_dropped_total"}),
		AmbiguousRouteMatches: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "roadkill_map", Name: "ambiguous_route_matches_total"}),
		SnapshotDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "roadkill_map", Name: "snapshot_duration_seconds"}),
		GeocodeRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "roadkill_map", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "roadkill_map", Name: "geocode_cache_total"}, []string{"result"}),
	}
}
