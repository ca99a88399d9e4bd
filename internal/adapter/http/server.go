// Package http exposes the density map API plus the usual health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wildpath/roadkill-map/internal/adapter/geojsonfile"
	"github.com/wildpath/roadkill-map/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// DensityProvider serves filtered density snapshots and the filter values
// present in the loaded data.
type DensityProvider interface {
	ReadinessChecker
	Snapshot(ctx context.Context, filter domain.Filter) domain.DensityResult
	Options() domain.FilterOptions
}

// Server exposes the density map API over HTTP.
type Server struct {
	httpServer *http.Server
	provider   DensityProvider
	geocoder   domain.Geocoder // nil disables /api/geocode
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API and operational routes.
// A nil geocoder turns /api/geocode into a 404.
func NewServer(addr string, provider DensityProvider, geocoder domain.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider: provider,
		geocoder: geocoder,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/options", s.handleOptions)
	mux.HandleFunc("GET /api/segments", s.handleSegments)
	mux.HandleFunc("GET /api/segments.geojson", s.handleSegmentsGeoJSON)
	if geocoder != nil {
		mux.HandleFunc("GET /api/geocode", s.handleGeocode)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.provider.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.provider.Options())
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.provider.Snapshot(r.Context(), filter))
}

func (s *Server) handleSegmentsGeoJSON(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result := s.provider.Snapshot(r.Context(), filter)

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(geojsonfile.ExportDensity(result)); err != nil {
		s.logger.Warn("encode geojson response failed", "error", err)
	}
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing query parameter q"})
		return
	}

	result, err := s.geocoder.Search(r.Context(), query)
	if err != nil {
		s.logger.Warn("geocode failed", "query", query, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "geocoding failed"})
		return
	}
	if !result.Found() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no results"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseFilter reads the filter query parameters. List parameters accept
// either repeated keys or comma-separated values.
func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()

	months, err := intList(q["months"], "months", 1, 12)
	if err != nil {
		return domain.Filter{}, err
	}
	hours, err := intList(q["hours"], "hours", 0, 23)
	if err != nil {
		return domain.Filter{}, err
	}

	return domain.Filter{
		Months:   months,
		Hours:    hours,
		Weekdays: stringList(q["weekdays"]),
		Weathers: stringList(q["weathers"]),
		Species:  stringList(q["species"]),
	}, nil
}

func intList(values []string, name string, min, max int) ([]int, error) {
	var out []int
	for _, part := range splitAll(values) {
		n, err := strconv.Atoi(part)
		if err != nil || n < min || n > max {
			return nil, &filterError{param: name, value: part}
		}
		out = append(out, n)
	}
	return out, nil
}

func stringList(values []string) []string {
	return splitAll(values)
}

func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

type filterError struct {
	param string
	value string
}

func (e *filterError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for parameter " + e.param
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
