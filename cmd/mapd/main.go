// Command mapd serves the roadkill density map API: it loads the removal
// log and the highway reference geometry at startup, then answers filtered
// density queries over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wildpath/roadkill-map/internal/adapter/csvfile"
	"github.com/wildpath/roadkill-map/internal/adapter/geojsonfile"
	httpadapter "github.com/wildpath/roadkill-map/internal/adapter/http"
	"github.com/wildpath/roadkill-map/internal/adapter/nominatim"
	"github.com/wildpath/roadkill-map/internal/config"
	"github.com/wildpath/roadkill-map/internal/domain"
	"github.com/wildpath/roadkill-map/internal/observability"
	"github.com/wildpath/roadkill-map/internal/pipeline"
)

func main() {
	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoding is feature-flagged; without it the map search endpoint is off.
	var geocoder domain.Geocoder
	if cfg.NominatimEnabled {
		client := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.NominatimTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.NominatimCacheSize, metrics)
		logger.Info("nominatim geocoding enabled", "url", cfg.NominatimURL, "cache_size", cfg.NominatimCacheSize)
	} else {
		logger.Info("nominatim geocoding disabled")
	}

	incidents := csvfile.NewLoader(cfg.IncidentCSVPath, cfg.IncidentCSVSkipRows, logger)
	geoLoader := geojsonfile.NewLoader(logger)

	var p *pipeline.Pipeline
	if cfg.PrecutMode() {
		segments := geojsonfile.NewSegmentSource(geoLoader, cfg.CutSegmentsPath)
		p = pipeline.NewPrecut(incidents, segments, logger, metrics)
	} else {
		reference := geojsonfile.NewReferenceSource(geoLoader, cfg.InterchangePath, cfg.RoutePath)
		p = pipeline.New(incidents, reference, cfg.DistanceThresholdM, logger, metrics)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, geocoder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failed load leaves the service up but not ready: healthz answers,
	// readyz reports the error, and the map renders empty until the data
	// files are fixed and the service restarted.
	if err := p.Load(ctx); err != nil {
		logger.Error("failed to load data sources, serving empty map", "error", err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
