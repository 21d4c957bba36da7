package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/epicenter-locator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/epicenter-locator/internal/adapter/kafka"
	"github.com/couchcryptid/epicenter-locator/internal/adapter/mapbox"
	"github.com/couchcryptid/epicenter-locator/internal/adapter/s3archive"
	"github.com/couchcryptid/epicenter-locator/internal/config"
	"github.com/couchcryptid/epicenter-locator/internal/domain"
	"github.com/couchcryptid/epicenter-locator/internal/observability"
	"github.com/couchcryptid/epicenter-locator/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocode cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Report archiving is optional (ARCHIVE_BUCKET).
	var archiver pipeline.Archiver
	if cfg.ArchiveBucket != "" {
		a, err := s3archive.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to create report archive", "error", err)
			os.Exit(1)
		}
		archiver = a
		logger.Info("report archive enabled", "bucket", cfg.ArchiveBucket, "prefix", cfg.ArchivePrefix)
	}

	logger.Info("velocity model",
		"vs", cfg.Model.VS,
		"vp", cfg.Model.VP,
		"vsp", cfg.Model.Vsp(),
		"energy_method", cfg.Model.EnergyMethod,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	locator := pipeline.NewLocator(cfg.Model, geocoder, archiver, metrics, logger)

	p := pipeline.New(reader, locator, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, locator, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start solve pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// Let the in-flight batch finish committing before the reader closes.
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
