package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/epicenter-locator/internal/domain"
	"github.com/couchcryptid/epicenter-locator/internal/observability"
	"github.com/couchcryptid/epicenter-locator/internal/seismic"
)

// Archiver persists finished reports outside Kafka.
type Archiver interface {
	Archive(ctx context.Context, report domain.EpicenterReport) error
}

// Locator solves epicenters for both the Kafka pipeline and the HTTP API.
// It implements Transformer.
type Locator struct {
	model    seismic.Model
	geocoder domain.Geocoder
	archiver Archiver
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewLocator creates a Locator. A nil geocoder disables address resolution
// and reverse geocoding; a nil archiver disables archiving.
func NewLocator(model seismic.Model, geocoder domain.Geocoder, archiver Archiver, metrics *observability.Metrics, logger *slog.Logger) *Locator {
	return &Locator{
		model:    model,
		geocoder: geocoder,
		archiver: archiver,
		metrics:  metrics,
		logger:   logger,
	}
}

// Transform parses a solve request from the source topic and serializes the
// resulting report for the sink topic.
func (l *Locator) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseSolveRequest(raw)
	if err != nil {
		l.metrics.SolveErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
		return domain.OutputEvent{}, err
	}

	report, err := l.Solve(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	return domain.SerializeReport(report)
}

// Solve resolves station locations, locates the epicenter, and enriches and
// archives the report. Enrichment and archive failures never fail a solve.
func (l *Locator) Solve(ctx context.Context, req domain.SolveRequest) (domain.EpicenterReport, error) {
	start := time.Now()

	resolved, err := domain.ResolveStations(ctx, req, l.geocoder, l.logger)
	if err != nil {
		return domain.EpicenterReport{}, l.fail(req, err)
	}

	report, err := domain.Locate(resolved, l.model)
	if err != nil {
		return domain.EpicenterReport{}, l.fail(req, err)
	}
	report = domain.EnrichWithGeocoding(ctx, report, l.geocoder, l.logger)

	l.metrics.SolveDuration.Observe(time.Since(start).Seconds())
	l.metrics.EpicenterMagnitude.Observe(report.MaxMagnitude)
	l.logger.Debug("epicenter located",
		"request_id", report.ID,
		"lat", report.Epicenter.Lat,
		"lon", report.Epicenter.Lon,
		"max_magnitude", report.MaxMagnitude,
		"place", report.PlaceName,
	)

	l.archive(ctx, report)
	return report, nil
}

func (l *Locator) fail(req domain.SolveRequest, err error) error {
	l.metrics.SolveErrors.WithLabelValues(domain.ErrorKind(err)).Inc()
	l.logger.Debug("solve rejected", "request_id", req.ID, "kind", domain.ErrorKind(err), "error", err)
	return err
}

func (l *Locator) archive(ctx context.Context, report domain.EpicenterReport) {
	if l.archiver == nil {
		return
	}
	if err := l.archiver.Archive(ctx, report); err != nil {
		l.metrics.ReportsArchived.WithLabelValues("error").Inc()
		l.logger.Warn("archive report failed", "request_id", report.ID, "error", err)
		return
	}
	l.metrics.ReportsArchived.WithLabelValues("success").Inc()
}
