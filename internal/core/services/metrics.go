package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// acquisitionMetrics records controller activity on the global meter. It is
// a no-op until telemetry installs a meter provider.
type acquisitionMetrics struct {
	acquisitions  metric.Int64Counter
	stale         metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

func newAcquisitionMetrics(logger *zap.Logger) *acquisitionMetrics {
	meter := otel.Meter("weather-now/acquisition")
	fallback := noop.NewMeterProvider().Meter("noop")

	acquisitions, err := meter.Int64Counter(
		"weather_acquisitions_total",
		metric.WithDescription("Settled acquisition requests by source and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Warn("failed to create acquisitions counter", zap.Error(err))
		acquisitions, _ = fallback.Int64Counter("weather_acquisitions_total")
	}

	stale, err := meter.Int64Counter(
		"weather_stale_responses_total",
		metric.WithDescription("Responses discarded because a newer request was issued"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Warn("failed to create stale counter", zap.Error(err))
		stale, _ = fallback.Int64Counter("weather_stale_responses_total")
	}

	fetchDuration, err := meter.Float64Histogram(
		"weather_fetch_duration_seconds",
		metric.WithDescription("Backend fetch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create fetch histogram", zap.Error(err))
		fetchDuration, _ = fallback.Float64Histogram("weather_fetch_duration_seconds")
	}

	return &acquisitionMetrics{
		acquisitions:  acquisitions,
		stale:         stale,
		fetchDuration: fetchDuration,
	}
}

func (m *acquisitionMetrics) observeOutcome(ctx context.Context, source Source, outcome string) {
	m.acquisitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", string(source)),
		attribute.String("outcome", outcome),
	))
}

func (m *acquisitionMetrics) observeStale(ctx context.Context, source Source) {
	m.stale.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(source))))
}

func (m *acquisitionMetrics) observeFetch(ctx context.Context, source Source, d time.Duration, err error) {
	m.fetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("source", string(source)),
		attribute.String("kind", string(domain.KindOf(err))),
	))
}
