package catalog

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type clientMetrics struct {
	requests metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

func newClientMetrics() *clientMetrics {
	meter := otel.Meter("bookshelf/catalog")
	m := &clientMetrics{}

	var err error
	m.requests, err = meter.Int64Counter("bookshelf_catalog_requests",
		metric.WithDescription("Catalog API requests issued"),
		metric.WithUnit("{request}"))
	if err != nil {
		m.requests = noop.Int64Counter{}
	}

	m.failures, err = meter.Int64Counter("bookshelf_catalog_failures",
		metric.WithDescription("Catalog API requests that failed and were served as empty"),
		metric.WithUnit("{request}"))
	if err != nil {
		m.failures = noop.Int64Counter{}
	}

	m.latency, err = meter.Float64Histogram("bookshelf_catalog_latency",
		metric.WithDescription("Catalog API request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		m.latency = noop.Float64Histogram{}
	}
	return m
}

func (m *clientMetrics) record(ctx context.Context, endpoint string, elapsed time.Duration, err error) {
	// Record even when the request context is already cancelled.
	ctx = context.WithoutCancel(ctx)
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if err != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("reason", failureReason(err)),
		))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUpstream):
		return "status"
	case errors.Is(err, errDecode):
		return "decode"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	default:
		return "transport"
	}
}
