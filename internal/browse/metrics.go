package browse

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type sessionMetrics struct {
	loads    metric.Int64Counter
	sessions metric.Int64UpDownCounter
}

var (
	metricsOnce   sync.Once
	sharedMetrics *sessionMetrics
)

// defaultSessionMetrics returns instruments shared by every session. They are
// created on first use so that a meter provider installed at startup is picked
// up.
func defaultSessionMetrics() *sessionMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("bookshelf/browse")
		m := &sessionMetrics{}

		var err error
		m.loads, err = meter.Int64Counter("bookshelf_sessions_loads",
			metric.WithDescription("Session loads committed, by mode and outcome"),
			metric.WithUnit("{load}"))
		if err != nil {
			m.loads = noop.Int64Counter{}
		}

		m.sessions, err = meter.Int64UpDownCounter("bookshelf_sessions_active",
			metric.WithDescription("Browsing sessions held in memory"),
			metric.WithUnit("{session}"))
		if err != nil {
			m.sessions = noop.Int64UpDownCounter{}
		}
		sharedMetrics = m
	})
	return sharedMetrics
}

func (m *sessionMetrics) load(ctx context.Context, search bool, status Status) {
	mode := "category"
	if search {
		mode = "search"
	}
	m.loads.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status.String()),
	))
}

func (m *sessionMetrics) sessionDelta(n int64) {
	m.sessions.Add(context.Background(), n)
}
