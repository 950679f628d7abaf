package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"bookshelf/internal/config"
)

func resetGlobal(t *testing.T) {
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "example.com:4318", stripScheme("https://example.com:4318"))
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "localhost:4318", stripScheme(" localhost:4318 "))
}

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Meter("test"))
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestProviderCollectsMetrics(t *testing.T) {
	resetGlobal(t)
	reader := sdkmetric.NewManualReader()

	p, err := NewProvider(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "bookshelf-test",
	}, zap.NewNop(), WithReader(reader))
	require.NoError(t, err)
	require.True(t, p.Enabled())

	latency, err := p.Meter("bookshelf/catalog").Float64Histogram("bookshelf_catalog_latency")
	require.NoError(t, err)
	latency.Record(context.Background(), 42)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var found *metricdata.Histogram[float64]
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "bookshelf_catalog_latency" {
				h, ok := m.Data.(metricdata.Histogram[float64])
				require.True(t, ok)
				found = &h
			}
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.DataPoints, 1)
	assert.Equal(t, []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000}, found.DataPoints[0].Bounds)

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestProviderExportsToEndpoint(t *testing.T) {
	resetGlobal(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := NewProvider(context.Background(), config.TelemetryConfig{
		Enabled:         true,
		Endpoint:        srv.URL,
		Insecure:        true,
		IntervalSeconds: 60,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))
}
