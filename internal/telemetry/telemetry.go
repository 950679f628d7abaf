// Package telemetry installs the OpenTelemetry meter provider that the
// catalog client and the browsing sessions report to.
package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.uber.org/zap"

	"bookshelf/internal/config"
)

const serviceVersion = "1.0.0"

// Provider manages the meter provider (metrics only).
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	shutdownAfter time.Duration
	logger        *zap.Logger
}

// Option customizes NewProvider.
type Option func(*options)

type options struct {
	reader sdkmetric.Reader
}

// WithReader replaces the OTLP exporter with the given reader.
func WithReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.reader = r }
}

// NewProvider initializes metrics and installs them globally. A disabled
// configuration leaves the global no-op provider in place.
func NewProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger, opts ...Option) (*Provider, error) {
	p := &Provider{
		shutdownAfter: time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second,
		logger:        logger.Named("telemetry"),
	}
	if p.shutdownAfter <= 0 {
		p.shutdownAfter = 5 * time.Second
	}
	if !cfg.Enabled {
		p.logger.Debug("telemetry disabled")
		return p, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	reader := o.reader
	if reader == nil {
		reader, err = newPeriodicReader(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(histogramViews()...),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.logger.Info("telemetry enabled",
		zap.String("endpoint", cfg.Endpoint),
		zap.Int("intervalSeconds", cfg.IntervalSeconds),
	)
	return p, nil
}

// Enabled reports whether metrics are exported.
func (p *Provider) Enabled() bool { return p.meterProvider != nil }

// Meter returns a meter with the given name.
func (p *Provider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meterProvider == nil {
		return otel.Meter(name, opts...)
	}
	return p.meterProvider.Meter(name, opts...)
}

// Shutdown flushes pending metrics and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.shutdownAfter)
	defer cancel()
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter: %w", err)
	}
	return nil
}

func newResource(ctx context.Context, cfg config.TelemetryConfig) (*resource.Resource, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "bookshelf"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}
	return res, nil
}

func newPeriodicReader(ctx context.Context, cfg config.TelemetryConfig) (sdkmetric.Reader, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(stripScheme(cfg.Endpoint)),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

// histogramViews sets buckets for catalog latency: 10ms to 15s, the client
// timeout.
func histogramViews() []sdkmetric.View {
	return []sdkmetric.View{
		sdkmetric.NewView(
			sdkmetric.Instrument{
				Name: "bookshelf_catalog_latency",
				Kind: sdkmetric.InstrumentKindHistogram,
			},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
				},
			},
		),
	}
}

func stripScheme(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(endpoint, scheme) {
			return strings.TrimPrefix(endpoint, scheme)
		}
	}
	return endpoint
}
