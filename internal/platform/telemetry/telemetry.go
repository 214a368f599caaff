// Package telemetry installs the OpenTelemetry trace and metric providers.
// Spans and metrics are exported to a writer (stdout in production) so a
// collector can scrape the process output.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/phrazzld/agentdesk/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops every provider Setup installed.
type ShutdownFunc func(ctx context.Context) error

// Option customizes Setup.
type Option func(*options)

type options struct {
	out            io.Writer
	metricInterval time.Duration
}

// WithWriter sends exported spans and metrics to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithMetricInterval overrides how often metrics are exported.
func WithMetricInterval(d time.Duration) Option {
	return func(o *options) { o.metricInterval = d }
}

// Setup installs global tracer and meter providers when cfg.Enabled. When
// disabled it installs nothing and returns a no-op ShutdownFunc, leaving the
// otel no-op globals in place.
func Setup(ctx context.Context, cfg config.TelemetryConfig, opts ...Option) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	o := options{out: os.Stdout, metricInterval: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var err error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			err = errors.Join(err, shutdowns[i](ctx))
		}
		shutdowns = nil
		return err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(o.out))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdowns = append(shutdowns, tp.Shutdown)
	otel.SetTracerProvider(tp)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(o.out))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create metric exporter: %w", err), shutdown(ctx))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(o.metricInterval))),
		sdkmetric.WithResource(res),
	)
	shutdowns = append(shutdowns, mp.Shutdown)
	otel.SetMeterProvider(mp)

	return shutdown, nil
}
