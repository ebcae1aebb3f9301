// Package logging wires triage's structured logs, metrics and traces to
// OpenTelemetry. Package-level instruments resolve through the global
// providers, so they are no-ops until SetupOTelSDK installs real ones.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/abatilo/triage"

var (
	meter  = otel.Meter(instrumentationName)
	logger = otelslog.NewLogger(instrumentationName)
	tracer = otel.Tracer(instrumentationName)
)

// Logger returns the slog logger bridged to the OpenTelemetry log pipeline.
func Logger() *slog.Logger {
	return logger
}

// Tracer returns the triage tracer.
func Tracer() trace.Tracer {
	return tracer
}

// Log writes one record at level.
func Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	logger.Log(ctx, level, msg, args...)
}

// SetupOTelSDK installs log, metric and trace providers that export to w and
// registers them globally. The returned function flushes and shuts all of
// them down; call it once before exiting.
func SetupOTelSDK(ctx context.Context, w io.Writer) (func(context.Context) error, error) {
	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}
	fail := func(err error) (func(context.Context) error, error) {
		return nil, errors.Join(err, shutdown(ctx))
	}

	res := resource.NewSchemaless(attribute.String("service.name", "triage"))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return fail(err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return fail(err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(time.Minute))),
		sdkmetric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	otel.SetMeterProvider(meterProvider)

	logExporter, err := stdoutlog.New(stdoutlog.WithWriter(w))
	if err != nil {
		return fail(err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	return shutdown, nil
}

// Metrics records analysis counters and latency.
type Metrics struct {
	analyses metric.Int64Counter
	warnings metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the triage instruments.
func NewMetrics() (*Metrics, error) {
	analyses, err := meter.Int64Counter("triage.analyses",
		metric.WithDescription("Number of task batches analyzed"),
		metric.WithUnit("{analysis}"))
	if err != nil {
		Log(context.Background(), slog.LevelError, "failed to create metric", "name", "triage.analyses", "error", err)
		return nil, err
	}
	warnings, err := meter.Int64Counter("triage.warnings",
		metric.WithDescription("Number of warnings emitted while analyzing"),
		metric.WithUnit("{warning}"))
	if err != nil {
		Log(context.Background(), slog.LevelError, "failed to create metric", "name", "triage.warnings", "error", err)
		return nil, err
	}
	duration, err := meter.Float64Histogram("triage.analysis.duration",
		metric.WithDescription("Time spent analyzing one batch"),
		metric.WithUnit("ms"))
	if err != nil {
		Log(context.Background(), slog.LevelError, "failed to create metric", "name", "triage.analysis.duration", "error", err)
		return nil, err
	}
	return &Metrics{analyses: analyses, warnings: warnings, duration: duration}, nil
}

// RecordAnalysis records one completed analysis.
func (m *Metrics) RecordAnalysis(ctx context.Context, strategy string, warnings int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.analyses.Add(ctx, 1, attrs)
	m.warnings.Add(ctx, int64(warnings), attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
