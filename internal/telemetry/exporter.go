// Package telemetry exports finish-commit metrics over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/workout"
)

const serviceName = "liftlog"

// Sink is a workout.Sink that can be shut down.
type Sink interface {
	workout.Sink
	Close(ctx context.Context) error
}

// Exporter records commit outcomes as OpenTelemetry metrics.
type Exporter struct {
	provider          *sdkmetric.MeterProvider
	log               *slog.Logger
	setsCommitted     metric.Int64Counter
	setFailures       metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	volumeHist        metric.Float64Histogram
	durationHist      metric.Int64Histogram
}

var _ Sink = (*Exporter)(nil)

// New returns an OTLP exporter when telemetry is enabled, and a NoOp sink otherwise.
func New(ctx context.Context, cfg config.TelemetryConfig, version string, log *slog.Logger) (Sink, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return NoOp{}, nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	e, err := NewExporter(provider, log)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// NewExporter creates the commit instruments on provider.
func NewExporter(provider *sdkmetric.MeterProvider, log *slog.Logger) (*Exporter, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	meter := provider.Meter(serviceName)

	setsCommitted, err := meter.Int64Counter(
		"liftlog_sets_committed_total",
		metric.WithDescription("Sets written to the backend at finish"),
		metric.WithUnit("{set}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sets counter: %w", err)
	}

	setFailures, err := meter.Int64Counter(
		"liftlog_set_commit_failures_total",
		metric.WithDescription("Set writes that failed at finish"),
		metric.WithUnit("{set}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating set failures counter: %w", err)
	}

	sessionsCompleted, err := meter.Int64Counter(
		"liftlog_sessions_completed_total",
		metric.WithDescription("Finished sessions by completion outcome"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	volumeHist, err := meter.Float64Histogram(
		"liftlog_session_volume",
		metric.WithDescription("Total volume per finished session"),
		metric.WithUnit("kg"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating volume histogram: %w", err)
	}

	durationHist, err := meter.Int64Histogram(
		"liftlog_session_duration_seconds",
		metric.WithDescription("Session duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Exporter{
		provider:          provider,
		log:               log,
		setsCommitted:     setsCommitted,
		setFailures:       setFailures,
		sessionsCompleted: sessionsCompleted,
		volumeHist:        volumeHist,
		durationHist:      durationHist,
	}, nil
}

// RecordCommit implements workout.Sink.
func (e *Exporter) RecordCommit(ctx context.Context, r workout.CommitReport) {
	outcome := "completed"
	switch {
	case r.SessionID == "":
		outcome = "no_session"
	case !r.SessionCompleted:
		outcome = "completion_failed"
	case len(r.SetErrors) > 0:
		outcome = "partial"
	}
	opt := metric.WithAttributes(attribute.String("outcome", outcome))

	e.setsCommitted.Add(ctx, int64(r.SetsCommitted))
	e.setFailures.Add(ctx, int64(len(r.SetErrors)))
	e.sessionsCompleted.Add(ctx, 1, opt)
	e.volumeHist.Record(ctx, r.Summary.TotalVolume, opt)
	e.durationHist.Record(ctx, int64(r.Summary.DurationSeconds), opt)

	e.log.Debug("commit metrics recorded", "outcome", outcome, "session_id", r.SessionID)
}

// Close shuts down the provider and flushes pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
