package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/roundtrip/logger"
)

// Verification outcomes recorded on roundtrip.verify.total.
const (
	OutcomeMatched    = "matched"
	OutcomeMismatched = "mismatched"
	OutcomeCorrupted  = "corrupted"
	OutcomeError      = "error"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
func InitMeter(ctx context.Context, cfg Config, info ServiceInfo) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(info)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", info.Name,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the harness instruments. A nil *Metrics records nothing.
type Metrics struct {
	publishDuration metric.Float64Histogram
	verifyTotal     metric.Int64Counter
	runFailures     metric.Int64Counter
}

// NewMetrics creates the harness instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	publishDuration, err := meter.Float64Histogram("roundtrip.publish.duration",
		metric.WithDescription("Time from send to broker acknowledgement"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating roundtrip.publish.duration histogram: %w", err)
	}

	verifyTotal, err := meter.Int64Counter("roundtrip.verify.total",
		metric.WithDescription("Verification passes by group and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating roundtrip.verify.total counter: %w", err)
	}

	runFailures, err := meter.Int64Counter("roundtrip.run.failures",
		metric.WithDescription("Run failures by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating roundtrip.run.failures counter: %w", err)
	}

	return &Metrics{
		publishDuration: publishDuration,
		verifyTotal:     verifyTotal,
		runFailures:     runFailures,
	}, nil
}

// RecordPublish records one publish attempt.
func (m *Metrics) RecordPublish(ctx context.Context, topic string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.publishDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("status", status),
	))
}

// RecordVerify counts one verification pass.
func (m *Metrics) RecordVerify(ctx context.Context, group, outcome string) {
	if m == nil {
		return
	}
	m.verifyTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("group", group),
		attribute.String("outcome", outcome),
	))
}

// RecordFailure counts a failed step by error code.
func (m *Metrics) RecordFailure(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.runFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
