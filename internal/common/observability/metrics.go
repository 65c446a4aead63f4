package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	matchCounter  otelmetric.Int64Counter
	matchDuration otelmetric.Float64Histogram
	tierCounter   otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	matchCounter, _ := meter.Int64Counter(
		"matches.processed",
		otelmetric.WithDescription("Number of matching requests processed"),
	)

	matchDuration, _ := meter.Float64Histogram(
		"matches.duration",
		otelmetric.WithDescription("Matching request duration"),
		otelmetric.WithUnit("ms"),
	)

	tierCounter, _ := meter.Int64Counter(
		"reasoning.tier.used",
		otelmetric.WithDescription("Reasoning tier that produced the final ranking"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		matchCounter:  matchCounter,
		matchDuration: matchDuration,
		tierCounter:   tierCounter,
	}
}

func (o *Observability) RecordMatchProcessed(ctx context.Context, status string) {
	if o.matchCounter != nil {
		o.matchCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordMatchDuration(ctx context.Context, duration time.Duration, status string) {
	if o.matchDuration != nil {
		o.matchDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordReasoningTier(ctx context.Context, tier string) {
	if o.tierCounter != nil {
		o.tierCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("tier", tier),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
