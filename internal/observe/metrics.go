// Package observe records application metrics through the OpenTelemetry
// Metrics API and exposes them for Prometheus scraping.
//
// Tests should build Metrics with NewMetrics over a ManualReader-backed
// provider. Services accept a nil *Metrics and skip recording.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/heartmarshall/barcount-backend"

// Metrics holds the instruments used across the service.
type Metrics struct {
	// ParseOutcomes counts parsed transcripts by outcome.
	ParseOutcomes metric.Int64Counter

	// ParseDuration tracks the latency of one transcript parse.
	ParseDuration metric.Float64Histogram

	// MergeConflicts counts version conflicts hit while merging session items.
	MergeConflicts metric.Int64Counter

	// SessionsRewritten counts sessions rewritten by provisional reconciliation.
	SessionsRewritten metric.Int64Counter

	// HTTPRequestDuration tracks request latency by method and status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ParseOutcomes, err = m.Int64Counter("barcount.voice.parse.outcomes",
		metric.WithDescription("Parsed transcripts by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ParseDuration, err = m.Float64Histogram("barcount.voice.parse.duration",
		metric.WithDescription("Latency of a transcript parse."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MergeConflicts, err = m.Int64Counter("barcount.inventory.merge.conflicts",
		metric.WithDescription("Optimistic version conflicts while merging items."),
	); err != nil {
		return nil, err
	}
	if met.SessionsRewritten, err = m.Int64Counter("barcount.reconcile.sessions_rewritten",
		metric.WithDescription("Sessions rewritten by provisional reconciliation."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("barcount.http.request.duration",
		metric.WithDescription("HTTP request latency by method and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordParse counts one parse outcome and its latency.
func (m *Metrics) RecordParse(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.ParseOutcomes.Add(ctx, 1, attrs)
	m.ParseDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordMergeConflict counts one lost optimistic-concurrency race.
func (m *Metrics) RecordMergeConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.MergeConflicts.Add(ctx, 1)
}

// RecordReconcile counts the sessions rewritten by one reconciliation.
func (m *Metrics) RecordReconcile(ctx context.Context, rewritten int) {
	if m == nil || rewritten == 0 {
		return
	}
	m.SessionsRewritten.Add(ctx, int64(rewritten))
}
