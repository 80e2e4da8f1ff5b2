package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "spellforge"

// Metrics holds all SpellForge metric instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	Mutations       metric.Int64Counter
	CompileDuration metric.Float64Histogram
	SessionsCreated metric.Int64Counter
	SessionsEvicted metric.Int64Counter
	PreviewLookups  metric.Int64Counter
}

// NewMetrics creates all metric instruments on mp, or on the global meter
// provider when mp is nil.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Mutations, err = meter.Int64Counter("spellforge.session.mutations",
		metric.WithDescription("Number of applied session mutations"))
	if err != nil {
		return nil, err
	}

	m.CompileDuration, err = meter.Float64Histogram("spellforge.compile.duration_seconds",
		metric.WithDescription("Prompt compile duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.SessionsCreated, err = meter.Int64Counter("spellforge.sessions.created",
		metric.WithDescription("Number of sessions created"))
	if err != nil {
		return nil, err
	}

	m.SessionsEvicted, err = meter.Int64Counter("spellforge.sessions.evicted",
		metric.WithDescription("Number of idle sessions evicted"))
	if err != nil {
		return nil, err
	}

	m.PreviewLookups, err = meter.Int64Counter("spellforge.preset.preview_lookups",
		metric.WithDescription("Preset preview lookups by cache outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordMutation counts one applied mutation and the compile time it took.
func (m *Metrics) RecordMutation(ctx context.Context, op string, compile time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.Mutations.Add(ctx, 1, attrs)
	m.CompileDuration.Record(ctx, compile.Seconds(), attrs)
}

// RecordSessionCreated counts a new session.
func (m *Metrics) RecordSessionCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.SessionsCreated.Add(ctx, 1)
}

// RecordSessionsEvicted counts sessions removed by the idle janitor.
func (m *Metrics) RecordSessionsEvicted(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SessionsEvicted.Add(ctx, int64(n))
}

// RecordPreviewLookup counts a preset preview lookup.
func (m *Metrics) RecordPreviewLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	m.PreviewLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cache.hit", hit)))
}
