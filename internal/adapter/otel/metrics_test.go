package otel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Strob0t/SpellForge/internal/config"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_RecordMutation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordMutation(ctx, "append", time.Millisecond)
	m.RecordMutation(ctx, "append", time.Millisecond)
	m.RecordMutation(ctx, "delete", time.Millisecond)

	got := collect(t, reader)
	sum, ok := got["spellforge.session.mutations"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("mutations metric missing or wrong type: %+v", got["spellforge.session.mutations"])
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Fatalf("expected 3 mutations, got %d", total)
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("expected one data point per op, got %d", len(sum.DataPoints))
	}
	if _, ok := got["spellforge.compile.duration_seconds"].Data.(metricdata.Histogram[float64]); !ok {
		t.Fatal("compile duration histogram missing")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordMutation(ctx, "x", time.Second)
	m.RecordSessionCreated(ctx)
	m.RecordSessionsEvicted(ctx, 2)
	m.RecordPreviewLookup(ctx, true)
}

func TestNewMetrics_GlobalProvider(t *testing.T) {
	if _, err := NewMetrics(nil); err != nil {
		t.Fatalf("NewMetrics(nil): %v", err)
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.OTEL{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestHTTPMiddleware_PassesThrough(t *testing.T) {
	h := HTTPMiddleware("spellforge-test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/seed", http.NoBody))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
}

func TestStartSpans(t *testing.T) {
	ctx := context.Background()
	_, s1 := StartMutationSpan(ctx, "sess", "move")
	s1.End()
	_, s2 := StartCompileSpan(ctx, 3, "braces")
	s2.End()
	_, s3 := StartPresetLoadSpan(ctx, "sess", "quality")
	s3.End()
}
