package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"janitor-hq/janitor/pkg/config"
)

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(&config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tr.Enabled() {
		t.Error("expected tracer to be disabled")
	}

	ctx, span := tr.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("expected no trace id from noop tracer")
	}
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestNew_InvalidSampler(t *testing.T) {
	_, err := New(&config.TracingConfig{Enabled: true, Sampler: "sometimes", Endpoint: "localhost:4317"}, "test")
	if err == nil {
		t.Fatal("expected error for unknown sampler")
	}
}

func TestNew_EnabledOTLP(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tr, err := New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		Endpoint:    "localhost:4317",
		ServiceName: "janitor-test",
		OTLP:        config.OTLPConfig{Insecure: true, Timeout: 100 * time.Millisecond},
	}, "test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !tr.Enabled() {
		t.Error("expected tracer to be enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tr.Shutdown(ctx)
}

func recordingTracer(t *testing.T, sampler string, ratio float64) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	s, err := createSampler(sampler, ratio)
	if err != nil {
		t.Fatalf("createSampler failed: %v", err)
	}
	exp := tracetest.NewInMemoryExporter()
	tr, err := newTracer(&config.TracingConfig{Enabled: true, ServiceName: "janitor-test"}, "test", s, sdktrace.WithSyncer(exp))
	if err != nil {
		t.Fatalf("newTracer failed: %v", err)
	}
	return tr, exp
}

func TestTracer_RecordsSpans(t *testing.T) {
	tr, exp := recordingTracer(t, SamplerAlways, 0)

	ctx, parent := tr.Start(context.Background(), "cleanup.run")
	if TraceID(ctx) == "" {
		t.Error("expected trace id in context")
	}

	// Global tracers share the provider.
	_, child := otel.Tracer("janitor/looker").Start(ctx, "looker.create_query")
	SetError(child, errors.New("boom"))
	child.End()
	SetError(parent, nil)
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "looker.create_query" || spans[0].Status.Code != codes.Error {
		t.Errorf("unexpected child span: %s %v", spans[0].Name, spans[0].Status)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("expected child to be parented to the run span")
	}
	if spans[1].Status.Code != codes.Ok {
		t.Errorf("expected OK status on parent, got %v", spans[1].Status)
	}
}

func TestTracer_NeverSampler(t *testing.T) {
	tr, exp := recordingTracer(t, SamplerNever, 0)

	_, span := tr.Start(context.Background(), "cleanup.run")
	span.End()

	if n := len(exp.GetSpans()); n != 0 {
		t.Errorf("expected no exported spans, got %d", n)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.5, false},
		{SamplerRatio, 1.5, true},
		{SamplerRatio, -0.1, true},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		_, err := createSampler(tt.strategy, tt.ratio)
		if (err != nil) != tt.wantErr {
			t.Errorf("createSampler(%q, %v): err=%v, wantErr=%v", tt.strategy, tt.ratio, err, tt.wantErr)
		}
	}
}

func TestHTTPMiddleware_JoinsCallerTrace(t *testing.T) {
	recordingTracer(t, SamplerAlways, 0)

	var got string
	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected caller trace id, got %q", got)
	}
	if rec.Header().Get("X-Trace-ID") != got {
		t.Errorf("expected X-Trace-ID header, got %q", rec.Header().Get("X-Trace-ID"))
	}
}

func TestInject(t *testing.T) {
	tr, _ := recordingTracer(t, SamplerAlways, 0)
	ctx, span := tr.Start(context.Background(), "cleanup.run")
	defer span.End()

	h := http.Header{}
	Inject(ctx, h)
	if h.Get("traceparent") == "" {
		t.Error("expected traceparent header")
	}
}
