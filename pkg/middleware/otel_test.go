package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// recordingProvider keeps every span it starts.
type recordingProvider struct {
	noop.TracerProvider

	mu    sync.Mutex
	spans []*recordingSpan
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return &recordingTracer{provider: p}
}

type recordingTracer struct {
	noop.Tracer
	provider *recordingProvider
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordingSpan{name: name, kind: cfg.SpanKind()}
	span.attrs = append(span.attrs, cfg.Attributes()...)

	t.provider.mu.Lock()
	t.provider.spans = append(t.provider.spans, span)
	t.provider.mu.Unlock()

	return trace.ContextWithSpan(ctx, span), span
}

type recordingSpan struct {
	noop.Span

	name  string
	kind  trace.SpanKind
	attrs []attribute.KeyValue
	code  codes.Code
	ended bool
}

func (s *recordingSpan) SetName(name string) { s.name = name }
func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) { s.attrs = append(s.attrs, kv...) }
func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.code = code }
func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }
func (s *recordingSpan) IsRecording() bool { return !s.ended }

func (s *recordingSpan) attr(key attribute.Key) attribute.Value {
	for _, kv := range s.attrs {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func tracedRouter(opts ...TracingOption) (*chi.Mux, *recordingProvider) {
	tp := &recordingProvider{}
	r := chi.NewRouter()
	r.Use(Tracing(append([]TracingOption{WithTracerProvider(tp)}, opts...)...))
	return r, tp
}

func TestTracing_NamesSpanAfterPattern(t *testing.T) {
	r, tp := tracedRouter(WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	}))

	var inHandler trace.Span
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		inHandler = trace.SpanFromContext(r.Context())
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))

	if len(tp.spans) != 1 {
		t.Fatalf("spans=%d, want 1", len(tp.spans))
	}
	span := tp.spans[0]
	if span.name != "GET /users/{id}" {
		t.Errorf("span name=%q, want %q", span.name, "GET /users/{id}")
	}
	if span.kind != trace.SpanKindServer {
		t.Errorf("span kind=%v, want server", span.kind)
	}
	if !span.ended {
		t.Error("expected span to be ended")
	}
	if inHandler != trace.Span(span) {
		t.Error("expected the handler context to carry the request span")
	}
	if got := span.attr("http.route").AsString(); got != "/users/{id}" {
		t.Errorf("http.route=%q", got)
	}
	if got := span.attr("url.path").AsString(); got != "/users/42" {
		t.Errorf("url.path=%q", got)
	}
	if got := span.attr("http.response.status_code").AsInt64(); got != 200 {
		t.Errorf("status_code=%d, want 200", got)
	}
	if got := span.attr("test.attr").AsString(); got != "ok" {
		t.Errorf("test.attr=%q, want ok", got)
	}
	if span.code == codes.Error {
		t.Error("expected no error status for 200")
	}
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	r, tp := tracedRouter()
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Get("/missing-thing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing-thing", nil))

	if len(tp.spans) != 2 {
		t.Fatalf("spans=%d, want 2", len(tp.spans))
	}
	if tp.spans[0].code != codes.Error {
		t.Error("expected 502 to set error status")
	}
	if tp.spans[1].code == codes.Error {
		t.Error("expected 404 to leave status unset")
	}
}

func TestTracing_UnmatchedRoute(t *testing.T) {
	r, tp := tracedRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if len(tp.spans) != 1 {
		t.Fatalf("spans=%d, want 1", len(tp.spans))
	}
	if tp.spans[0].name != "GET "+UnmatchedRoute {
		t.Errorf("span name=%q", tp.spans[0].name)
	}
}

func TestTracing_FilterSkipsTracing(t *testing.T) {
	r, tp := tracedRouter(WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz"
	}))

	called := false
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		called = true
		if trace.SpanFromContext(r.Context()).IsRecording() {
			t.Error("expected no span when filter skips tracing")
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called {
		t.Fatal("expected next to be called")
	}
	if len(tp.spans) != 0 {
		t.Fatalf("spans=%d, want 0", len(tp.spans))
	}
}
