package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewContext(t *testing.T) {
	tc := New()
	if len(tc.TraceID) != 32 {
		t.Errorf("trace ID should be 32 chars, got %d", len(tc.TraceID))
	}
	if len(tc.SpanID) != 16 {
		t.Errorf("span ID should be 16 chars, got %d", len(tc.SpanID))
	}
	if tc.ParentSpanID != "" {
		t.Error("new context should not have parent span ID")
	}
}

func TestIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New().TraceID
		if seen[id] {
			t.Fatal("generated duplicate trace ID")
		}
		seen[id] = true
	}
}

func TestNewChild(t *testing.T) {
	parent := New()
	child := NewChild(parent)

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.SpanID == parent.SpanID {
		t.Error("child should have new span ID")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child's parent should be parent's span ID")
	}
}

func TestEnsureContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context should carry no trace")
	}

	ctx, tc := EnsureContext(context.Background())
	if len(tc.TraceID) != 32 {
		t.Error("should create trace ID")
	}
	if _, tc2 := EnsureContext(ctx); tc2 != tc {
		t.Error("should return existing trace")
	}
}

func TestMapRoundTrip(t *testing.T) {
	caller := Context{TraceID: "trace123", SpanID: "span456", ParentSpanID: "parent789"}
	m := caller.ToMap()
	if m[ParentSpanIDKey] != "parent789" {
		t.Error("parent span ID not exported")
	}

	local := FromMap(m)
	if local.TraceID != "trace123" {
		t.Error("trace ID mismatch")
	}
	if local.ParentSpanID != "span456" {
		t.Error("caller's span should become the parent")
	}
	if len(local.SpanID) != 16 {
		t.Error("should generate new span ID")
	}

	if len(FromMap(nil).TraceID) != 32 {
		t.Error("should generate trace ID if missing")
	}
}

func TestStartSpan(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "tick")
	_, child := StartSpan(ctx, "notify")

	if child.Ctx.TraceID != parent.Ctx.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.Ctx.ParentSpanID != parent.Ctx.SpanID {
		t.Error("child's parent should be parent's span")
	}

	if parent.Duration() != 0 {
		t.Error("open span should report zero duration")
	}
	parent.SetAttr("change_percent", 12.5)
	parent.End()
	if parent.EndTime.IsZero() || parent.Duration() < 0 {
		t.Error("span should have end time")
	}
	if parent.Attrs["change_percent"] != 12.5 {
		t.Error("span attribute mismatch")
	}
	if parent.LogValue().Kind().String() != "Group" {
		t.Error("LogValue should be a group")
	}
}

func TestLogger(t *testing.T) {
	ctx := WithContext(context.Background(), NewChild(New()))
	Logger(ctx).Info("test message")
	Logger(context.Background()).Info("no trace")
}

func TestMiddleware(t *testing.T) {
	var got Context
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/status", http.NoBody)
	req.Header.Set(TraceIDKey, "abc")
	req.Header.Set(SpanIDKey, "def")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got.TraceID != "abc" || got.ParentSpanID != "def" {
		t.Errorf("context = %+v", got)
	}
	if rec.Header().Get(TraceIDKey) != "abc" {
		t.Error("trace id not echoed")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", http.NoBody))
	if len(rec.Header().Get(TraceIDKey)) != 32 {
		t.Error("a trace should be started when none is sent")
	}
}

func TestExtractFromJSON(t *testing.T) {
	tc, ok := ExtractFromJSON([]byte(`{"type":"stop","trace_id":"t-1"}`))
	if !ok || tc.TraceID != "t-1" {
		t.Errorf("ExtractFromJSON = %+v, %v", tc, ok)
	}
	if _, ok := ExtractFromJSON([]byte(`{"type":"stop"}`)); ok {
		t.Error("missing trace_id should report false")
	}
	if _, ok := ExtractFromJSON([]byte(`not json`)); ok {
		t.Error("bad json should report false")
	}
}
