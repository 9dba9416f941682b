package logger

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(enableTracing bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{Zap: zap.New(core), enableTracing: enableTracing}, logs
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		Debug:     zapcore.DebugLevel,
		Info:      zapcore.InfoLevel,
		Warning:   zapcore.WarnLevel,
		Error:     zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFieldsAndError(t *testing.T) {
	log, logs := newObserved(false)
	log.Error("boom", errors.New("bad"), map[string]interface{}{"collection": "book_content"})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["error"] != "bad" {
		t.Errorf("error field = %v", ctx["error"])
	}
	if ctx["collection"] != "book_content" {
		t.Errorf("collection field = %v", ctx["collection"])
	}
}

func TestTraceFields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log, logs := newObserved(true)
	log.InfoWithContext(ctx, "traced", nil)
	fields := logs.All()[0].ContextMap()
	if fields["trace_id"] != traceID.String() || fields["span_id"] != spanID.String() {
		t.Errorf("unexpected trace fields: %v", fields)
	}

	plain, plainLogs := newObserved(false)
	plain.InfoWithContext(ctx, "untraced", nil)
	if _, ok := plainLogs.All()[0].ContextMap()["trace_id"]; ok {
		t.Error("trace_id must not be set when tracing is disabled")
	}
}
