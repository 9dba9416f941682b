package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

func TestCarrierRoundTrip(t *testing.T) {
	tr := NewClient(Config{ServiceName: "bookrag-test", AppEnv: "test"}, nopLogger{})
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	ctx, span := tr.StartSpan(context.Background(), "publish")
	tr.SetAttributes(span, map[string]interface{}{"run_id": "abc", "attempt": 1, "extra": []int{1}})
	tr.RecordErrorOnSpan(span, errors.New("failed"))
	tr.RecordErrorOnSpan(span, nil)
	span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	restored := tr.SetCarrierOnContext(context.Background(), carrier)
	assert.Equal(t,
		trace.SpanContextFromContext(ctx).TraceID(),
		trace.SpanContextFromContext(restored).TraceID())
}

func TestShutdownNil(t *testing.T) {
	var tr *Tracer
	assert.NoError(t, tr.Shutdown(context.Background()))
}
