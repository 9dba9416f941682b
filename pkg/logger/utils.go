package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// convertToZapFields turns the error and the field maps accepted by every
// logging method into zap fields. Later maps win on duplicate keys because
// zap keeps the last occurrence when encoding JSON.
func (l *Logger) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			zapFields = append(zapFields, zap.Any(key, value))
		}
	}
	return zapFields
}

// traceFields returns trace_id and span_id for the span carried by ctx.
// It returns nil when tracing is disabled or ctx has no valid span.
func (l *Logger) traceFields(ctx context.Context) map[string]interface{} {
	if !l.enableTracing || ctx == nil {
		return nil
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return nil
	}
	return map[string]interface{}{
		"trace_id": spanCtx.TraceID().String(),
		"span_id":  spanCtx.SpanID().String(),
	}
}

// Info logs an informational message, along with an optional error and structured fields.
//
// Example:
//
//	logger.Info("ingest run finished", nil, map[string]interface{}{
//	    "run_id": runID,
//	    "chunks": 412,
//	})
func (l *Logger) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Debug logs a debug-level message. Debug entries are dropped unless the
// configured level is "debug".
func (l *Logger) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs a warning message for situations that are not failures but may
// need attention, such as an ingest run that found no markdown files.
func (l *Logger) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs an error message, including details of the error and additional context fields.
//
// Example:
//
//	if err != nil {
//	    logger.Error("vector search failed", err, map[string]interface{}{
//	        "collection": "book_content",
//	    })
//	}
func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// Fatal logs a critical error message and terminates the application with os.Exit(1).
// Use it only during startup, when a required dependency cannot be reached.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Fatal(msg, l.convertToZapFields(err, fields...)...)
}

// InfoWithContext behaves like Info and adds trace correlation fields from ctx.
func (l *Logger) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}

// DebugWithContext behaves like Debug and adds trace correlation fields from ctx.
func (l *Logger) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}

// WarnWithContext behaves like Warn and adds trace correlation fields from ctx.
func (l *Logger) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}

// ErrorWithContext behaves like Error and adds trace correlation fields from ctx.
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, append(fields, l.traceFields(ctx))...)...)
}
