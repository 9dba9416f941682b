package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger defines the interface for logging operations in the tracer package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Tracer wraps an OpenTelemetry TracerProvider and offers helpers to start
// spans, record errors and move trace context across process boundaries
// (the ingest job queue carries it in message headers).
//
// Tracer is safe for concurrent use.
type Tracer struct {
	provider *trace.TracerProvider
	name     string
	logger   Logger
}

// NewClient creates the tracer provider and installs it as the global
// provider together with the W3C trace-context and baggage propagators.
//
// When cfg.EnableExport is set an OTLP/HTTP exporter is attached with a batch
// span processor. A failure to build the exporter is fatal.
//
// Example:
//
//	tr := tracer.NewClient(tracer.Config{ServiceName: "bookrag", AppEnv: "dev"}, log)
//	ctx, span := tr.StartSpan(ctx, "chat.embed")
//	defer span.End()
func NewClient(cfg Config, logger Logger) *Tracer {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
		if err != nil {
			logger.Fatal("cannot initiate tracer", err, nil)
			return nil
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	options = append(options, trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	)))

	tp := trace.NewTracerProvider(options...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Tracer{provider: tp, name: cfg.ServiceName, logger: logger}
}

// Shutdown flushes pending spans and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
