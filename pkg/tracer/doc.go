// Package tracer provides distributed tracing on top of OpenTelemetry.
//
// The chat path opens one span per stage (embed, search, generate) and the
// ingest path opens one span per run. When runs are dispatched through the
// job queue, GetCarrier and SetCarrierOnContext move the trace context through
// the message headers so the worker's spans join the API request's trace.
//
// Basic Usage:
//
//	tr := tracer.NewClient(tracer.Config{
//		ServiceName:  "bookrag",
//		AppEnv:       "development",
//		EnableExport: true,
//	}, log)
//
//	ctx, span := tr.StartSpan(ctx, "ingest.run")
//	defer span.End()
//	tr.SetAttributes(span, map[string]interface{}{"run_id": id})
//	if err != nil {
//		tr.RecordErrorOnSpan(span, err)
//	}
//
// FX Module Integration:
//
//	app := fx.New(
//		fx.Supply(cfg.Tracer),
//		tracer.FXModule,
//	)
//
// Thread Safety:
//
// All methods are safe for concurrent use.
package tracer
