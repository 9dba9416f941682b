// Package logger provides structured logging on top of Uber's zap.
//
// Entries are JSON encoded with an ISO8601 "timestamp" key and carry the
// process id and the service name as initial fields. Every other package in
// this module declares its own narrow Logger interface which *Logger
// satisfies, so packages never import zap directly.
//
// Basic Usage:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info})
//	log.Info("server started", nil, map[string]interface{}{"addr": ":8000"})
//	log.Error("qdrant search failed", err, nil)
//
// Context-aware methods add trace_id and span_id when EnableTracing is set
// and the context carries an active OpenTelemetry span:
//
//	log.ErrorWithContext(ctx, "chat failed", err, nil)
//
// FX Module Integration:
//
//	app := fx.New(
//		fx.Supply(cfg.Logger),
//		logger.FXModule,
//	)
//
// Configuration:
//
//	ZAP_LOGGER_LEVEL=debug          # debug, info, warning, error
//	LOGGER_SERVICE_NAME=bookrag     # value of the "service" field
//	LOGGER_ENABLE_TRACING=true      # add trace ids in *WithContext methods
//
// Thread Safety:
//
// All methods are safe for concurrent use by multiple goroutines.
package logger
