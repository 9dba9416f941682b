package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around Uber's Zap logger.
type Logger struct {
	Zap           *zap.Logger
	enableTracing bool
}

// NewLoggerClient initializes and returns a new instance of the logger based on configuration.
func NewLoggerClient(cfg Config) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Sampling:          nil,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths: []string{
			"stderr",
		},
		ErrorOutputPaths: []string{
			"stderr",
		},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": serviceName,
		},
	}

	logger, err := config.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}

	return &Logger{Zap: logger, enableTracing: cfg.EnableTracing}
}

// NewNop returns a Logger that discards everything. Intended for tests.
func NewNop() *Logger {
	return &Logger{Zap: zap.NewNop()}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
