package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// DefaultServiceName is attached to every entry when Config.ServiceName is empty.
const DefaultServiceName = "bookrag"

type Config struct {
	// 1. production -> INFO
	// 2. development -> DEBUG
	// else -> INFO
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// ServiceName is written as the "service" field of every entry.
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME"`

	// EnableTracing adds trace_id and span_id to entries written through the
	// *WithContext methods when the context carries an active span.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`
}
