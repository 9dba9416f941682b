package tracer

// Config controls the OpenTelemetry tracer provider.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv is reported as deployment.environment, e.g. "production".
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport turns on the OTLP/HTTP exporter. The exporter reads its
	// endpoint and headers from the standard OTEL_EXPORTER_OTLP_* variables.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`
}
