package metrics

// Default port for metrics server if none is specified.
const DefaultMetricsAddress = ":9090"

// Config defines the configuration structure for the Prometheus metrics server.
type Config struct {
	// Address determines the network address where the Prometheus
	// metrics HTTP server listens, e.g. ":9090" or "127.0.0.1:9100".
	// An empty address falls back to DefaultMetricsAddress.
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// Disabled keeps the collectors but never starts the HTTP server.
	// Useful for one-shot commands such as "bookrag ingest".
	Disabled bool `yaml:"disabled" envconfig:"METRICS_DISABLED"`

	// EnableDefaultCollectors registers the Go runtime and process collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes every metric name, e.g. "bookrag" turns
	// "http_requests_total" into "bookrag_http_requests_total".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName is attached to every metric as the "service" label.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}
