package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns an isolated Prometheus registry, the HTTP server exposing it
// and the collectors used by the chat and ingest paths.
type Metrics struct {
	Server   *http.Server
	Registry *prometheus.Registry

	serviceName string
	disabled    bool

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	ingestChunks  prometheus.Counter
	ingestRuns    *prometheus.CounterVec
}

// NewMetrics builds the registry, registers all collectors under the
// configured namespace and prepares (but does not start) the /metrics server.
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	wrappedRegistry := prometheus.WrapRegistererWith(prometheus.Labels{"service": cfg.ServiceName}, registry)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	m := &Metrics{
		Registry:    registry,
		serviceName: cfg.ServiceName,
		disabled:    cfg.Disabled,

		httpRequests: createCounterVec(cfg.Namespace, "http_requests_total",
			"Total HTTP requests by method, route and status code.",
			[]string{"method", "route", "status"}),
		httpDuration: createHistogramVec(cfg.Namespace, "http_request_duration_seconds",
			"HTTP request latency by method and route.",
			[]string{"method", "route"}, prometheus.DefBuckets),
		stageDuration: createHistogramVec(cfg.Namespace, "rag_stage_duration_seconds",
			"Latency of the embed, search and generate stages of a chat request.",
			[]string{"stage", "outcome"}, []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}),
		ingestChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "ingest_chunks_total",
			Help:      "Total chunks upserted into the vector store.",
		}),
		ingestRuns: createCounterVec(cfg.Namespace, "ingest_runs_total",
			"Ingest runs by terminal status.",
			[]string{"status"}),
	}

	wrappedRegistry.MustRegister(m.httpRequests, m.httpDuration, m.stageDuration, m.ingestChunks, m.ingestRuns)

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.Server = &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return m
}
