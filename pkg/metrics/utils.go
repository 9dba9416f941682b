package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// ObserveHTTPRequest records one finished HTTP request.
// route should be the matched route template, not the raw path, to keep
// label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStage records the latency of one chat stage ("embed", "search" or
// "generate"). A non-nil err is recorded with outcome "error".
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(elapsed.Seconds())
}

// AddIngestedChunks increments the upserted chunk counter.
func (m *Metrics) AddIngestedChunks(n int) {
	if n > 0 {
		m.ingestChunks.Add(float64(n))
	}
}

// IncIngestRun counts an ingest run that reached a terminal status.
func (m *Metrics) IncIngestRun(status string) {
	m.ingestRuns.WithLabelValues(status).Inc()
}
