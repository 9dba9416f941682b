package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	m := NewMetrics(Config{Namespace: "bookrag", ServiceName: "test"})

	m.ObserveHTTPRequest("POST", "/chat", 200, 20*time.Millisecond)
	m.ObserveStage("embed", time.Millisecond, nil)
	m.ObserveStage("generate", time.Second, errors.New("timeout"))
	m.AddIngestedChunks(3)
	m.AddIngestedChunks(0)
	m.IncIngestRun("succeeded")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/chat", "200")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ingestChunks))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ingestRuns.WithLabelValues("succeeded")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
		for _, metric := range f.GetMetric() {
			var service string
			for _, l := range metric.GetLabel() {
				if l.GetName() == "service" {
					service = l.GetValue()
				}
			}
			assert.Equal(t, "test", service, "metric %s is missing the service label", f.GetName())
		}
	}
	assert.True(t, names["bookrag_http_requests_total"])
	assert.True(t, names["bookrag_rag_stage_duration_seconds"])
}

func TestDefaultAddress(t *testing.T) {
	m := NewMetrics(Config{})
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
}
