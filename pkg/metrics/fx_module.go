package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
)

// Logger is the subset of logging used by the metrics server lifecycle.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle starts the /metrics server on application start
// and shuts it down gracefully on stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, logger Logger) {
	if m.disabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("starting metrics server", nil, map[string]interface{}{"address": m.Server.Addr})
				if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server stopped unexpectedly", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.Server.Shutdown(ctx)
		},
	})
}
