package postgres

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
)

const healthCheckInterval = 10 * time.Second

var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgres,
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// RegisterPostgresLifecycle runs the health monitor and reconnect loops
// while the application is up and closes the pool on stop.
func RegisterPostgresLifecycle(lc fx.Lifecycle, pg *Postgres) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				pg.monitorConnection(loopCtx, healthCheckInterval)
			}()
			go func() {
				defer wg.Done()
				pg.retryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			err := pg.Close()
			wg.Wait()
			return err
		},
	})
}
