package minio

import (
	"context"
	"sync"

	"go.uber.org/fx"
)

var FXModule = fx.Module("minio",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterLifecycle),
)

// RegisterLifecycle runs the connection monitor while the application is up.
func RegisterLifecycle(lc fx.Lifecycle, mi *Minio, logger Logger) {
	wg := &sync.WaitGroup{}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// the start context expires with the start timeout, so the
			// loops get their own
			ctx := context.Background()
			wg.Add(2)
			go func() {
				defer wg.Done()
				mi.monitorConnection(ctx)
			}()
			go func() {
				defer wg.Done()
				mi.retryConnection(ctx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing minio client...", nil, nil)
			mi.Close()
			wg.Wait()
			return nil
		},
	})
}
