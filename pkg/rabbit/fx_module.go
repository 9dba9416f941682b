package rabbit

import (
	"context"
	"sync"

	"go.uber.org/fx"
)

var FXModule = fx.Module("rabbit",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterRabbitLifecycle),
)

// RegisterRabbitLifecycle runs the reconnect loop for the lifetime of the
// application and closes the connection on stop.
func RegisterRabbitLifecycle(lc fx.Lifecycle, client *Rabbit) {
	wg := &sync.WaitGroup{}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				client.retryConnection()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			client.gracefulShutdown()
			wg.Wait()
			return nil
		},
	})
}
