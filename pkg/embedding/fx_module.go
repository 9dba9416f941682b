package embedding

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides an embedding *Client built from a Config found in the
// container and releases its connections on shutdown.
var FXModule = fx.Module(
	"embedding",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterEmbeddingLifecycle),
)

func RegisterEmbeddingLifecycle(lc fx.Lifecycle, c *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
}
