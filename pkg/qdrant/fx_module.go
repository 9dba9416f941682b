package qdrant

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides a connected *Client and closes it on shutdown.
// A qdrant.Config and a qdrant.Logger must be available in the container.
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// RegisterQdrantLifecycle closes the gRPC connection when the application stops.
func RegisterQdrantLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.logger.Info("[Qdrant] closing client connection", nil, nil)
			return client.Close()
		},
	})
}
