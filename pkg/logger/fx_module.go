package logger

import (
	"context"
	"errors"
	"syscall"

	"go.uber.org/fx"
)

// FXModule defines the Fx module for the logger package.
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle handles cleanup (sync) of the Zap logger.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// stderr cannot be synced on some platforms
			if err := client.Zap.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
				return err
			}
			return nil
		},
	})
}
