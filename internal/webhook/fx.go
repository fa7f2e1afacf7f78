package webhook

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("webhook",
	fx.Provide(
		NewVerifier,
		NewExecutor,
		NewDispatcher,
	),
	fx.Invoke(registerExecutorLifecycle),
)

func registerExecutorLifecycle(lc fx.Lifecycle, log *zap.Logger, executor *Executor) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("draining webhook executor")
			return executor.Stop(ctx)
		},
	})
}
