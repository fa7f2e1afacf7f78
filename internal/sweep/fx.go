package sweep

import (
	"context"

	"github.com/smallbiznis/viptagger/internal/shopify"
	"go.uber.org/fx"
)

var Module = fx.Module("sweep",
	fx.Provide(ProvideConfig),
	fx.Provide(func(c *shopify.Client) CustomerPager { return c }),
	fx.Provide(New),
	fx.Invoke(RunSweeper),
)

func RunSweeper(lc fx.Lifecycle, sweeper *Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sweeper.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
