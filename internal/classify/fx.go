package classify

import (
	"github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/classify/service"
	"github.com/smallbiznis/viptagger/internal/shopify"
	"go.uber.org/fx"
)

var Module = fx.Module("classify.engine",
	fx.Provide(func(c *shopify.Client) domain.Platform { return c }),
	fx.Provide(service.New),
)
