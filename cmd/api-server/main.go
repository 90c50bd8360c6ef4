// Binary api-server runs the shop order API: storefront ordering and
// tracking plus the admin surface, over one HTTP listener.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	shop "github.com/MOHAMEDHAMED1S/alkandari-shop-core/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := shop.LoadConfig()
		if err != nil {
			return err
		}
		return shop.Run(ctx, lg, m, cfg)
	})
}
