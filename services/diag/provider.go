package diag

import (
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/services/subscriptions"
	"go.uber.org/fx"
)

func ProvideService(cfg *config.Config, store *subscriptions.Store) *Service {
	return NewService(cfg, store)
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
