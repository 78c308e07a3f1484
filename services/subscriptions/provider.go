package subscriptions

import (
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideStore(db *gorm.DB, logger *logging.Service) *Store {
	return NewStore(db, logger.Named("subscriptions"))
}

func ProvideService(store *Store, cfg *config.Config) *Service {
	return NewService(store, &cfg.Alerts)
}

var Module = fx.Options(
	fx.Provide(ProvideStore, ProvideService),
)
