package push

import (
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger.Named("push"))
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
