package database

import (
	"context"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Options(
	fx.Provide(ProvideDatabaseFx),
)

func ProvideDatabaseFx(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) (*gorm.DB, error) {
	db, err := ProvideDatabase(cfg.Database, WithModels(models.All()...), logger.Named("database"))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}
