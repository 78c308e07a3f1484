package jwt

import (
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/fx"
)

func NewJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(&cfg.Auth, logger.Named("jwt"))
}

var Options = fx.Options(
	fx.Provide(NewJWTService),
	fx.Provide(func(s *Service) identity.Provider { return s }),
)
