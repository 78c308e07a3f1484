package verification

import (
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/mail"
	"github.com/citywatch/alerts/services/subscriptions"
	"go.uber.org/fx"
)

func ProvideService(cfg *config.Config, store *subscriptions.Store, mailer *mail.Service, m *metrics.Metrics, logger *logging.Service) *Service {
	return NewService(store, mailer, &cfg.Alerts, m, logger.Named("verification"))
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
