package notify

import (
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/mail"
	"github.com/citywatch/alerts/services/subscriptions"
	"go.uber.org/fx"
)

func ProvideService(cfg *config.Config, issues IssueReader, store *subscriptions.Store, mailer *mail.Service, m *metrics.Metrics, logger *logging.Service) *Service {
	return NewService(issues, store, mailer, &cfg.Alerts, m, logger.Named("notify"))
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
