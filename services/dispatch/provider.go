package dispatch

import (
	"context"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/notify"
	"go.uber.org/fx"
)

func ProvideAsyncDispatcher(lc fx.Lifecycle, cfg *config.Config, m *metrics.Metrics, logger *logging.Service) *AsyncDispatcher {
	d := NewAsyncDispatcher(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, cfg.Dispatch.TaskTimeout, m, logger.Named("dispatch"))
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.Start()
			return nil
		},
		OnStop: d.Stop,
	})
	return d
}

func ProvideTrigger(d Dispatcher, notifier *notify.Service) *Trigger {
	return NewTrigger(d, notifier)
}

var Module = fx.Options(
	fx.Provide(
		ProvideAsyncDispatcher,
		func(d *AsyncDispatcher) Dispatcher { return d },
		ProvideTrigger,
	),
)
