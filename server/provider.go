package server

import (
	"context"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewProvider() fx.Option {
	return fx.Options(
		fx.Provide(func(cfg *config.Config, logger *logging.Service) *Server {
			return New(cfg, logger.Named("http"))
		}),
		fx.Invoke(func(lc fx.Lifecycle, srv *Server, shutdowner fx.Shutdowner) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						if err := srv.Start(); err != nil {
							srv.logger.Error("server stopped", zap.Error(err))
							_ = shutdowner.Shutdown(fx.ExitCode(1))
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}
