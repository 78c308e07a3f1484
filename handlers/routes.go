package handlers

import (
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/middleware/cors"
	jwtmw "github.com/citywatch/alerts/middleware/jwt"
	"github.com/citywatch/alerts/middleware/signingsecret"
	"github.com/citywatch/alerts/openapi"
	"github.com/citywatch/alerts/server"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type Routes struct {
	fx.In

	Config     *config.Config
	Identities identity.Provider
	Metrics    *metrics.Metrics
	Alerts     *AlertsHandler
	Push       *PushHandler
	Issues     *IssuesHandler
	Docs       *openapi.Document
}

func Register(srv *server.Server, r Routes) {
	srv.Any("/alerts", r.Alerts.Handle, cors.New(cors.AlertsConfig(r.Config.Origins())))
	srv.Any("/push", r.Push.Handle, cors.New(cors.PushConfig()), signingsecret.Require(r.Config.Push.SigningSecret))

	api := srv.Group("/issues", cors.New(cors.AlertsConfig(r.Config.Origins())), jwtmw.RequireIdentity(r.Identities))
	api.GET("", r.Issues.List)
	api.POST("", r.Issues.Create)
	api.POST("/:id/resolve", r.Issues.Resolve)

	srv.Get("/metrics", echo.WrapHandler(r.Metrics.Handler()))
	srv.Get("/openapi.json", r.Docs.JSONHandler())
	srv.Get("/openapi.yaml", r.Docs.YAMLHandler())
}

var Module = fx.Options(
	fx.Provide(NewAlertsHandler, NewPushHandler, NewIssuesHandler),
	fx.Invoke(Register),
)
