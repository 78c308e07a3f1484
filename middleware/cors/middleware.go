package cors

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type Config struct {
	// AllowOrigins are matched as prefixes of the request Origin. With no
	// match, or no list, the response allows any origin.
	AllowOrigins []string
	AllowHeaders string
	AllowMethods string
}

// AlertsConfig is the header set the web app's alert calls expect.
func AlertsConfig(origins []string) Config {
	return Config{
		AllowOrigins: origins,
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
		AllowMethods: "GET, POST, OPTIONS",
	}
}

// PushConfig is the header set for the signed push registration endpoint.
func PushConfig() Config {
	return Config{
		AllowHeaders: "Content-Type,x-signing-secret",
		AllowMethods: "OPTIONS,POST",
	}
}

// New writes CORS headers on every response and answers preflight requests
// with 204.
func New(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, cfg.allowOrigin(c.Request().Header.Get(echo.HeaderOrigin)))
			if len(cfg.AllowOrigins) > 0 {
				h.Add(echo.HeaderVary, echo.HeaderOrigin)
			}
			h.Set(echo.HeaderAccessControlAllowHeaders, cfg.AllowHeaders)
			h.Set(echo.HeaderAccessControlAllowMethods, cfg.AllowMethods)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

func (cfg Config) allowOrigin(origin string) string {
	if origin == "" {
		return "*"
	}
	for _, o := range cfg.AllowOrigins {
		if o != "" && strings.HasPrefix(origin, o) {
			return o
		}
	}
	return "*"
}
