package jwt

import (
	"net/http"
	"strings"

	"github.com/citywatch/alerts/identity"
	"github.com/labstack/echo/v4"
)

const IdentityKey = "_identity"

// RequireIdentity resolves the bearer token through provider and stores the
// identity on the context. Any failure is a 401 with no side effects.
func RequireIdentity(provider identity.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Authenticate(c, provider)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// Authenticate resolves the bearer token on the request without rejecting it.
// Handlers that gate only some actions call it directly.
func Authenticate(c echo.Context, provider identity.Provider) (identity.Identity, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return identity.Identity{}, false
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return identity.Identity{}, false
	}

	id, err := provider.Authenticate(c.Request().Context(), tokenString)
	if err != nil || id.UserID == "" {
		return identity.Identity{}, false
	}
	return id, true
}

func GetIdentity(c echo.Context) (identity.Identity, bool) {
	id, ok := c.Get(IdentityKey).(identity.Identity)
	return id, ok
}
