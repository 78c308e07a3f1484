package signingsecret

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

const Header = "x-signing-secret"

// Require rejects requests whose x-signing-secret header does not match
// secret, before the body is read. An empty secret rejects everything.
func Require(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			got := c.Request().Header.Get(Header)
			if secret == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
