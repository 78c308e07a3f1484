package jwt

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	jwtservice "github.com/citywatch/alerts/services/jwt"
	"github.com/citywatch/alerts/testutils"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestJWTService() *jwtservice.Service {
	return jwtservice.NewService(&config.AuthConfig{JWTSecret: testutils.TestJWTSecret, JWTAudience: "authenticated"}, nil)
}

func TestRequireIdentity(t *testing.T) {
	e := echo.New()
	jwtService := setupTestJWTService()
	middleware := RequireIdentity(jwtService)

	var seen identity.Identity
	successHandler := func(c echo.Context) error {
		seen, _ = GetIdentity(c)
		return c.JSON(http.StatusOK, map[string]string{"message": "success"})
	}

	unauthorized := func(t *testing.T, header string) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		c := e.NewContext(req, httptest.NewRecorder())

		err := middleware(successHandler)(c)

		require.Error(t, err)
		httpError, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, httpError.Code)
		assert.Equal(t, "Unauthorized", httpError.Message)
	}

	t.Run("missing authorization header", func(t *testing.T) { unauthorized(t, "") })
	t.Run("invalid authorization header format", func(t *testing.T) { unauthorized(t, "Basic abc") })
	t.Run("empty bearer token", func(t *testing.T) { unauthorized(t, "Bearer ") })
	t.Run("invalid token", func(t *testing.T) { unauthorized(t, "Bearer not-a-token") })

	t.Run("valid token", func(t *testing.T) {
		token, err := jwtService.GenerateToken("user-1", "a@example.com", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err = middleware(successHandler)(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, identity.Identity{UserID: "user-1", Email: "a@example.com"}, seen)
	})
}

func TestAuthenticate_ProviderError(t *testing.T) {
	e := echo.New()
	provider := &testutils.MockIdentityProvider{}
	provider.On("Authenticate", mock.Anything, "tok").Return(identity.Identity{}, errors.New("provider down"))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer tok")
	c := e.NewContext(req, httptest.NewRecorder())

	_, ok := Authenticate(c, provider)

	assert.False(t, ok)
	provider.AssertExpectations(t)
}

func TestGetIdentity_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := GetIdentity(c)

	assert.False(t, ok)
}
