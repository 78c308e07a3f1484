package openapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/citywatch/alerts/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew_Validates(t *testing.T) {
	doc := New(&config.Config{Alerts: config.AlertsConfig{PublicURL: "https://alerts.example.com"}})

	require.NoError(t, doc.Spec().Validate(context.Background()))
	assert.Equal(t, Title, doc.Spec().Info.Title)
	require.Len(t, doc.Spec().Servers, 1)
	assert.Equal(t, "https://alerts.example.com", doc.Spec().Servers[0].URL)
}

func TestNew_Paths(t *testing.T) {
	doc := New(nil)

	assert.Empty(t, doc.Spec().Servers)

	alerts := doc.Spec().Paths.Find("/alerts")
	require.NotNil(t, alerts)
	assert.NotNil(t, alerts.Get)
	assert.NotNil(t, alerts.Post)
	assert.NotNil(t, alerts.Post.Responses.Status(http.StatusForbidden))

	push := doc.Spec().Paths.Find("/push")
	require.NotNil(t, push)
	require.NotNil(t, push.Post)
	require.NotNil(t, push.Post.Security)
	assert.Contains(t, (*push.Post.Security)[0], secretScheme)

	resolve := doc.Spec().Paths.Find("/issues/{id}/resolve")
	require.NotNil(t, resolve)
	require.NotNil(t, resolve.Post)
	require.Len(t, resolve.Post.Parameters, 1)
	assert.Equal(t, "path", resolve.Post.Parameters[0].Value.In)
}

func TestHandlers(t *testing.T) {
	doc := New(nil)
	e := echo.New()

	t.Run("json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/openapi.json", nil), rec)

		require.NoError(t, doc.JSONHandler()(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "3.0.3", out["openapi"])
	})

	t.Run("yaml", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil), rec)

		require.NoError(t, doc.YAMLHandler()(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/yaml", rec.Header().Get(echo.HeaderContentType))
		var out map[string]any
		require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &out))
		assert.Contains(t, out["paths"], "/push")
	})
}
