package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/citywatch/alerts/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func buildTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp().WithConfig(createTestConfig()).WithLogger(nopLogger()).Build()
	require.NoError(t, err)
	return app
}

func serve(app *App, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.Echo().ServeHTTP(rec, req)
	return rec
}

func TestApp_StartStop(t *testing.T) {
	app := buildTestApp(t)

	require.NoError(t, app.Start())

	rec := serve(app, http.MethodGet, "/alerts?action=diag", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"problems":[]}`, rec.Body.String())

	app.StopTest()

	sqlDB, err := app.DB().DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database should be closed on stop")
}

func TestApp_Start_Error(t *testing.T) {
	app, err := NewApp().
		WithConfig(createTestConfig()).
		WithLogger(nopLogger()).
		WithFxOptions(fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{OnStart: func(ctx context.Context) error { return assert.AnError }})
		})).
		Build()
	require.NoError(t, err)

	err = app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

func TestApp_Stop_Timeout(t *testing.T) {
	app, err := NewApp().
		WithConfig(createTestConfig()).
		WithLogger(nopLogger()).
		WithFxOptions(fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(5 * time.Second):
						return nil
					}
				},
			})
		})).
		Build()
	require.NoError(t, err)
	require.NoError(t, app.Start())

	start := time.Now()
	app.StopTest()

	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestApp_Routes(t *testing.T) {
	app := buildTestApp(t)
	require.NoError(t, app.Start())
	defer app.StopTest()

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		headers map[string]string
		status  int
	}{
		{"alerts unknown action", http.MethodGet, "/alerts?action=nope", "", nil, http.StatusNotFound},
		{"alerts needs bearer", http.MethodPost, "/alerts", `{"action":"send-verify","email":"a@example.com"}`, nil, http.StatusUnauthorized},
		{"verify without token", http.MethodGet, "/alerts?action=verify", "", nil, http.StatusBadRequest},
		{"verify unknown token redirects", http.MethodGet, "/alerts?action=verify&token=nope", "", nil, http.StatusFound},
		{"push needs secret", http.MethodPost, "/push?action=save-subscription", `{}`, nil, http.StatusUnauthorized},
		{"push with secret", http.MethodPost, "/push?action=save-subscription",
			`{"userId":"u1","subscription":{"endpoint":"https://push.example.com/1"}}`,
			map[string]string{"x-signing-secret": "push-secret"}, http.StatusOK},
		{"issues needs bearer", http.MethodGet, "/issues", "", nil, http.StatusUnauthorized},
		{"metrics", http.MethodGet, "/metrics", "", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.target, tt.body, tt.headers)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	var count int64
	require.NoError(t, app.DB().Model(&models.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
