package app

import (
	"errors"
	"fmt"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/database"
	"github.com/citywatch/alerts/handlers"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/openapi"
	"github.com/citywatch/alerts/server"
	"github.com/citywatch/alerts/services/diag"
	"github.com/citywatch/alerts/services/dispatch"
	"github.com/citywatch/alerts/services/issues"
	"github.com/citywatch/alerts/services/jwt"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/mail"
	"github.com/citywatch/alerts/services/notify"
	"github.com/citywatch/alerts/services/push"
	"github.com/citywatch/alerts/services/subscriptions"
	"github.com/citywatch/alerts/services/verification"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type AppBuilder struct {
	config    *config.Config
	logger    *logging.Service
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithLogger replaces the logger otherwise built from the log config.
func (b *AppBuilder) WithLogger(logger *logging.Service) *AppBuilder {
	b.logger = logger
	return b
}

// WithFxOptions appends options after the service graph, so they may decorate
// or replace any provided component.
func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if b.config == nil && len(b.errors) == 0 {
		b.WithAutoConfig()
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		var err error
		if logger, err = b.createLogger(); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	app := &App{
		config: b.config,
		logger: logger,
	}

	options := b.buildFxOptions(logger)
	options = append(options, fx.Invoke(func(srv *server.Server, db *gorm.DB, m *metrics.Metrics) {
		app.server = srv
		app.db = db
		app.metrics = m
	}))

	fxApp := fx.New(options...)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	app.fx = fxApp

	return app, nil
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, errors.New(msg))
}

func (b *AppBuilder) validate() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("configuration errors: %v", b.errors)
	}
	if err := b.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (b *AppBuilder) createLogger() (*logging.Service, error) {
	return logging.NewService(logging.Config{
		Level:      logging.LogLevel(b.config.Log.Level),
		Format:     b.config.Log.Format,
		OutputPath: b.config.Log.Output,
	})
}

// buildFxOptions orders modules so lifecycle hooks stop in reverse: the HTTP
// server first, then the dispatcher drains, then the database closes.
func (b *AppBuilder) buildFxOptions(logger *logging.Service) []fx.Option {
	options := []fx.Option{
		config.NewProvider(b.config),
		fx.Supply(logger),
		fx.NopLogger,

		database.Module,
		metrics.Module,
		mail.Module,
		jwt.Options,
		subscriptions.Module,
		verification.Module,
		notify.Module,
		dispatch.Module,
		issues.Module,
		push.Module,
		diag.Module,
		openapi.Module,

		server.NewProvider(),
		handlers.Module,
	}

	return append(options, b.fxOptions...)
}
