package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Log      LogConfig      `envPrefix:"LOG_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Mail     MailConfig     `envPrefix:"MAIL_"`
	Alerts   AlertsConfig   `envPrefix:"ALERTS_"`
	Push     PushConfig     `envPrefix:"PUSH_"`
	Dispatch DispatchConfig `envPrefix:"DISPATCH_"`
	CORS     CORSConfig     `envPrefix:"CORS_"`
	Sentry   SentryConfig   `envPrefix:"SENTRY_"`

	// FrontendURL is the public web app; verification redirects land here.
	FrontendURL string `env:"FRONTEND_URL"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	// JWTSecret is the identity provider's signing secret for user access tokens.
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"authenticated"`
}

type MailConfig struct {
	Host        string        `env:"HOST" envDefault:"smtp.gmail.com"`
	Port        int           `env:"PORT" envDefault:"465"`
	Username    string        `env:"USERNAME"`
	Password    string        `env:"PASSWORD"`
	Encryption  string        `env:"ENCRYPTION" envDefault:"ssl"`
	FromAddress string        `env:"FROM_ADDRESS"`
	FromName    string        `env:"FROM_NAME" envDefault:"CityWatch Toronto"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type AlertsConfig struct {
	DefaultCity string `env:"DEFAULT_CITY" envDefault:"Toronto"`
	// PublicURL is the externally reachable base of this service. When empty the
	// verification link is built from the inbound request host.
	PublicURL        string `env:"PUBLIC_URL"`
	DiagRequireAuth  bool   `env:"DIAG_REQUIRE_AUTH" envDefault:"false"`
	VerifyTokenBytes int    `env:"VERIFY_TOKEN_BYTES" envDefault:"24"`
}

type PushConfig struct {
	SigningSecret string `env:"SIGNING_SECRET"`
}

type DispatchConfig struct {
	Workers     int           `env:"WORKERS" envDefault:"2"`
	QueueSize   int           `env:"QUEUE_SIZE" envDefault:"256"`
	TaskTimeout time.Duration `env:"TASK_TIMEOUT" envDefault:"2m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
}

type SentryConfig struct {
	DSN         string `env:"DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Origins returns the CORS allow-list with the frontend first.
func (c *Config) Origins() []string {
	origins := make([]string, 0, len(c.CORS.AllowedOrigins)+1)
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	for _, o := range c.CORS.AllowedOrigins {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Frontend returns the frontend base URL, falling back to the local dev server.
func (c *Config) Frontend() string {
	if c.FrontendURL == "" {
		return "http://localhost:5173"
	}
	return c.FrontendURL
}

// SenderAddress is the envelope sender; it defaults to the SMTP username.
func (m *MailConfig) SenderAddress() string {
	if m.FromAddress != "" {
		return m.FromAddress
	}
	return m.Username
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}
	return env.Parse(cfg)
}

func (c *Config) Validate() error {
	if c.Alerts.VerifyTokenBytes < 24 {
		return fmt.Errorf("ALERTS_VERIFY_TOKEN_BYTES must be at least 24, got %d", c.Alerts.VerifyTokenBytes)
	}
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1, got %d", c.Dispatch.Workers)
	}
	if c.Dispatch.QueueSize < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be at least 1, got %d", c.Dispatch.QueueSize)
	}
	switch c.Mail.Encryption {
	case "ssl", "tls", "starttls", "none":
	default:
		return fmt.Errorf("unsupported MAIL_ENCRYPTION %q (supported: ssl, tls, starttls, none)", c.Mail.Encryption)
	}
	return nil
}
