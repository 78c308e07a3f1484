package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const (
	TemplateVerifyEmail   = "verify_email"
	TemplateIssueNew      = "issue_new"
	TemplateIssueResolved = "issue_resolved"
)

var ErrNotConfigured = errors.New("mail sender address is not configured")

//go:embed templates/*.txt
var templateFS embed.FS

// Client is the part of *mail.Client the service needs.
type Client interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Service struct {
	config    *config.MailConfig
	client    Client
	templates *template.Template
	logger    *logging.Service
}

type TemplateData map[string]any

func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	logger.Info("initializing mail service",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("encryption", cfg.Encryption))

	client, err := mail.NewClient(cfg.Host, clientOptions(cfg)...)
	if err != nil {
		logger.Error("failed to create mail client",
			zap.Error(err),
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port))
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return NewServiceWithClient(cfg, logger, client)
}

func NewServiceWithClient(cfg *config.MailConfig, logger *logging.Service, client Client) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}

	if cfg.SenderAddress() == "" {
		// still usable for wiring; every send fails until credentials are set
		logger.Warn("mail sender address not configured")
	}

	return &Service{
		config:    cfg,
		client:    client,
		templates: tmpl,
		logger:    logger,
	}, nil
}

func clientOptions(cfg *config.MailConfig) []mail.Option {
	opts := []mail.Option{mail.WithPort(cfg.Port)}

	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}

	switch cfg.Encryption {
	case "ssl":
		opts = append(opts, mail.WithSSL())
	case "none":
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	return opts
}

func (s *Service) newMessage() (*mail.Msg, error) {
	from := s.config.SenderAddress()
	if from == "" {
		return nil, ErrNotConfigured
	}

	message := mail.NewMsg()
	var err error
	if s.config.FromName != "" {
		err = message.FromFormat(s.config.FromName, from)
	} else {
		err = message.From(from)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set FROM address: %w", err)
	}
	return message, nil
}

func (s *Service) send(ctx context.Context, message *mail.Msg) error {
	start := time.Now()
	err := s.client.DialAndSendWithContext(ctx, message)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("failed to send email", zap.Error(err), zap.Duration("attempt_duration", duration))
		return err
	}

	s.logger.Debug("email sent", zap.Duration("send_duration", duration))
	return nil
}

// SendPlain sends a text/plain message.
func (s *Service) SendPlain(ctx context.Context, to []string, subject, body string) error {
	message, err := s.newMessage()
	if err != nil {
		return err
	}

	if err := message.To(to...); err != nil {
		s.logger.Warn("invalid recipient address", zap.Error(err), zap.Int("recipients", len(to)))
		return fmt.Errorf("failed to set TO addresses: %w", err)
	}

	message.Subject(subject)
	message.SetBodyString(mail.TypeTextPlain, body)

	return s.send(ctx, message)
}

// SendTemplate renders one of the embedded text templates and sends it as plain text.
func (s *Service) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data TemplateData) error {
	body, err := s.Render(templateName, data)
	if err != nil {
		s.logger.Error("failed to render template", zap.Error(err), zap.String("template", templateName))
		return err
	}
	return s.SendPlain(ctx, to, subject, body)
}

func (s *Service) Render(templateName string, data TemplateData) (string, error) {
	tmpl := s.templates.Lookup(templateName + ".txt")
	if tmpl == nil {
		return "", fmt.Errorf("template '%s' not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
