package verification

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/citywatch/alerts/apperror"
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/mail"
	"github.com/citywatch/alerts/services/subscriptions"
	"go.uber.org/zap"
)

const Subject = "Confirm your email for CityWatch alerts"

type Store interface {
	UpsertVerification(ctx context.Context, sub *models.Subscription) error
	Redeem(ctx context.Context, token string, now time.Time) (*models.Subscription, error)
}

type Mailer interface {
	SendTemplate(ctx context.Context, templateName string, to []string, subject string, data mail.TemplateData) error
}

// Request is a subscribe-and-verify submission. Nil preferences take the defaults.
type Request struct {
	Email          string
	City           string
	WantsNewIssues *bool
	WantsResolved  *bool
	// PublicBaseURL is the base the link is built on when no public URL is configured.
	PublicBaseURL string
}

// Outcome is the result of redeeming a verification link.
type Outcome struct {
	OK bool
}

// RedirectURL is where the browser lands after clicking the link.
func (o Outcome) RedirectURL(frontend string) string {
	ok := "0"
	if o.OK {
		ok = "1"
	}
	return strings.TrimRight(frontend, "/") + "/email-verified?ok=" + ok
}

type Service struct {
	store   Store
	mailer  Mailer
	config  *config.AlertsConfig
	metrics *metrics.Metrics
	logger  *logging.Service
	random  io.Reader
	now     func() time.Time
}

func NewService(store Store, mailer Mailer, cfg *config.AlertsConfig, m *metrics.Metrics, logger *logging.Service) *Service {
	return &Service{
		store:   store,
		mailer:  mailer,
		config:  cfg,
		metrics: m,
		logger:  logger,
		random:  rand.Reader,
		now:     time.Now,
	}
}

// RequestVerification upserts the caller's subscription with a fresh token
// and mails the verification link. It succeeds only once the mail is handed
// to the SMTP server.
func (s *Service) RequestVerification(ctx context.Context, id identity.Identity, req Request) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return apperror.BadRequest("Missing email")
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		city = s.config.DefaultCity
	}

	token, err := s.newToken()
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to generate token", err)
	}

	sub := &models.Subscription{
		UserID:         id.UserID,
		City:           city,
		Email:          email,
		WantsNewIssues: boolOr(req.WantsNewIssues, true),
		WantsResolved:  boolOr(req.WantsResolved, false),
		VerifyToken:    &token,
	}
	if err := s.store.UpsertVerification(ctx, sub); err != nil {
		return apperror.Upstream("DB error: ", err)
	}

	link := s.verifyLink(req.PublicBaseURL, token)
	err = s.mailer.SendTemplate(ctx, mail.TemplateVerifyEmail, []string{email}, Subject, mail.TemplateData{
		"Name": id.Greeting(),
		"City": city,
		"Link": link,
	})
	if err != nil {
		s.metrics.VerificationEmail(metrics.ResultFailed)
		s.logger.Error("verification email failed",
			zap.Error(err), zap.String("user_id", id.UserID), zap.String("city", city))
		return apperror.Upstream("SMTP send failed: ", err)
	}

	s.metrics.VerificationEmail(metrics.ResultSent)
	s.logger.Info("verification email sent", zap.String("user_id", id.UserID), zap.String("city", city))
	return nil
}

// Redeem consumes a verification token. Only an empty token is an error;
// unknown tokens and store failures both yield a negative outcome.
func (s *Service) Redeem(ctx context.Context, token string) (Outcome, error) {
	if token == "" {
		return Outcome{}, apperror.BadRequest("Missing token")
	}

	sub, err := s.store.Redeem(ctx, token, s.now())
	if err != nil {
		if !errors.Is(err, subscriptions.ErrTokenNotFound) {
			s.logger.Error("verification redemption failed", zap.Error(err))
		}
		s.metrics.Verification(metrics.ResultInvalid)
		return Outcome{OK: false}, nil
	}

	s.metrics.Verification(metrics.ResultOK)
	s.logger.Info("email verified", zap.String("user_id", sub.UserID), zap.String("city", sub.City))
	return Outcome{OK: true}, nil
}

func (s *Service) newToken() (string, error) {
	n := s.config.VerifyTokenBytes
	if n < 24 {
		n = 24
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *Service) verifyLink(requestBase, token string) string {
	base := s.config.PublicURL
	if base == "" {
		base = requestBase
	}
	return strings.TrimRight(base, "/") + "/alerts?action=verify&token=" + url.QueryEscape(token)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
