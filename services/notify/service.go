package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/citywatch/alerts/apperror"
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/metrics"
	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/mail"
	"go.uber.org/zap"
)

// ErrIssueNotFound is returned by an IssueReader when no issue has the id.
var ErrIssueNotFound = errors.New("issue not found")

type IssueReader interface {
	Get(ctx context.Context, id string) (*models.Issue, error)
}

type RecipientSource interface {
	Recipients(ctx context.Context, city string, kind models.AlertKind) ([]models.Subscription, error)
}

type Mailer interface {
	SendTemplate(ctx context.Context, templateName string, to []string, subject string, data mail.TemplateData) error
}

// Request describes the issue event to announce. Title and Type are what the
// caller saw; only the issue's ownership is re-read from the store.
type Request struct {
	Kind    models.AlertKind
	City    string
	IssueID string
	Title   string
	Type    string
}

// Report summarizes one fan-out. Failed recipients are only logged.
type Report struct {
	Recipients int
	Sent       int
	Failed     int
}

type Service struct {
	issues     IssueReader
	recipients RecipientSource
	mailer     Mailer
	config     *config.AlertsConfig
	metrics    *metrics.Metrics
	logger     *logging.Service
}

func NewService(issues IssueReader, recipients RecipientSource, mailer Mailer, cfg *config.AlertsConfig, m *metrics.Metrics, logger *logging.Service) *Service {
	return &Service{
		issues:     issues,
		recipients: recipients,
		mailer:     mailer,
		config:     cfg,
		metrics:    m,
		logger:     logger,
	}
}

// Notify emails every verified subscriber of the city who opted in to the
// kind. Only the issue's creator may trigger it. A failed recipient never
// stops the loop and never fails the call.
func (s *Service) Notify(ctx context.Context, id identity.Identity, req Request) (Report, error) {
	if !req.Kind.Valid() {
		return Report{}, apperror.BadRequest(fmt.Sprintf("Unknown notification kind %q", req.Kind))
	}
	if req.IssueID == "" || req.Title == "" || req.Type == "" {
		return Report{}, apperror.BadRequest("Missing issue payload")
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		city = s.config.DefaultCity
	}

	issue, err := s.issues.Get(ctx, req.IssueID)
	if errors.Is(err, ErrIssueNotFound) {
		return Report{}, apperror.NotFound("Issue not found")
	}
	if err != nil {
		return Report{}, apperror.Upstream("DB error: ", err)
	}
	if issue.CreatorID != id.UserID {
		s.logger.Warn("notification rejected for non-creator",
			zap.String("issue_id", issue.ID), zap.String("user_id", id.UserID))
		return Report{}, apperror.Forbidden("Forbidden")
	}

	subs, err := s.recipients.Recipients(ctx, city, req.Kind)
	if err != nil {
		return Report{}, apperror.Upstream("DB error: ", err)
	}

	subject, tmpl := compose(req.Kind, city, req.Title)
	data := mail.TemplateData{"Title": req.Title, "Type": req.Type, "City": city}
	report := Report{Recipients: len(subs)}

	for _, sub := range subs {
		if err := s.mailer.SendTemplate(ctx, tmpl, []string{sub.Email}, subject, data); err != nil {
			report.Failed++
			s.metrics.AlertEmail(string(req.Kind), metrics.ResultFailed)
			s.logger.Warn("alert email failed",
				zap.Error(err),
				zap.Uint("subscription_id", sub.ID),
				zap.String("issue_id", req.IssueID))
			continue
		}
		report.Sent++
		s.metrics.AlertEmail(string(req.Kind), metrics.ResultSent)
	}

	s.logger.Info("issue notification fanned out",
		zap.String("kind", string(req.Kind)),
		zap.String("city", city),
		zap.String("issue_id", req.IssueID),
		zap.Int("recipients", report.Recipients),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed))
	return report, nil
}

func compose(kind models.AlertKind, city, title string) (subject, template string) {
	if kind == models.AlertResolved {
		return fmt.Sprintf("Issue resolved in %s: %s", city, title), mail.TemplateIssueResolved
	}
	return fmt.Sprintf("New issue in %s: %s", city, title), mail.TemplateIssueNew
}
