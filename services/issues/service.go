package issues

import (
	"context"
	"errors"
	"strings"

	"github.com/citywatch/alerts/apperror"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/logging"
	"github.com/citywatch/alerts/services/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Trigger is told about committed issue changes so it can schedule alerts.
type Trigger interface {
	IssueCreated(id identity.Identity, issue *models.Issue)
	IssueResolved(id identity.Identity, issue *models.Issue)
}

type NewIssue struct {
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	PhotoURL    *string `json:"photo_url"`
}

type Service struct {
	db      *gorm.DB
	trigger Trigger
	logger  *logging.Service
}

func NewService(db *gorm.DB, trigger Trigger, logger *logging.Service) *Service {
	return &Service{db: db, trigger: trigger, logger: logger}
}

func (s *Service) Create(ctx context.Context, id identity.Identity, in NewIssue) (*models.Issue, error) {
	issue := &models.Issue{
		CreatorID:   id.UserID,
		Title:       strings.TrimSpace(in.Title),
		Type:        strings.TrimSpace(in.Type),
		Description: in.Description,
		City:        strings.TrimSpace(in.City),
		Status:      models.IssueOpen,
		PhotoURL:    in.PhotoURL,
		Lat:         in.Lat,
		Lng:         in.Lng,
	}
	if issue.Title == "" || issue.Type == "" || issue.City == "" {
		return nil, apperror.BadRequest("Missing title, type or city")
	}

	if err := s.db.WithContext(ctx).Create(issue).Error; err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}

	s.logger.Info("issue created", zap.String("issue_id", issue.ID), zap.String("city", issue.City))
	s.trigger.IssueCreated(id, issue)
	return issue, nil
}

// Resolve marks the caller's own issue resolved.
func (s *Service) Resolve(ctx context.Context, id identity.Identity, issueID string) (*models.Issue, error) {
	issue, err := s.Get(ctx, issueID)
	if errors.Is(err, notify.ErrIssueNotFound) {
		return nil, apperror.NotFound("Issue not found")
	}
	if err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}
	if issue.CreatorID != id.UserID {
		return nil, apperror.Forbidden("Forbidden")
	}

	if err := s.db.WithContext(ctx).Model(issue).Update("status", models.IssueResolved).Error; err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}
	issue.Status = models.IssueResolved

	s.logger.Info("issue resolved", zap.String("issue_id", issue.ID))
	s.trigger.IssueResolved(id, issue)
	return issue, nil
}

// List returns all issues, newest first.
func (s *Service) List(ctx context.Context) ([]models.Issue, error) {
	var out []models.Issue
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}
	return out, nil
}

// Get implements notify.IssueReader.
func (s *Service) Get(ctx context.Context, id string) (*models.Issue, error) {
	var issue models.Issue
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&issue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notify.ErrIssueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}
