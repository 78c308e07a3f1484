package subscriptions

import (
	"context"
	"errors"
	"strings"

	"github.com/citywatch/alerts/apperror"
	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/models"
)

// Preferences is a save from the alerts settings form. Nil flags take the
// same defaults as a verification request.
type Preferences struct {
	Email          string
	City           string
	WantsNewIssues *bool
	WantsResolved  *bool
}

// Service is the caller-facing side of the store: reading and saving one's
// own preferences without touching verification.
type Service struct {
	store  *Store
	config *config.AlertsConfig
}

func NewService(store *Store, cfg *config.AlertsConfig) *Service {
	return &Service{store: store, config: cfg}
}

func (s *Service) city(c string) string {
	if c = strings.TrimSpace(c); c != "" {
		return c
	}
	return s.config.DefaultCity
}

func (s *Service) Current(ctx context.Context, id identity.Identity, city string) (*models.Subscription, error) {
	sub, err := s.store.Get(ctx, id.UserID, s.city(city))
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, apperror.NotFound("Subscription not found")
	}
	if err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}
	return sub, nil
}

func (s *Service) SavePreferences(ctx context.Context, id identity.Identity, prefs Preferences) (*models.Subscription, error) {
	email := strings.TrimSpace(prefs.Email)
	if email == "" {
		return nil, apperror.BadRequest("Missing email")
	}

	sub := &models.Subscription{
		UserID:         id.UserID,
		City:           s.city(prefs.City),
		Email:          email,
		WantsNewIssues: prefs.WantsNewIssues == nil || *prefs.WantsNewIssues,
		WantsResolved:  prefs.WantsResolved != nil && *prefs.WantsResolved,
	}
	if err := s.store.SavePreferences(ctx, sub); err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}
	saved, err := s.store.Get(ctx, sub.UserID, sub.City)
	if err != nil {
		return nil, apperror.Upstream("DB error: ", err)
	}
	return saved, nil
}
