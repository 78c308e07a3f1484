package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrTokenNotFound        = errors.New("verification token not found")
)

var userCityKey = []clause.Column{{Name: "user_id"}, {Name: "city"}}

// Store is the only code that touches email_subscriptions.
type Store struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewStore(db *gorm.DB, logger *logging.Service) *Store {
	return &Store{db: db, logger: logger}
}

// UpsertVerification writes the email and preferences, arms a new
// verification token and marks the row unverified.
func (s *Store) UpsertVerification(ctx context.Context, sub *models.Subscription) error {
	sub.VerifiedAt = nil
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: userCityKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "wants_new_issues", "wants_resolved", "verify_token", "verified_at", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		s.logger.Error("failed to upsert subscription",
			zap.Error(err), zap.String("user_id", sub.UserID), zap.String("city", sub.City))
		return err
	}
	return nil
}

// SavePreferences writes the email and preferences only. Token and
// verification state on an existing row are left alone.
func (s *Store) SavePreferences(ctx context.Context, sub *models.Subscription) error {
	sub.VerifyToken = nil
	sub.VerifiedAt = nil
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   userCityKey,
		DoUpdates: clause.AssignmentColumns([]string{"email", "wants_new_issues", "wants_resolved", "updated_at"}),
	}).Create(sub).Error
	if err != nil {
		s.logger.Error("failed to save subscription preferences",
			zap.Error(err), zap.String("user_id", sub.UserID), zap.String("city", sub.City))
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID, city string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("user_id = ? AND city = ?", userID, city).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Redeem stamps verified_at on the row holding token and clears the token.
// The update is guarded on the token so only one of several concurrent
// redemptions can succeed.
func (s *Store) Redeem(ctx context.Context, token string, now time.Time) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("verify_token = ?", token).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenNotFound
			}
			return err
		}

		result := tx.Model(&models.Subscription{}).
			Where("id = ? AND verify_token = ?", sub.ID, token).
			Updates(map[string]any{"verified_at": now, "verify_token": nil})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTokenNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub.VerifiedAt = &now
	sub.VerifyToken = nil
	s.logger.Info("subscription verified", zap.Uint("subscription_id", sub.ID), zap.String("city", sub.City))
	return &sub, nil
}

// Recipients returns verified subscriptions in city opted in to kind.
func (s *Store) Recipients(ctx context.Context, city string, kind models.AlertKind) ([]models.Subscription, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown alert kind %q", kind)
	}

	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Where("city = ? AND verified_at IS NOT NULL", city).
		Where(kind.PreferenceColumn()+" = ?", true).
		Order("id").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Probe performs one trivial read of the subscriptions table.
func (s *Store) Probe(ctx context.Context) error {
	var ids []uint
	return s.db.WithContext(ctx).Model(&models.Subscription{}).Limit(1).Pluck("id", &ids).Error
}
