package push

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/citywatch/alerts/models"
	"github.com/citywatch/alerts/services/logging"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidPayload = errors.New("invalid payload")

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{db: db, logger: logger}
}

// Save upserts a browser push subscription keyed by its endpoint. The
// subscription document is stored as received.
func (s *Service) Save(ctx context.Context, userID string, subscription json.RawMessage) (*models.PushSubscription, error) {
	if strings.TrimSpace(userID) == "" || len(subscription) == 0 {
		return nil, ErrInvalidPayload
	}

	var doc struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.Unmarshal(subscription, &doc); err != nil || doc.Endpoint == "" {
		return nil, ErrInvalidPayload
	}

	row := &models.PushSubscription{
		UserID:       userID,
		Endpoint:     doc.Endpoint,
		Subscription: datatypes.JSON(subscription),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "subscription", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		s.logger.Error("failed to save push subscription", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}

	var saved models.PushSubscription
	if err := s.db.WithContext(ctx).Where("endpoint = ?", doc.Endpoint).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}
