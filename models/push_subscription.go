package models

import (
	"time"

	"gorm.io/datatypes"
)

// PushSubscription is a browser Web Push registration, keyed by endpoint.
type PushSubscription struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"user_id" gorm:"size:64;not null;index"`
	Endpoint     string         `json:"endpoint" gorm:"size:1024;not null;uniqueIndex"`
	Subscription datatypes.JSON `json:"subscription" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}

// All returns every model the service migrates.
func All() []any {
	return []any{&Subscription{}, &Issue{}, &PushSubscription{}}
}
