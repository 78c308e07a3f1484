package models

import "time"

// AlertKind selects which preference flag a notification is gated on.
type AlertKind string

const (
	AlertNewIssue AlertKind = "new"
	AlertResolved AlertKind = "resolved"
)

func (k AlertKind) Valid() bool {
	return k == AlertNewIssue || k == AlertResolved
}

// PreferenceColumn is the subscription column that opts in to this kind.
func (k AlertKind) PreferenceColumn() string {
	if k == AlertResolved {
		return "wants_resolved"
	}
	return "wants_new_issues"
}

// Subscription is one user's email alert preferences for one city.
type Subscription struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_email_subscriptions_user_city"`
	City           string     `json:"city" gorm:"size:128;not null;uniqueIndex:idx_email_subscriptions_user_city;index"`
	Email          string     `json:"email" gorm:"size:320;not null"`
	WantsNewIssues bool       `json:"wants_new_issues" gorm:"not null"`
	WantsResolved  bool       `json:"wants_resolved" gorm:"not null"`
	VerifyToken    *string    `json:"-" gorm:"size:128;uniqueIndex"`
	VerifiedAt     *time.Time `json:"verified_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "email_subscriptions"
}

func (s *Subscription) Verified() bool {
	return s.VerifiedAt != nil
}
