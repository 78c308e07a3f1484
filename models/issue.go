package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueStatus string

const (
	IssueOpen     IssueStatus = "open"
	IssueResolved IssueStatus = "resolved"
)

type Issue struct {
	ID          string      `json:"id" gorm:"size:36;primaryKey"`
	CreatorID   string      `json:"creator_id" gorm:"size:64;not null;index"`
	Title       string      `json:"title" gorm:"size:255;not null"`
	Type        string      `json:"type" gorm:"size:64;not null"`
	Description *string     `json:"description"`
	City        string      `json:"city" gorm:"size:128;not null;index"`
	Status      IssueStatus `json:"status" gorm:"size:16;not null"`
	PhotoURL    *string     `json:"photo_url"`
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Issue) TableName() string {
	return "issues"
}

func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
