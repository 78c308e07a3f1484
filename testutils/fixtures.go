package testutils

import (
	"testing"
	"time"

	"github.com/citywatch/alerts/config"
	"github.com/citywatch/alerts/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const TestJWTSecret = "test-secret-key-32-chars-long!!!"

func GetTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: "8080"},
		Log:    config.LogConfig{Level: "debug", Format: "console", Output: "stdout"},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			JWTSecret:   TestJWTSecret,
			JWTAudience: "authenticated",
		},
		Mail: config.MailConfig{
			Host:       "localhost",
			Port:       465,
			Username:   "alerts@example.com",
			Password:   "password",
			Encryption: "ssl",
			FromName:   "CityWatch Toronto",
			Timeout:    time.Second,
		},
		Alerts: config.AlertsConfig{
			DefaultCity:      "Toronto",
			PublicURL:        "https://alerts.example.com",
			VerifyTokenBytes: 24,
		},
		Push: config.PushConfig{SigningSecret: "push-secret"},
		Dispatch: config.DispatchConfig{
			Workers:     1,
			QueueSize:   8,
			TaskTimeout: time.Second,
		},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"}},
		FrontendURL: "https://citywatch.example.com/",
	}
}

// CreateSubscription inserts a row directly, bypassing the upsert paths.
func CreateSubscription(t *testing.T, db *gorm.DB, userID, city, email string, verified, wantsNew, wantsResolved bool) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		UserID:         userID,
		City:           city,
		Email:          email,
		WantsNewIssues: wantsNew,
		WantsResolved:  wantsResolved,
	}
	if verified {
		now := time.Now()
		sub.VerifiedAt = &now
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func CreateIssue(t *testing.T, db *gorm.DB, creatorID, city, title string) *models.Issue {
	t.Helper()
	issue := &models.Issue{
		CreatorID: creatorID,
		Title:     title,
		Type:      "Pothole",
		City:      city,
		Status:    models.IssueOpen,
		Lat:       43.6532,
		Lng:       -79.3832,
	}
	require.NoError(t, db.Create(issue).Error)
	return issue
}
