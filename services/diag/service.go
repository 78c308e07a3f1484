package diag

import (
	"context"

	"github.com/citywatch/alerts/config"
)

type Prober interface {
	Probe(ctx context.Context) error
}

type Report struct {
	OK       bool     `json:"ok"`
	Problems []string `json:"problems"`
}

// Service reports missing configuration and whether the subscriptions table
// is readable. It never writes.
type Service struct {
	config *config.Config
	prober Prober
}

func NewService(cfg *config.Config, prober Prober) *Service {
	return &Service{config: cfg, prober: prober}
}

func (s *Service) Run(ctx context.Context) Report {
	problems := []string{}
	missing := func(value, problem string) {
		if value == "" {
			problems = append(problems, problem)
		}
	}

	missing(s.config.Database.DSN, "DATABASE_DSN missing")
	missing(s.config.Auth.JWTSecret, "AUTH_JWT_SECRET missing")
	missing(s.config.Mail.Username, "MAIL_USERNAME missing")
	missing(s.config.Mail.Password, "MAIL_PASSWORD missing")
	missing(s.config.FrontendURL, "FRONTEND_URL missing (dev fallback used)")

	if err := s.prober.Probe(ctx); err != nil {
		problems = append(problems, "email_subscriptions query failed: "+err.Error())
	}

	return Report{OK: len(problems) == 0, Problems: problems}
}
