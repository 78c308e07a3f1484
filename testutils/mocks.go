package testutils

import (
	"context"
	"sync"

	"github.com/citywatch/alerts/identity"
	"github.com/citywatch/alerts/services/mail"
	"github.com/stretchr/testify/mock"
)

type MockMailService struct {
	mock.Mock
}

func (m *MockMailService) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data mail.TemplateData) error {
	args := m.Called(ctx, templateName, to, subject, data)
	return args.Error(0)
}

// SentMail is one message captured by RecordingMailer.
type SentMail struct {
	Template string
	To       []string
	Subject  string
	Data     mail.TemplateData
}

// RecordingMailer captures every send and fails for addresses listed in Fail.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Fail map[string]error
}

func (r *RecordingMailer) SendTemplate(_ context.Context, templateName string, to []string, subject string, data mail.TemplateData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, addr := range to {
		if err, ok := r.Fail[addr]; ok {
			return err
		}
	}
	r.Sent = append(r.Sent, SentMail{Template: templateName, To: to, Subject: subject, Data: data})
	return nil
}

func (r *RecordingMailer) Messages() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMail(nil), r.Sent...)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Authenticate(ctx context.Context, token string) (identity.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(identity.Identity), args.Error(1)
}
