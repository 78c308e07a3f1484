package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/citywatch/alerts/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type MockMailClient struct {
	sendFunc func(msg *mail.Msg) error
	messages []*mail.Msg
}

func (m *MockMailClient) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	m.messages = append(m.messages, messages...)
	if m.sendFunc != nil {
		return m.sendFunc(messages[0])
	}
	return nil
}

func getTestMailConfig() *config.MailConfig {
	return &config.MailConfig{
		Host:       "localhost",
		Port:       465,
		Username:   "alerts@example.com",
		Password:   "password",
		Encryption: "ssl",
		FromName:   "CityWatch Toronto",
	}
}

func bodyOf(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	parts := msg.GetParts()
	require.Len(t, parts, 1)
	content, err := parts[0].GetContent()
	require.NoError(t, err)
	return string(content)
}

func TestNewService(t *testing.T) {
	t.Run("with mock client", func(t *testing.T) {
		cfg := getTestMailConfig()
		client := &MockMailClient{}

		service, err := NewServiceWithClient(cfg, nil, client)

		require.NoError(t, err)
		assert.Equal(t, cfg, service.config)
		assert.Equal(t, client, service.client)
		assert.NotNil(t, service.templates)
	})

	t.Run("creates real client", func(t *testing.T) {
		service, err := NewService(getTestMailConfig(), nil)

		require.NoError(t, err)
		assert.NotNil(t, service.client)
	})

	t.Run("without credentials", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.Username = ""

		service, err := NewServiceWithClient(cfg, nil, &MockMailClient{})

		require.NoError(t, err)
		assert.NotNil(t, service)
	})
}

func TestService_SendPlain(t *testing.T) {
	t.Run("successful send", func(t *testing.T) {
		client := &MockMailClient{}
		service, err := NewServiceWithClient(getTestMailConfig(), nil, client)
		require.NoError(t, err)

		err = service.SendPlain(context.Background(), []string{"resident@example.com"}, "Hello", "Body text")

		require.NoError(t, err)
		require.Len(t, client.messages, 1)
		msg := client.messages[0]

		to, err := msg.GetRecipients()
		require.NoError(t, err)
		assert.Equal(t, []string{"resident@example.com"}, to)
		assert.Equal(t, []string{"Hello"}, msg.GetGenHeader(mail.HeaderSubject))
		assert.Equal(t, "Body text", bodyOf(t, msg))

		from := msg.GetFrom()
		require.Len(t, from, 1)
		assert.Equal(t, "alerts@example.com", from[0].Address)
		assert.Equal(t, "CityWatch Toronto", from[0].Name)
	})

	t.Run("from address overrides username", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.FromAddress = "noreply@example.com"
		client := &MockMailClient{}
		service, err := NewServiceWithClient(cfg, nil, client)
		require.NoError(t, err)

		require.NoError(t, service.SendPlain(context.Background(), []string{"a@example.com"}, "s", "b"))

		assert.Equal(t, "noreply@example.com", client.messages[0].GetFrom()[0].Address)
	})

	t.Run("client failure is returned", func(t *testing.T) {
		client := &MockMailClient{sendFunc: func(*mail.Msg) error { return errors.New("535 auth failed") }}
		service, err := NewServiceWithClient(getTestMailConfig(), nil, client)
		require.NoError(t, err)

		err = service.SendPlain(context.Background(), []string{"a@example.com"}, "s", "b")

		require.Error(t, err)
		assert.Equal(t, "535 auth failed", err.Error())
	})

	t.Run("invalid recipient", func(t *testing.T) {
		client := &MockMailClient{}
		service, err := NewServiceWithClient(getTestMailConfig(), nil, client)
		require.NoError(t, err)

		err = service.SendPlain(context.Background(), []string{"not an address"}, "s", "b")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set TO addresses")
		assert.Empty(t, client.messages)
	})

	t.Run("no sender configured", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.Username = ""
		client := &MockMailClient{}
		service, err := NewServiceWithClient(cfg, nil, client)
		require.NoError(t, err)

		err = service.SendPlain(context.Background(), []string{"a@example.com"}, "s", "b")

		assert.ErrorIs(t, err, ErrNotConfigured)
		assert.Empty(t, client.messages)
	})
}

func TestService_Render(t *testing.T) {
	service, err := NewServiceWithClient(getTestMailConfig(), nil, &MockMailClient{})
	require.NoError(t, err)

	t.Run("verification email", func(t *testing.T) {
		body, err := service.Render(TemplateVerifyEmail, TemplateData{
			"Name": "resident@example.com",
			"City": "Toronto",
			"Link": "https://alerts.example.com/alerts?action=verify&token=abc",
		})

		require.NoError(t, err)
		assert.Equal(t, "Hi resident@example.com,\n\n"+
			"Please verify your email for City alerts (Toronto).\n"+
			"Click to confirm: https://alerts.example.com/alerts?action=verify&token=abc\n\n"+
			"If you didn't request this, you can ignore this email.", body)
	})

	t.Run("new issue", func(t *testing.T) {
		body, err := service.Render(TemplateIssueNew, TemplateData{"Type": "Pothole", "Title": "Big hole"})

		require.NoError(t, err)
		assert.Equal(t, "A new \"Pothole\" was reported: Big hole\nOpen the app for details.", body)
	})

	t.Run("resolved issue", func(t *testing.T) {
		body, err := service.Render(TemplateIssueResolved, TemplateData{"Title": "Big hole"})

		require.NoError(t, err)
		assert.Equal(t, "\"Big hole\" was marked resolved.\nOpen the app for details.", body)
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := service.Render("missing", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "template 'missing' not found")
	})
}

func TestService_SendTemplate(t *testing.T) {
	client := &MockMailClient{}
	service, err := NewServiceWithClient(getTestMailConfig(), nil, client)
	require.NoError(t, err)

	err = service.SendTemplate(context.Background(), TemplateIssueResolved, []string{"a@example.com"},
		"Issue resolved in Toronto: Big hole", TemplateData{"Title": "Big hole"})

	require.NoError(t, err)
	require.Len(t, client.messages, 1)
	assert.Equal(t, "\"Big hole\" was marked resolved.\nOpen the app for details.", bodyOf(t, client.messages[0]))

	err = service.SendTemplate(context.Background(), "missing", []string{"a@example.com"}, "s", nil)
	assert.Error(t, err)
	assert.Len(t, client.messages, 1)
}

func TestClientOptions(t *testing.T) {
	for _, enc := range []string{"ssl", "tls", "starttls", "none"} {
		t.Run(enc, func(t *testing.T) {
			cfg := getTestMailConfig()
			cfg.Encryption = enc

			client, err := mail.NewClient(cfg.Host, clientOptions(cfg)...)

			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
