package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	name              string
	sendErr           error
	sendTemplateErr   error
	lastTemplateID    string
	responseToReturn  types.SendEmailResponse
	callCount         int64
	templateCallCount int64
	lastPayload       types.SendEmailPayload
	mu                sync.RWMutex
}

func (m *mockProvider) GetName() string {
	return m.name
}

func (m *mockProvider) SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error) {
	atomic.AddInt64(&m.callCount, 1)
	m.mu.Lock()
	m.lastPayload = payload
	m.mu.Unlock()
	return m.responseToReturn, m.sendErr
}

func (m *mockProvider) SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, templateID string) (types.SendEmailResponse, error) {
	atomic.AddInt64(&m.templateCallCount, 1)
	m.mu.Lock()
	m.lastTemplateID = templateID
	m.lastPayload = payload
	m.mu.Unlock()
	return m.responseToReturn, m.sendTemplateErr
}

// GetCallCount returns the current call count safely
func (m *mockProvider) GetCallCount() int64 {
	return atomic.LoadInt64(&m.callCount)
}

// GetTemplateCallCount returns the current template call count safely
func (m *mockProvider) GetTemplateCallCount() int64 {
	return atomic.LoadInt64(&m.templateCallCount)
}

// GetLastTemplateID returns the last template ID safely
func (m *mockProvider) GetLastTemplateID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTemplateID
}

// GetLastPayload returns the last payload safely
func (m *mockProvider) GetLastPayload() types.SendEmailPayload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPayload
}

func enabledConf() *config.NotificationConfiguration {
	return &config.NotificationConfiguration{
		Enabled:          true,
		EmailFromAddress: "no-reply@mirakyc.com",
	}
}

func TestSendEmail(t *testing.T) {
	t.Run("primary succeeds", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", responseToReturn: types.SendEmailResponse{Id: "123"}}
		fallback := &mockProvider{name: "mailgun"}
		service := NewEmailServiceWithProviders(enabledConf(), primary, fallback)

		resp, err := service.SendEmail(context.Background(), types.SendEmailPayload{ToAddress: "ada@example.com"})
		assert.NoError(t, err)
		assert.Equal(t, "123", resp.Id)
		assert.Equal(t, int64(1), primary.GetCallCount())
		assert.Equal(t, int64(0), fallback.GetCallCount())
		assert.Equal(t, "ada@example.com", primary.GetLastPayload().ToAddress)
	})

	t.Run("falls back", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", sendErr: errors.New("primary failed")}
		fallback := &mockProvider{name: "mailgun", responseToReturn: types.SendEmailResponse{Id: "456"}}
		service := NewEmailServiceWithProviders(enabledConf(), primary, fallback)

		resp, err := service.SendEmail(context.Background(), types.SendEmailPayload{})
		assert.NoError(t, err)
		assert.Equal(t, "456", resp.Id)
		assert.Equal(t, int64(1), fallback.GetCallCount())
	})

	t.Run("all providers fail", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", sendErr: errors.New("primary failed")}
		fallback := &mockProvider{name: "mailgun", sendErr: errors.New("fallback failed")}
		service := NewEmailServiceWithProviders(enabledConf(), primary, fallback)

		_, err := service.SendEmail(context.Background(), types.SendEmailPayload{})
		assert.ErrorContains(t, err, "all email providers failed")
	})

	t.Run("no fallback", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", sendErr: errors.New("primary failed")}
		service := NewEmailServiceWithProviders(enabledConf(), primary, nil)

		_, err := service.SendEmail(context.Background(), types.SendEmailPayload{})
		assert.ErrorContains(t, err, "no fallback provider available")
	})
}

func TestSendTemplateEmail(t *testing.T) {
	t.Run("each provider gets its own template", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", sendTemplateErr: errors.New("primary failed")}
		fallback := &mockProvider{name: "mailgun", responseToReturn: types.SendEmailResponse{Id: "fallback-456"}}
		service := NewEmailServiceWithProviders(enabledConf(), primary, fallback)

		resp, err := service.SendTemplateEmail(context.Background(), types.SendEmailPayload{}, TypeStatusUpdate)
		assert.NoError(t, err)
		assert.Equal(t, "fallback-456", resp.Id)
		assert.Equal(t, getTemplateID(TypeStatusUpdate, "sendgrid"), primary.GetLastTemplateID())
		assert.Equal(t, "mailgun-status-update", fallback.GetLastTemplateID())
	})

	t.Run("all providers fail", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", sendTemplateErr: errors.New("primary failed")}
		fallback := &mockProvider{name: "mailgun", sendTemplateErr: errors.New("fallback failed")}
		service := NewEmailServiceWithProviders(enabledConf(), primary, fallback)

		_, err := service.SendTemplateEmail(context.Background(), types.SendEmailPayload{}, TypeStatusUpdate)
		assert.ErrorContains(t, err, "all email providers failed for template")
		assert.Equal(t, int64(1), primary.GetTemplateCallCount())
		assert.Equal(t, int64(1), fallback.GetTemplateCallCount())
	})
}

func TestNotificationEmails(t *testing.T) {
	ctx := context.Background()

	t.Run("submission receipt", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid", responseToReturn: types.SendEmailResponse{Id: "r1"}}
		service := NewEmailServiceWithProviders(enabledConf(), primary, nil)

		resp, err := service.SendSubmissionReceipt(ctx, "ada@example.com", "0xabc", "https://testnet.bscscan.com/tx/0xabc")
		require.NoError(t, err)
		assert.Equal(t, "r1", resp.Id)

		payload := primary.GetLastPayload()
		assert.Equal(t, "no-reply@mirakyc.com", payload.FromAddress)
		assert.Equal(t, "ada@example.com", payload.ToAddress)
		assert.Equal(t, "0xabc", payload.DynamicData["tx_hash"])
		assert.Equal(t, "https://testnet.bscscan.com/tx/0xabc", payload.DynamicData["explorer_url"])
		assert.Equal(t, getTemplateID(TypeSubmissionReceipt, "sendgrid"), primary.GetLastTemplateID())
	})

	t.Run("status update", func(t *testing.T) {
		primary := &mockProvider{name: "mailgun"}
		service := NewEmailServiceWithProviders(enabledConf(), primary, nil)

		_, err := service.SendStatusUpdate(ctx, "ada@example.com", types.KYCStatusRejected, "blurry selfie")
		require.NoError(t, err)

		payload := primary.GetLastPayload()
		assert.Equal(t, "rejected", payload.DynamicData["status"])
		assert.Equal(t, "blurry selfie", payload.DynamicData["reason"])
		assert.Equal(t, "mailgun-status-update", primary.GetLastTemplateID())
	})

	t.Run("disabled notifications send nothing", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid"}
		service := NewEmailServiceWithProviders(&config.NotificationConfiguration{}, primary, nil)

		_, err := service.SendWithdrawalReceipt(ctx, "ops@example.com", "10", "0xabc", "")
		assert.ErrorIs(t, err, ErrEmailDisabled)
		assert.Equal(t, int64(0), primary.GetTemplateCallCount())
	})

	t.Run("concurrent sends", func(t *testing.T) {
		primary := &mockProvider{name: "sendgrid"}
		service := NewEmailServiceWithProviders(enabledConf(), primary, nil)

		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := service.SendSubmissionReceipt(ctx, "ada@example.com", "0xabc", "")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(3), primary.GetTemplateCallCount())
	})
}

func TestGetTemplateID(t *testing.T) {
	assert.Equal(t, "mailgun-submission-receipt", getTemplateID(TypeSubmissionReceipt, "mailgun"))
	assert.Equal(t, getTemplateID(TypeSubmissionReceipt, "sendgrid"), getTemplateID(TypeSubmissionReceipt, "unknown"))
	assert.Empty(t, getTemplateID("unknown", "sendgrid"))
	assert.Empty(t, getTemplateID("", ""))
}

func TestProviderFactory(t *testing.T) {
	factory := NewProviderFactory(&config.NotificationConfiguration{
		EmailDomain:   "api.sendgrid.com",
		EmailAPIKey:   "key",
		MailgunDomain: "mg.mirakyc.com",
		MailgunAPIKey: "mg-key",
	})

	provider, err := factory.GetDefaultProvider()
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", provider.GetName())

	provider, err = factory.CreateProvider("mailgun")
	require.NoError(t, err)
	assert.Equal(t, "mailgun", provider.GetName())

	_, err = factory.CreateProvider("brevo")
	assert.ErrorContains(t, err, "unsupported email provider")

	_, err = NewProviderFactory(&config.NotificationConfiguration{EmailDomain: "api.sendgrid.com", EmailAPIKey: "key"}).CreateProvider("mailgun")
	assert.Error(t, err, "shared settings belong to sendgrid")

	provider, err = NewProviderFactory(&config.NotificationConfiguration{
		EmailProvider: "mailgun",
		EmailDomain:   "mg.mirakyc.com",
		EmailAPIKey:   "key",
	}).GetDefaultProvider()
	require.NoError(t, err)
	assert.Equal(t, "mailgun", provider.GetName())
}

func TestNewEmailService(t *testing.T) {
	conf := &config.NotificationConfiguration{
		EmailDomain:   "api.sendgrid.com",
		EmailAPIKey:   "sg-key",
		EmailProvider: "sendgrid",
	}

	service, err := NewEmailService(conf)
	require.NoError(t, err)
	assert.Nil(t, service.fallbackProvider, "mailgun is skipped without credentials")

	conf.MailgunDomain = "mg.mirakyc.com"
	conf.MailgunAPIKey = "mg-key"
	service, err = NewEmailService(conf)
	require.NoError(t, err)
	require.NotNil(t, service.fallbackProvider)
	assert.Equal(t, "mailgun", service.fallbackProvider.GetName())
}

func TestSendGridProvider(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var captured map[string]interface{}
	httpmock.RegisterResponder("POST", "https://api.sendgrid.com/v3/mail/send",
		func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				return nil, err
			}
			resp := httpmock.NewStringResponse(http.StatusAccepted, "")
			resp.Header.Set("X-Message-Id", "sg-msg-1")
			return resp, nil
		},
	)

	provider := NewSendGridProvider(&config.NotificationConfiguration{EmailDomain: "api.sendgrid.com", EmailAPIKey: "sg-key"})
	resp, err := provider.SendTemplateEmail(context.Background(), types.SendEmailPayload{
		FromAddress: "no-reply@mirakyc.com",
		ToAddress:   "ada@example.com",
		DynamicData: map[string]interface{}{"tx_hash": "0xabc"},
	}, "d-template")
	require.NoError(t, err)
	assert.Equal(t, "sg-msg-1", resp.Id)
	assert.Equal(t, "d-template", captured["template_id"])

	httpmock.RegisterResponder("POST", "https://api.sendgrid.com/v3/mail/send",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"errors":[{"message":"bad key"}]}`))

	_, err = provider.SendTemplateEmail(context.Background(), types.SendEmailPayload{ToAddress: "ada@example.com"}, "d-template")
	assert.ErrorContains(t, err, "401")
}

func TestMailgunProvider(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", "https://api.mailgun.net/v3/mg.mirakyc.com/messages",
		httpmock.NewStringResponder(http.StatusOK, `{"id":"<mg-1@mg.mirakyc.com>","message":"Queued. Thank you."}`))

	provider, err := NewMailgunProvider(&config.NotificationConfiguration{MailgunDomain: "mg.mirakyc.com", MailgunAPIKey: "mg-key"})
	require.NoError(t, err)

	resp, err := provider.SendTemplateEmail(context.Background(), types.SendEmailPayload{
		FromAddress: "no-reply@mirakyc.com",
		ToAddress:   "ada@example.com",
		DynamicData: map[string]interface{}{"tx_hash": "0xabc", "explorer_url": ""},
	}, "mailgun-submission-receipt")
	require.NoError(t, err)
	assert.Equal(t, "<mg-1@mg.mirakyc.com>", resp.Id)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	_, err = provider.SendTemplateEmail(context.Background(), types.SendEmailPayload{}, "d-sendgrid-only")
	assert.ErrorContains(t, err, "unknown template")
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
