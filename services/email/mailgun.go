package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	mailgunv3 "github.com/mailgun/mailgun-go/v3"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils/logger"
)

type mailgunTemplate struct {
	subject string
	body    *template.Template
}

// Mailgun has no stored templates on our account, so receipts are rendered here
var mailgunTemplates = map[string]mailgunTemplate{
	"mailgun-submission-receipt": {
		subject: "Your MiraKYC verification was submitted",
		body: template.Must(template.New("submission_receipt").Parse(
			"Hi,\n\nWe received your KYC submission.\n\nTransaction: {{.tx_hash}}\n{{if .explorer_url}}View it at {{.explorer_url}}\n{{end}}\nWe will email you once it has been reviewed.\n\nMiraKYC\n")),
	},
	"mailgun-status-update": {
		subject: "Your MiraKYC verification status changed",
		body: template.Must(template.New("status_update").Parse(
			"Hi,\n\nYour verification is now {{.status}}.\n{{if .reason}}Reason: {{.reason}}\n{{end}}\nMiraKYC\n")),
	},
	"mailgun-withdrawal-receipt": {
		subject: "MiraKYC contract withdrawal",
		body: template.Must(template.New("withdrawal_receipt").Parse(
			"{{.amount}} USDT was withdrawn from the KYC contract.\n\nTransaction: {{.tx_hash}}\n{{if .explorer_url}}View it at {{.explorer_url}}\n{{end}}")),
	},
}

// MailgunProvider implements EmailProvider for Mailgun
type MailgunProvider struct {
	config *config.NotificationConfiguration
	client mailgunv3.Mailgun
}

// NewMailgunProvider creates a Mailgun provider from the MAILGUN_* settings. When Mailgun is
// the primary provider the shared EMAIL_DOMAIN and EMAIL_API_KEY fill in what is missing.
func NewMailgunProvider(conf *config.NotificationConfiguration) (*MailgunProvider, error) {
	if conf == nil {
		return nil, errors.New("mailgun: configuration is nil")
	}

	domain, apiKey := conf.MailgunDomain, conf.MailgunAPIKey
	if conf.EmailProvider == "mailgun" {
		if domain == "" {
			domain = conf.EmailDomain
		}
		if apiKey == "" {
			apiKey = conf.EmailAPIKey
		}
	}
	if domain == "" || apiKey == "" {
		return nil, errors.New("mailgun: domain and api key are required")
	}

	return &MailgunProvider{
		config: conf,
		client: mailgunv3.NewMailgun(domain, apiKey),
	}, nil
}

// SendEmail sends an email via Mailgun
func (m *MailgunProvider) SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error) {
	message := m.client.NewMessage(
		payload.FromAddress,
		payload.Subject,
		payload.Body,
		payload.ToAddress,
	)
	if payload.HTMLBody != "" {
		message.SetHtml(payload.HTMLBody)
	}

	response, id, err := m.client.Send(ctx, message)
	if err != nil {
		logger.Errorf("Failed to send email via Mailgun: %v", err)
		return types.SendEmailResponse{}, fmt.Errorf("mailgun send error: %w", err)
	}

	return types.SendEmailResponse{
		Id:       id,
		Response: response,
	}, nil
}

// SendTemplateEmail renders one of the built-in templates and sends it as a plain email
func (m *MailgunProvider) SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, templateID string) (types.SendEmailResponse, error) {
	tmpl, ok := mailgunTemplates[templateID]
	if !ok {
		return types.SendEmailResponse{}, fmt.Errorf("mailgun: unknown template %q", templateID)
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, payload.DynamicData); err != nil {
		return types.SendEmailResponse{}, fmt.Errorf("mailgun: render %s: %w", templateID, err)
	}

	payload.Subject = tmpl.subject
	payload.Body = body.String()
	return m.SendEmail(ctx, payload)
}

// GetName returns the provider name
func (m *MailgunProvider) GetName() string {
	return "mailgun"
}
