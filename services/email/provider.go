package email

import (
	"context"
	"fmt"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
)

// EmailProvider is a transport able to deliver plain and template emails
type EmailProvider interface {
	SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error)
	SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, templateID string) (types.SendEmailResponse, error)
	GetName() string
}

// ProviderFactory creates email providers from the notification configuration
type ProviderFactory struct {
	config *config.NotificationConfiguration
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *config.NotificationConfiguration) *ProviderFactory {
	return &ProviderFactory{config: config}
}

// CreateProvider creates an email provider by name
func (pf *ProviderFactory) CreateProvider(providerName string) (EmailProvider, error) {
	switch providerName {
	case "mailgun":
		provider, err := NewMailgunProvider(pf.config)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "sendgrid":
		return NewSendGridProvider(pf.config), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", providerName)
	}
}

// GetDefaultProvider returns the configured provider, SendGrid when unset
func (pf *ProviderFactory) GetDefaultProvider() (EmailProvider, error) {
	providerName := pf.config.EmailProvider
	if providerName == "" {
		providerName = "sendgrid"
	}
	return pf.CreateProvider(providerName)
}
