package email

import (
	"context"
	"fmt"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "MiraKYC"

// SendGridProvider implements EmailProvider for SendGrid
type SendGridProvider struct {
	config *config.NotificationConfiguration
}

// NewSendGridProvider creates a new SendGrid provider
func NewSendGridProvider(config *config.NotificationConfiguration) *SendGridProvider {
	return &SendGridProvider{
		config: config,
	}
}

func (s *SendGridProvider) host() string {
	return fmt.Sprintf("https://%s", s.config.EmailDomain)
}

// SendEmail sends an email via SendGrid
func (s *SendGridProvider) SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error) {
	m := mail.NewV3Mail()
	m.Subject = payload.Subject
	m.SetFrom(mail.NewEmail(senderName, payload.FromAddress))
	m.AddContent(mail.NewContent("text/plain", payload.Body))
	if payload.HTMLBody != "" {
		m.AddContent(mail.NewContent("text/html", payload.HTMLBody))
	}

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", payload.ToAddress))
	m.AddPersonalizations(p)

	request := sendgrid.GetRequest(s.config.EmailAPIKey, "/v3/mail/send", s.host())
	request.Method = "POST"
	request.Body = mail.GetRequestBody(m)
	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		logger.Errorf("Failed to send email via SendGrid: %v", err)
		return types.SendEmailResponse{}, fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		logger.Errorf("SendGrid rejected email: %d %s", response.StatusCode, response.Body)
		return types.SendEmailResponse{}, fmt.Errorf("sendgrid send error: status %d", response.StatusCode)
	}

	var messageID string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	return types.SendEmailResponse{
		Id:       messageID,
		Response: response.Body,
	}, nil
}

// SendTemplateEmail sends a dynamic template email via SendGrid
func (s *SendGridProvider) SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, templateID string) (types.SendEmailResponse, error) {
	reqBody := map[string]interface{}{
		"from": map[string]string{
			"email": payload.FromAddress,
			"name":  senderName,
		},
		"personalizations": []map[string]interface{}{
			{
				"to": []map[string]string{
					{"email": payload.ToAddress},
				},
				"dynamic_template_data": payload.DynamicData,
			},
		},
		"template_id": templateID,
	}

	res, err := fastshot.NewClient(s.host()).
		Config().SetTimeout(30*time.Second).
		Auth().BearerToken(s.config.EmailAPIKey).
		Header().Add("Content-Type", "application/json").
		Build().POST("/v3/mail/send").
		Body().AsJSON(reqBody).
		Send()
	if err != nil {
		logger.Errorf("Failed to send template email via SendGrid: %v", err)
		return types.SendEmailResponse{}, fmt.Errorf("sendgrid template send error: %w", err)
	}

	if _, err = utils.ParseJSONResponse(res.RawResponse); err != nil {
		logger.Errorf("SendGrid template request failed: %v", err)
		return types.SendEmailResponse{}, fmt.Errorf("sendgrid template send error: %w", err)
	}

	return types.SendEmailResponse{
		Response: res.RawResponse.Status,
		Id:       res.RawResponse.Header.Get("X-Message-Id"),
	}, nil
}

// GetName returns the provider name
func (s *SendGridProvider) GetName() string {
	return "sendgrid"
}
