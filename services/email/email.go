package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils/logger"
)

// ErrEmailDisabled is returned when notifications are switched off
var ErrEmailDisabled = errors.New("email notifications are disabled")

// Email types with a template per provider
const (
	TypeSubmissionReceipt = "submission_receipt"
	TypeStatusUpdate      = "status_update"
	TypeWithdrawalReceipt = "withdrawal_receipt"
)

// EmailService sends notifications through a primary provider with a fallback
type EmailService struct {
	primaryProvider  EmailProvider
	fallbackProvider EmailProvider
	notificationConf *config.NotificationConfiguration
}

// NewEmailService creates an EmailService from the notification configuration.
// The fallback is whichever of SendGrid and Mailgun is not primary, when configured.
func NewEmailService(conf *config.NotificationConfiguration) (*EmailService, error) {
	factory := NewProviderFactory(conf)

	primaryProvider, err := factory.GetDefaultProvider()
	if err != nil {
		return nil, fmt.Errorf("primary email provider: %w", err)
	}

	fallbackName := "sendgrid"
	if primaryProvider.GetName() == "sendgrid" {
		fallbackName = "mailgun"
	}
	fallbackProvider, err := factory.CreateProvider(fallbackName)
	if err != nil {
		logger.WithFields(logger.Fields{
			"provider": fallbackName,
			"error":    err.Error(),
		}).Warnf("Email fallback provider unavailable")
		fallbackProvider = nil
	}

	return NewEmailServiceWithProviders(conf, primaryProvider, fallbackProvider), nil
}

// NewEmailServiceWithProviders wires an EmailService around explicit providers
func NewEmailServiceWithProviders(conf *config.NotificationConfiguration, primary, fallback EmailProvider) *EmailService {
	return &EmailService{
		primaryProvider:  primary,
		fallbackProvider: fallback,
		notificationConf: conf,
	}
}

// SendEmail sends an email with fallback support
func (e *EmailService) SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error) {
	response, err := e.primaryProvider.SendEmail(ctx, payload)
	if err == nil {
		return response, nil
	}

	logger.WithFields(logger.Fields{
		"primary_provider": e.primaryProvider.GetName(),
		"error":            err.Error(),
	}).Warnf("Primary email provider failed, trying fallback")

	if e.fallbackProvider == nil {
		return types.SendEmailResponse{}, fmt.Errorf("no fallback provider available: %w", err)
	}

	response, err = e.fallbackProvider.SendEmail(ctx, payload)
	if err != nil {
		logger.WithFields(logger.Fields{
			"fallback_provider": e.fallbackProvider.GetName(),
			"error":             err.Error(),
		}).Errorf("Fallback email provider also failed")
		return types.SendEmailResponse{}, fmt.Errorf("all email providers failed: %w", err)
	}

	logger.WithFields(logger.Fields{
		"fallback_provider": e.fallbackProvider.GetName(),
	}).Infof("Email sent via fallback provider")
	return response, nil
}

// SendTemplateEmail sends the email type through the primary provider's template,
// then through the fallback provider's own template for the same type
func (e *EmailService) SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, emailType string) (types.SendEmailResponse, error) {
	templateID := getTemplateID(emailType, e.primaryProvider.GetName())
	response, err := e.primaryProvider.SendTemplateEmail(ctx, payload, templateID)
	if err == nil {
		return response, nil
	}

	logger.WithFields(logger.Fields{
		"primary_provider": e.primaryProvider.GetName(),
		"template_id":      templateID,
		"error":            err.Error(),
	}).Warnf("Primary email provider failed for template, trying fallback")

	if e.fallbackProvider == nil {
		return types.SendEmailResponse{}, fmt.Errorf("no fallback provider available for template: %w", err)
	}

	templateID = getTemplateID(emailType, e.fallbackProvider.GetName())
	response, err = e.fallbackProvider.SendTemplateEmail(ctx, payload, templateID)
	if err != nil {
		logger.WithFields(logger.Fields{
			"fallback_provider": e.fallbackProvider.GetName(),
			"template_id":       templateID,
			"error":             err.Error(),
		}).Errorf("Fallback email provider also failed for template")
		return types.SendEmailResponse{}, fmt.Errorf("all email providers failed for template: %w", err)
	}

	logger.WithFields(logger.Fields{
		"fallback_provider": e.fallbackProvider.GetName(),
		"template_id":       templateID,
	}).Infof("Template email sent via fallback provider")
	return response, nil
}

func (e *EmailService) sendTyped(ctx context.Context, to, emailType string, data map[string]interface{}) (types.SendEmailResponse, error) {
	if !e.notificationConf.Enabled {
		return types.SendEmailResponse{}, ErrEmailDisabled
	}

	payload := types.SendEmailPayload{
		FromAddress: e.notificationConf.EmailFromAddress,
		ToAddress:   to,
		DynamicData: data,
	}
	return e.SendTemplateEmail(ctx, payload, emailType)
}

// SendSubmissionReceipt confirms an on-chain KYC submission to the applicant
func (e *EmailService) SendSubmissionReceipt(ctx context.Context, email, txHash, explorerURL string) (types.SendEmailResponse, error) {
	return e.sendTyped(ctx, email, TypeSubmissionReceipt, map[string]interface{}{
		"email":        email,
		"tx_hash":      txHash,
		"explorer_url": explorerURL,
	})
}

// SendStatusUpdate tells the applicant their verification status changed
func (e *EmailService) SendStatusUpdate(ctx context.Context, email string, status types.KYCStatus, reason string) (types.SendEmailResponse, error) {
	return e.sendTyped(ctx, email, TypeStatusUpdate, map[string]interface{}{
		"email":  email,
		"status": string(status),
		"reason": reason,
	})
}

// SendWithdrawalReceipt notifies an operator of a contract withdrawal
func (e *EmailService) SendWithdrawalReceipt(ctx context.Context, email, amount, txHash, explorerURL string) (types.SendEmailResponse, error) {
	return e.sendTyped(ctx, email, TypeWithdrawalReceipt, map[string]interface{}{
		"amount":       amount,
		"tx_hash":      txHash,
		"explorer_url": explorerURL,
	})
}

// getTemplateID returns the template ID for an email type on a provider
func getTemplateID(emailType, provider string) string {
	templates := map[string]map[string]string{
		"sendgrid": {
			TypeSubmissionReceipt: "d-3f0c1e9a7b6d4b0e8f51c2a4d9e7b613",
			TypeStatusUpdate:      "d-8a24c6f1e0b94d7c9b3e5f7a1c2d4e86",
			TypeWithdrawalReceipt: "d-5c7e9a1b3d5f4e6a8c0b2d4f6a8c0e21",
		},
		"mailgun": {
			TypeSubmissionReceipt: "mailgun-submission-receipt",
			TypeStatusUpdate:      "mailgun-status-update",
			TypeWithdrawalReceipt: "mailgun-withdrawal-receipt",
		},
	}

	if providerTemplates, exists := templates[provider]; exists {
		if templateID, exists := providerTemplates[emailType]; exists {
			return templateID
		}
	}

	if provider != "sendgrid" {
		return getTemplateID(emailType, "sendgrid")
	}
	return ""
}
