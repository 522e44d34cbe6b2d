package email

import (
	"context"

	"github.com/mirakyc/onboarding/types"
)

// EmailServiceInterface is the notification surface used by controllers and the CLI
type EmailServiceInterface interface {
	SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error)
	SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, emailType string) (types.SendEmailResponse, error)
	SendSubmissionReceipt(ctx context.Context, email, txHash, explorerURL string) (types.SendEmailResponse, error)
	SendStatusUpdate(ctx context.Context, email string, status types.KYCStatus, reason string) (types.SendEmailResponse, error)
	SendWithdrawalReceipt(ctx context.Context, email, amount, txHash, explorerURL string) (types.SendEmailResponse, error)
}

var _ EmailServiceInterface = (*EmailService)(nil)
