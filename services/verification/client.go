package verification

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils/logger"
	fastshot "github.com/opus-domini/fast-shot"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/document_update.json
var documentUpdateSchema []byte

var documentSchemaLoader = gojsonschema.NewBytesLoader(documentUpdateSchema)

// Client talks to the verification backend API
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

// NewClient creates a backend API client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// responseError reads the backend's error message out of a failed response
func responseError(code int, body string) error {
	message := gjson.Get(body, "message").String()
	if message == "" {
		message = gjson.Get(body, "error").String()
	}
	if message == "" {
		message = strings.TrimSpace(body)
	}
	return kycErrors.ErrProviderResponse{Err: fmt.Errorf("status %d: %s", code, message)}
}

// decodeStatus accepts both a bare status object and one wrapped in a data envelope
func decodeStatus(body string) (*types.BackendKYCStatus, error) {
	payload := body
	if data := gjson.Get(body, "data"); data.Exists() && data.IsObject() {
		payload = data.Raw
	}

	var status types.BackendKYCStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// CheckStatusByEmail returns the backend verification status for an email
func (c *Client) CheckStatusByEmail(ctx context.Context, email string) (*types.BackendKYCStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := fastshot.NewClient(c.baseURL).
		Config().SetTimeout(c.timeout).
		Auth().BearerToken(c.apiKey).
		Header().AddAll(map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}).Build().GET("/kyc/status").
		Query().AddParams(map[string]string{"email": email}).
		Send()
	if err != nil {
		logger.WithFields(logger.Fields{
			"Email": email,
			"Error": err.Error(),
		}).Errorf("Failed to reach verification backend")
		return nil, kycErrors.ErrProviderUnreachable{Err: err}
	}

	body, err := res.Body().AsString()
	if err != nil {
		return nil, kycErrors.ErrProviderUnreachable{Err: err}
	}

	if res.Status().Code() == http.StatusNotFound {
		return nil, kycErrors.ErrNotFound{}
	}
	if res.Status().IsError() {
		return nil, responseError(res.Status().Code(), body)
	}

	status, err := decodeStatus(body)
	if err != nil {
		return nil, kycErrors.ErrProviderResponse{Err: err}
	}
	if status.Email == "" {
		status.Email = email
	}
	return status, nil
}

// ValidateDocumentUpdate checks a document update payload against the embedded schema
func ValidateDocumentUpdate(payload types.KYCDocumentUpdate) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return kycErrors.ErrInvalidPayload{Err: err}
	}

	result, err := gojsonschema.Validate(documentSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return kycErrors.ErrInvalidPayload{Err: fmt.Errorf("failed to validate schema: %w", err)}
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return kycErrors.ErrInvalidPayload{Err: errors.New(strings.Join(problems, "; "))}
	}
	return nil
}

// UpdateKYCDocuments replaces the documents of an existing verification request
func (c *Client) UpdateKYCDocuments(ctx context.Context, payload types.KYCDocumentUpdate) (*types.BackendKYCStatus, error) {
	if err := ValidateDocumentUpdate(payload); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := fastshot.NewClient(c.baseURL).
		Config().SetTimeout(c.timeout).
		Auth().BearerToken(c.apiKey).
		Header().AddAll(map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}).Build().PUT("/kyc/documents").
		Body().AsJSON(payload).
		Send()
	if err != nil {
		logger.WithFields(logger.Fields{
			"Email":   payload.Email,
			"Address": payload.WalletAddress,
			"Error":   err.Error(),
		}).Errorf("Failed to reach verification backend")
		return nil, kycErrors.ErrProviderUnreachable{Err: err}
	}

	body, err := res.Body().AsString()
	if err != nil {
		return nil, kycErrors.ErrProviderUnreachable{Err: err}
	}

	if res.Status().Code() == http.StatusNotFound {
		return nil, kycErrors.ErrNotFound{}
	}
	if res.Status().IsError() {
		return nil, responseError(res.Status().Code(), body)
	}

	status, err := decodeStatus(body)
	if err != nil {
		return nil, kycErrors.ErrProviderResponse{Err: err}
	}

	logger.WithFields(logger.Fields{
		"Email":  payload.Email,
		"Status": status.Status,
	}).Infof("KYC documents updated")

	return status, nil
}
