package verification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://verify.example.com"

func validUpdate() types.KYCDocumentUpdate {
	return types.KYCDocumentUpdate{
		Email:         "ada@example.com",
		WalletAddress: "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
		IDType:        "passport",
		DocumentFront: "data:image/png;base64,iVBORw0KGgo=",
		Selfie:        "data:image/jpeg;base64,/9j/4AAQ",
		PersonalInfo: &types.PersonalInfo{
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Email:       "ada@example.com",
			DateOfBirth: "1990-12-10",
		},
	}
}

func TestCheckStatusByEmail(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := NewClient(baseURL+"/", "secret-key", 5*time.Second)
	ctx := context.Background()

	t.Run("returns the backend status", func(t *testing.T) {
		httpmock.RegisterResponder("GET", baseURL+"/kyc/status",
			func(r *http.Request) (*http.Response, error) {
				assert.Equal(t, "ada@example.com", r.URL.Query().Get("email"))
				assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
				return httpmock.NewJsonResponse(200, map[string]interface{}{
					"status":        "approved",
					"email":         "ada@example.com",
					"walletAddress": "0xabc",
					"submissionId":  "sub_1",
					"updatedAt":     "2024-01-02T03:04:05Z",
				})
			})

		status, err := client.CheckStatusByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, types.KYCStatusApproved, status.Status)
		assert.Equal(t, "sub_1", status.SubmissionID)
	})

	t.Run("unwraps a data envelope", func(t *testing.T) {
		httpmock.RegisterResponder("GET", baseURL+"/kyc/status",
			httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
				"status": "success",
				"data": map[string]interface{}{
					"status": "rejected",
					"reason": "blurry document",
				},
			}))

		status, err := client.CheckStatusByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, types.KYCStatusRejected, status.Status)
		assert.Equal(t, "blurry document", status.Reason)
		assert.Equal(t, "ada@example.com", status.Email)
	})

	t.Run("not found", func(t *testing.T) {
		httpmock.RegisterResponder("GET", baseURL+"/kyc/status",
			httpmock.NewJsonResponderOrPanic(404, map[string]interface{}{"message": "no request"}))

		_, err := client.CheckStatusByEmail(ctx, "nobody@example.com")
		assert.Equal(t, kycErrors.ErrNotFound{}, err)
	})

	t.Run("server error carries the message", func(t *testing.T) {
		httpmock.RegisterResponder("GET", baseURL+"/kyc/status",
			httpmock.NewJsonResponderOrPanic(500, map[string]interface{}{"message": "database unavailable"}))

		_, err := client.CheckStatusByEmail(ctx, "ada@example.com")
		var providerErr kycErrors.ErrProviderResponse
		require.ErrorAs(t, err, &providerErr)
		assert.Contains(t, err.Error(), "database unavailable")
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("transport failure", func(t *testing.T) {
		httpmock.RegisterResponder("GET", baseURL+"/kyc/status",
			httpmock.NewErrorResponder(errors.New("connection refused")))

		_, err := client.CheckStatusByEmail(ctx, "ada@example.com")
		var unreachable kycErrors.ErrProviderUnreachable
		assert.ErrorAs(t, err, &unreachable)
	})
}

func TestUpdateKYCDocuments(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := NewClient(baseURL, "secret-key", 0)
	ctx := context.Background()

	t.Run("sends the payload", func(t *testing.T) {
		httpmock.RegisterResponder("PUT", baseURL+"/kyc/documents",
			func(r *http.Request) (*http.Response, error) {
				var body types.KYCDocumentUpdate
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "passport", body.IDType)
				assert.Equal(t, "Ada", body.PersonalInfo.FirstName)
				return httpmock.NewJsonResponse(200, map[string]interface{}{
					"status": "pending",
					"email":  body.Email,
				})
			})

		status, err := client.UpdateKYCDocuments(ctx, validUpdate())
		require.NoError(t, err)
		assert.Equal(t, types.KYCStatusPending, status.Status)
	})

	t.Run("rejects an invalid payload before sending", func(t *testing.T) {
		httpmock.ZeroCallCounters()

		payload := validUpdate()
		payload.Selfie = "https://example.com/selfie.png"
		payload.Email = "not-an-email"

		_, err := client.UpdateKYCDocuments(ctx, payload)
		var invalid kycErrors.ErrInvalidPayload
		require.ErrorAs(t, err, &invalid)
		assert.Contains(t, err.Error(), "selfie")
		assert.Contains(t, err.Error(), "email")
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})

	t.Run("unknown request", func(t *testing.T) {
		httpmock.RegisterResponder("PUT", baseURL+"/kyc/documents",
			httpmock.NewStringResponder(404, ""))

		_, err := client.UpdateKYCDocuments(ctx, validUpdate())
		assert.Equal(t, kycErrors.ErrNotFound{}, err)
	})
}

func TestValidateDocumentUpdate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*types.KYCDocumentUpdate)
		valid  bool
	}{
		{"complete payload", func(p *types.KYCDocumentUpdate) {}, true},
		{"optional back side", func(p *types.KYCDocumentUpdate) {
			p.IDType = "national_id"
			p.DocumentBack = "data:image/webp;base64,UklGRg=="
		}, true},
		{"missing selfie", func(p *types.KYCDocumentUpdate) { p.Selfie = "" }, false},
		{"bad wallet address", func(p *types.KYCDocumentUpdate) { p.WalletAddress = "0x123" }, false},
		{"bad birth date", func(p *types.KYCDocumentUpdate) { p.PersonalInfo.DateOfBirth = "10/12/1990" }, false},
		{"non image data url", func(p *types.KYCDocumentUpdate) {
			p.DocumentFront = "data:application/pdf;base64,JVBERi0="
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validUpdate()
			tt.modify(&payload)

			err := ValidateDocumentUpdate(payload)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
