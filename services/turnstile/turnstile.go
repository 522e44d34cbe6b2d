package turnstile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/tidwall/gjson"
)

var (
	// ErrMissingToken is returned when the client sent no challenge token
	ErrMissingToken = errors.New("Turnstile token is required")
	// ErrVerificationFailed is returned when Cloudflare rejects the token
	ErrVerificationFailed = errors.New("security check verification failed")
)

// Verifier validates Cloudflare Turnstile tokens
type Verifier struct {
	enabled bool
	secret  string
	host    string
	path    string
}

// NewVerifier creates a verifier from the auth configuration
func NewVerifier(conf *config.AuthConfiguration) (*Verifier, error) {
	v := &Verifier{enabled: conf.TurnstileEnabled, secret: conf.TurnstileSecretKey}
	if !v.enabled {
		return v, nil
	}
	if v.secret == "" {
		return nil, errors.New("turnstile: secret key not configured")
	}

	u, err := url.Parse(conf.TurnstileVerifyURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("turnstile: invalid verify url %q", conf.TurnstileVerifyURL)
	}
	v.host = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	v.path = u.Path
	return v, nil
}

// Enabled reports whether tokens are checked at all
func (v *Verifier) Enabled() bool {
	return v.enabled
}

// VerifyToken checks a token against siteverify. Disabled verifiers accept everything.
func (v *Verifier) VerifyToken(ctx context.Context, token, remoteIP string) error {
	if !v.enabled {
		return nil
	}
	if token == "" {
		return ErrMissingToken
	}

	body := map[string]string{
		"secret":   v.secret,
		"response": token,
	}
	if remoteIP != "" && remoteIP != "127.0.0.1" {
		body["remoteip"] = remoteIP
	}

	res, err := fastshot.NewClient(v.host).
		Config().SetTimeout(10*time.Second).
		Build().POST(v.path).
		Body().AsJSON(body).
		Send()
	if err != nil {
		logger.Errorf("Failed to verify Turnstile token: %v", err)
		return fmt.Errorf("failed to verify security check")
	}

	raw, err := res.Body().AsString()
	if err != nil {
		return fmt.Errorf("failed to verify security check")
	}

	result := gjson.Parse(raw)
	if !result.Get("success").Bool() {
		logger.WithFields(logger.Fields{
			"ErrorCodes": result.Get("error-codes").String(),
			"Hostname":   result.Get("hostname").String(),
		}).Warnf("Turnstile verification failed")
		return ErrVerificationFailed
	}

	return nil
}
