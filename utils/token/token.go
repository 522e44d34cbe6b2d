package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mirakyc/onboarding/config"
)

// ScopeAdmin is granted to the contract owner dashboard
const ScopeAdmin = "admin"

var (
	// ErrInvalidToken is returned for malformed, expired or foreign tokens
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("token secret is not configured")
)

// Claims are the JWT claims issued to operators
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateAccessJWT issues an HS256 token for subject valid for lifespan
func GenerateAccessJWT(secret, subject, scope string, lifespan time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    config.ServerConfig().AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifespan)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("GenerateAccessJWT: %w", err)
	}
	return signed, nil
}

// ValidateJWT parses tokenString and returns its claims
func ValidateJWT(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
