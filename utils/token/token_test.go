package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	const secret = "test-secret"

	t.Run("round trip", func(t *testing.T) {
		signed, err := GenerateAccessJWT(secret, "admin", ScopeAdmin, time.Hour)
		require.NoError(t, err)

		claims, err := ValidateJWT(secret, signed)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Subject)
		assert.Equal(t, ScopeAdmin, claims.Scope)
	})

	t.Run("expired", func(t *testing.T) {
		signed, err := GenerateAccessJWT(secret, "admin", ScopeAdmin, -time.Minute)
		require.NoError(t, err)

		_, err = ValidateJWT(secret, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		signed, err := GenerateAccessJWT(secret, "admin", ScopeAdmin, time.Hour)
		require.NoError(t, err)

		_, err = ValidateJWT("other-secret", signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Scope: ScopeAdmin}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ValidateJWT(secret, unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := GenerateAccessJWT("", "admin", ScopeAdmin, time.Hour)
		assert.ErrorIs(t, err, ErrMissingSecret)
	})
}
