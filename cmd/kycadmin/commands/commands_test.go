package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/utils/crypto"
	"github.com/mirakyc/onboarding/utils/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "hash-password", "s3cret")
	require.NoError(t, err)
	assert.True(t, crypto.CheckPasswordHash("s3cret", out))
}

func TestSecret(t *testing.T) {
	first, err := run(t, "secret")
	require.NoError(t, err)
	second, err := run(t, "secret")
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}

func TestToken(t *testing.T) {
	authConf := config.AuthConfig()
	authConf.Secret = "cli-secret"

	out, err := run(t, "token", "--subject", "ops", "--ttl", "10m")
	require.NoError(t, err)

	claims, err := token.ValidateJWT("cli-secret", out)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, token.ScopeAdmin, claims.Scope)
}

func TestArgumentValidation(t *testing.T) {
	_, err := run(t, "status", "not-an-address")
	assert.ErrorContains(t, err, "not a valid address")

	_, err = run(t, "withdraw", "0")
	assert.ErrorContains(t, err, "greater than zero")

	_, err = run(t, "withdraw", "5")
	assert.ErrorContains(t, err, "--yes")
}
