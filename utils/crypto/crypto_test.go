package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "media nerve fog identify typical physical aspect doll bar fossil frost because"

func TestCreateEOA(t *testing.T) {
	t.Run("evm account creation", func(t *testing.T) {
		address, privateKey, err := GenerateAccountFromIndex(testMnemonic, 1)
		assert.NoError(t, err, "unexpected error")

		assert.Equal(t, "0xc60F0aDe1483fa6A355f32E0d3406127C49d4d7f", address.Hex(), "incorrect address")
		assert.NotEmpty(t, privateKey, "private key should not be empty")
	})

	t.Run("invalid mnemonic", func(t *testing.T) {
		_, _, err := GenerateAccountFromIndex("not a mnemonic", 0)
		assert.Error(t, err)
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestEncryptJSON(t *testing.T) {
	key := DeriveKey("session-secret")

	type payload struct {
		Step  int    `json:"step"`
		Image string `json:"image"`
	}

	t.Run("round trip", func(t *testing.T) {
		ciphertext, err := EncryptJSON(payload{Step: 2, Image: "data:image/png;base64,AAAA"}, key)
		require.NoError(t, err)

		var out payload
		require.NoError(t, DecryptJSON(ciphertext, key, &out))
		assert.Equal(t, 2, out.Step)
		assert.Equal(t, "data:image/png;base64,AAAA", out.Image)
	})

	t.Run("nonce randomness", func(t *testing.T) {
		a, err := EncryptPlain([]byte("same"), key)
		require.NoError(t, err)
		b, err := EncryptPlain([]byte("same"), key)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("wrong key", func(t *testing.T) {
		ciphertext, err := EncryptPlain([]byte("secret"), key)
		require.NoError(t, err)

		_, err = DecryptPlain(ciphertext, DeriveKey("other"))
		assert.Error(t, err)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		ciphertext, err := EncryptPlain([]byte("secret"), key)
		require.NoError(t, err)
		ciphertext[len(ciphertext)-1] ^= 0xff

		_, err = DecryptPlain(ciphertext, key)
		assert.Error(t, err)
	})

	t.Run("short ciphertext", func(t *testing.T) {
		_, err := DecryptPlain([]byte{1, 2}, key)
		assert.Error(t, err)
	})
}
