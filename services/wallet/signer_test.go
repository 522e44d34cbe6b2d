package wallet

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mirakyc/onboarding/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "media nerve fog identify typical physical aspect doll bar fossil frost because"
	// Hardhat account #0
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testKeyAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestKeySigner(t *testing.T) {
	signer, err := NewKeySigner(testKey, 97)
	require.NoError(t, err)
	assert.Equal(t, testKeyAddr, signer.Address().Hex())

	opts, err := signer.TransactOpts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), opts.From)

	tx := ethTypes.NewTransaction(0, common.HexToAddress("0x1"), big.NewInt(0), 21000, big.NewInt(1), nil)
	signed, err := opts.Signer(opts.From, tx)
	require.NoError(t, err)

	sender, err := ethTypes.Sender(ethTypes.LatestSignerForChainID(big.NewInt(97)), signed)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), sender)

	_, err = NewKeySigner("not-hex", 97)
	assert.Error(t, err)
}

func TestHDSigner(t *testing.T) {
	signer, err := NewHDSigner(testMnemonic, 1, 97)
	require.NoError(t, err)
	assert.Equal(t, "0xc60F0aDe1483fa6A355f32E0d3406127C49d4d7f", signer.Address().Hex())
	assert.Equal(t, 1, signer.Index())

	_, err = NewHDSigner("invalid words", 0, 97)
	assert.Error(t, err)
}

// clefAPI is a minimal account_* namespace of a remote signer
type clefAPI struct {
	accounts []common.Address
}

func (c *clefAPI) Version() string {
	return "6.1.0"
}

func (c *clefAPI) List() []common.Address {
	return c.accounts
}

func newClefServer(t *testing.T, accounts ...common.Address) string {
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("account", &clefAPI{accounts: accounts}))

	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	return httpServer.URL
}

func TestExternalSigner(t *testing.T) {
	first := common.HexToAddress(testKeyAddr)
	second := common.HexToAddress("0xc60F0aDe1483fa6A355f32E0d3406127C49d4d7f")

	t.Run("defaults to the first account", func(t *testing.T) {
		signer, err := NewExternalSigner(newClefServer(t, first, second), "")
		require.NoError(t, err)
		assert.Equal(t, first, signer.Address())

		opts, err := signer.TransactOpts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, first, opts.From)
	})

	t.Run("selects the configured account", func(t *testing.T) {
		signer, err := NewExternalSigner(newClefServer(t, first, second), second.Hex())
		require.NoError(t, err)
		assert.Equal(t, second, signer.Address())
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := NewExternalSigner(newClefServer(t, first), second.Hex())
		assert.ErrorContains(t, err, "not managed by signer")
	})

	t.Run("no accounts", func(t *testing.T) {
		_, err := NewExternalSigner(newClefServer(t), "")
		assert.ErrorContains(t, err, "no accounts")
	})
}

func TestNewSignerFromConfig(t *testing.T) {
	t.Run("private key wins", func(t *testing.T) {
		signer, err := NewSignerFromConfig(&config.ChainConfiguration{
			ChainID:          97,
			SignerPrivateKey: testKey,
			HDWalletMnemonic: testMnemonic,
		})
		require.NoError(t, err)
		assert.IsType(t, &KeySigner{}, signer)
	})

	t.Run("mnemonic", func(t *testing.T) {
		signer, err := NewSignerFromConfig(&config.ChainConfiguration{
			ChainID:              97,
			HDWalletMnemonic:     testMnemonic,
			HDWalletAccountIndex: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "0xc60F0aDe1483fa6A355f32E0d3406127C49d4d7f", signer.Address().Hex())
	})

	t.Run("none configured", func(t *testing.T) {
		signer, err := NewSignerFromConfig(&config.ChainConfiguration{ChainID: 97})
		require.NoError(t, err)
		assert.Nil(t, signer)
	})

	t.Run("invalid key", func(t *testing.T) {
		signer, err := NewSignerFromConfig(&config.ChainConfiguration{ChainID: 97, SignerPrivateKey: "zz"})
		assert.Error(t, err)
		assert.Nil(t, signer)
	})
}
