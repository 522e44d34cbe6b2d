package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/external"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mirakyc/onboarding/config"
	cryptoUtils "github.com/mirakyc/onboarding/utils/crypto"
)

// Signer signs contract writes for one account
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// KeySigner signs with a raw private key
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewKeySigner creates a signer from a hex-encoded private key
func NewKeySigner(hexKey string, chainID int64) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("NewKeySigner: invalid private key: %w", err)
	}
	return newKeySigner(key, chainID), nil
}

func newKeySigner(key *ecdsa.PrivateKey, chainID int64) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
	}
}

// Address returns the signing account
func (s *KeySigner) Address() common.Address {
	return s.address
}

// TransactOpts returns fresh transactor options for the account
func (s *KeySigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.key, s.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

// HDSigner signs with an account derived from a mnemonic on m/44'/60'/0'/0/<index>
type HDSigner struct {
	*KeySigner
	index int
}

// NewHDSigner derives the signing key for an HD wallet account
func NewHDSigner(mnemonic string, index int, chainID int64) (*HDSigner, error) {
	_, key, err := cryptoUtils.GenerateAccountFromIndex(mnemonic, index)
	if err != nil {
		return nil, fmt.Errorf("NewHDSigner: %w", err)
	}
	return &HDSigner{KeySigner: newKeySigner(key, chainID), index: index}, nil
}

// Index returns the derivation index of the account
func (s *HDSigner) Index() int {
	return s.index
}

// ExternalSigner delegates signing to a Clef-compatible remote signer
type ExternalSigner struct {
	clef    *external.ExternalSigner
	account accounts.Account
}

// NewExternalSigner connects to a remote signer. An empty address selects its first account.
func NewExternalSigner(endpoint, address string) (*ExternalSigner, error) {
	clef, err := external.NewExternalSigner(endpoint)
	if err != nil {
		return nil, fmt.Errorf("NewExternalSigner.dial: %w", err)
	}

	available := clef.Accounts()
	if len(available) == 0 {
		return nil, errors.New("NewExternalSigner: signer exposes no accounts")
	}

	account := available[0]
	if address != "" {
		want := common.HexToAddress(address)
		found := false
		for _, a := range available {
			if a.Address == want {
				account, found = a, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("NewExternalSigner: account %s not managed by signer", want.Hex())
		}
	}

	return &ExternalSigner{clef: clef, account: account}, nil
}

// Address returns the signing account
func (s *ExternalSigner) Address() common.Address {
	return s.account.Address
}

// TransactOpts returns transactor options that forward signing to the remote signer
func (s *ExternalSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts := bind.NewClefTransactor(s.clef, s.account)
	opts.Context = ctx
	return opts, nil
}

// NewSignerFromConfig picks the configured signer: private key, then mnemonic, then remote signer.
// It returns nil when no signer is configured.
func NewSignerFromConfig(conf *config.ChainConfiguration) (Signer, error) {
	var (
		signer Signer
		err    error
	)

	switch {
	case conf.SignerPrivateKey != "":
		signer, err = NewKeySigner(conf.SignerPrivateKey, conf.ChainID)
	case conf.HDWalletMnemonic != "":
		signer, err = NewHDSigner(conf.HDWalletMnemonic, conf.HDWalletAccountIndex, conf.ChainID)
	case conf.ExternalSignerEndpoint != "":
		signer, err = NewExternalSigner(conf.ExternalSignerEndpoint, conf.SignerAddress)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return signer, nil
}
