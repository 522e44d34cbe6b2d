package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mirakyc/onboarding/services/kyc"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/mirakyc/onboarding/utils/metrics"
)

// ErrNetworkNotAdded is returned when the wallet does not know the requested chain
var ErrNetworkNotAdded = errors.New("Please add this network to MetaMask first")

const inProgressWait = 500 * time.Millisecond

// Connector requests account access from a wallet provider
type Connector struct {
	provider   Provider
	inProgress atomic.Bool
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewConnector creates a connector. A nil provider behaves like a missing wallet.
func NewConnector(provider Provider) *Connector {
	return &Connector{
		provider: provider,
		sleep:    utils.Sleep,
	}
}

func (c *Connector) accounts(ctx context.Context, method string, params ...interface{}) ([]string, error) {
	raw, err := c.provider.Request(ctx, method, params...)
	if err != nil {
		return nil, err
	}

	var accounts []string
	if len(raw) == 0 || string(raw) == "null" {
		return accounts, nil
	}
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("%s: decode accounts: %w", method, err)
	}
	return accounts, nil
}

func firstAccount(accounts []string) (string, error) {
	if len(accounts) == 0 {
		return "", kycErrors.ErrNoAccounts{}
	}
	if accounts[0] == "" {
		return "", kycErrors.ErrNoAccountReturned{}
	}
	return accounts[0], nil
}

func mapConnectError(err error) error {
	if kyc.ErrorCode(err) == kyc.CodeUserRejected {
		return kycErrors.ErrConnectionRejected{}
	}
	return err
}

// Connect asks the wallet for account permissions and returns the first account
func (c *Connector) Connect(ctx context.Context) (account string, err error) {
	defer func() { metrics.RecordWalletConnect(err) }()

	if c.provider == nil {
		return "", kycErrors.ErrWalletNotInstalled{}
	}

	if c.inProgress.Load() {
		logger.Warnf("Wallet connection already in progress, waiting")
		if err := c.sleep(ctx, inProgressWait); err != nil {
			return "", err
		}
		if accounts, err := c.accounts(ctx, "eth_accounts"); err == nil && len(accounts) > 0 {
			return accounts[0], nil
		}
	}

	c.inProgress.Store(true)
	defer c.inProgress.Store(false)

	_, err = c.provider.Request(ctx, "wallet_requestPermissions", map[string]interface{}{
		"eth_accounts": map[string]interface{}{},
	})
	if err != nil {
		switch kyc.ErrorCode(err) {
		case kyc.CodeRequestPending:
			logger.Warnf("Permission request already pending, using eth_requestAccounts instead")
			accounts, reqErr := c.accounts(ctx, "eth_requestAccounts")
			if reqErr != nil {
				return "", mapConnectError(reqErr)
			}
			if len(accounts) > 0 {
				return accounts[0], nil
			}
		case kyc.CodeUserRejected:
			return "", kycErrors.ErrConnectionRejected{}
		default:
			return "", err
		}
	}

	accounts, err := c.accounts(ctx, "eth_accounts")
	if err != nil {
		return "", mapConnectError(err)
	}

	account, err = firstAccount(accounts)
	if err != nil {
		return "", err
	}

	logger.WithFields(logger.Fields{
		"Address": account,
	}).Infof("Wallet connected")

	return account, nil
}

// ConnectAlternative requests accounts directly without the permissions prompt
func (c *Connector) ConnectAlternative(ctx context.Context) (account string, err error) {
	defer func() { metrics.RecordWalletConnect(err) }()

	if c.provider == nil {
		return "", kycErrors.ErrWalletNotInstalled{}
	}

	accounts, err := c.accounts(ctx, "eth_requestAccounts")
	if err != nil {
		return "", mapConnectError(err)
	}

	return firstAccount(accounts)
}

// ChainID returns the chain the wallet is connected to
func (c *Connector) ChainID(ctx context.Context) (uint64, error) {
	if c.provider == nil {
		return 0, kycErrors.ErrWalletNotInstalled{}
	}

	raw, err := c.provider.Request(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}

	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return 0, fmt.Errorf("ChainID.decode: %w", err)
	}
	return hexutil.DecodeUint64(hex)
}

// SwitchNetwork asks the wallet to switch to chainIDHex (e.g. "0x61")
func (c *Connector) SwitchNetwork(ctx context.Context, chainIDHex string) error {
	if c.provider == nil {
		return kycErrors.ErrWalletNotInstalled{}
	}

	_, err := c.provider.Request(ctx, "wallet_switchEthereumChain", map[string]string{"chainId": chainIDHex})
	if err != nil {
		if kyc.ErrorCode(err) == kyc.CodeChainNotAdded {
			return ErrNetworkNotAdded
		}
		return err
	}
	return nil
}
