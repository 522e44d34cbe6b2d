package services

import (
	"context"
	"fmt"

	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/services/email"
	"github.com/mirakyc/onboarding/services/indexer"
	"github.com/mirakyc/onboarding/services/kyc"
	"github.com/mirakyc/onboarding/services/verification"
	"github.com/mirakyc/onboarding/services/wallet"
	"github.com/mirakyc/onboarding/storage"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
)

// Services are the long-lived clients shared by the API server, the jobs and the CLI
type Services struct {
	RPC     types.RPCClient
	Chain   *kyc.ChainService
	Scanner *indexer.WithdrawalScanner
	Backend *verification.Client
	Wallet  *wallet.Connector
	// Emails is nil when notifications are disabled
	Emails email.EmailServiceInterface
	// Logs is nil when the database is disabled
	Logs *storage.TransactionLogStore

	closers []func()
}

// NewServices dials the chain and builds every service from the loaded configuration.
// Call storage.DBConnection first to enable the transaction log.
func NewServices(ctx context.Context, chainConf *config.ChainConfiguration) (*Services, error) {
	client, err := utils.DialRPC(ctx, chainConf.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("NewServices.DialRPC: %w", err)
	}
	s := &Services{RPC: client}
	s.closers = append(s.closers, client.Close)

	opts := []kyc.Option{kyc.WithNonceManager(utils.NewNonceManager())}

	signer, err := wallet.NewSignerFromConfig(chainConf)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("NewServices.NewSignerFromConfig: %w", err)
	}
	if signer != nil {
		opts = append(opts, kyc.WithSigner(signer))
		logger.WithFields(logger.Fields{
			"Address": signer.Address().Hex(),
		}).Infof("Contract writes enabled")
	} else {
		logger.Warnf("No signer configured, contract writes are disabled")
	}

	if storage.DB != nil {
		s.Logs = storage.NewTransactionLogStore(storage.DB)
		opts = append(opts, kyc.WithRecorder(s.Logs))
	}

	s.Chain, err = kyc.NewChainService(client, chainConf, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Scanner = indexer.NewWithdrawalScanner(client, chainConf.KYCContractAddress, config.ScanConfig(),
		indexer.WithAlternateEndpoints(utils.DialRPC, chainConf.FallbackRPCEndpoints...),
		indexer.WithDecimals(s.Chain.TokenDecimals),
	)

	backendConf := config.BackendConfig()
	s.Backend = verification.NewClient(backendConf.VerificationAPIURL, backendConf.VerificationAPIKey, backendConf.RequestTimeout)

	var provider wallet.Provider
	if chainConf.WalletRPCEndpoint != "" {
		rpcProvider, err := wallet.NewRPCProvider(ctx, chainConf.WalletRPCEndpoint)
		if err != nil {
			logger.Warnf("Wallet provider unavailable: %v", err)
		} else {
			provider = rpcProvider
			s.closers = append(s.closers, rpcProvider.Close)
		}
	}
	s.Wallet = wallet.NewConnector(provider)

	notificationConf := config.NotificationConfig()
	if notificationConf.Enabled {
		emails, err := email.NewEmailService(notificationConf)
		if err != nil {
			logger.Warnf("Email notifications disabled: %v", err)
		} else {
			s.Emails = emails
		}
	}

	return s, nil
}

// Close releases the RPC connections
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
