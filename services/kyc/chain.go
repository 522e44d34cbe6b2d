package kyc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/services/contracts"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/shopspring/decimal"
)

// Signer produces transaction options for contract writes
type Signer interface {
	Address() common.Address
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
}

// TransactionRecorder persists contract writes
type TransactionRecorder interface {
	Create(ctx context.Context, log *types.TransactionLog) error
	MarkStatus(ctx context.Context, txHash string, status types.TransactionStatus, blockNumber int64) error
}

// ChainService orchestrates reads and writes against the KYC registry and the fee token
type ChainService struct {
	client   types.RPCClient
	signer   Signer
	conf     *config.ChainConfiguration
	recorder TransactionRecorder
	nonces   *utils.NonceManager
	sleep    func(ctx context.Context, d time.Duration) error

	registry *contracts.KYCRegistry
	token    *contracts.ERC20Token
}

// Option configures a ChainService
type Option func(*ChainService)

// WithSigner enables contract writes
func WithSigner(signer Signer) Option {
	return func(s *ChainService) { s.signer = signer }
}

// WithRecorder records every write in the transaction log
func WithRecorder(recorder TransactionRecorder) Option {
	return func(s *ChainService) { s.recorder = recorder }
}

// WithNonceManager overrides the shared nonce manager
func WithNonceManager(nm *utils.NonceManager) Option {
	return func(s *ChainService) { s.nonces = nm }
}

// WithSleep overrides the wait used before post-withdrawal balance checks
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *ChainService) { s.sleep = sleep }
}

// NewChainService binds the KYC registry and fee token on the given backend
func NewChainService(client types.RPCClient, conf *config.ChainConfiguration, opts ...Option) (*ChainService, error) {
	registry, err := contracts.NewKYCRegistry(conf.KYCContractAddress, client)
	if err != nil {
		return nil, fmt.Errorf("NewChainService.bindRegistry: %w", err)
	}

	token, err := contracts.NewERC20Token(conf.StablecoinAddress, client)
	if err != nil {
		return nil, fmt.Errorf("NewChainService.bindToken: %w", err)
	}

	s := &ChainService{
		client:   client,
		conf:     conf,
		nonces:   utils.DefaultNonceManager,
		sleep:    utils.Sleep,
		registry: registry,
		token:    token,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Config returns the chain configuration the service was built with
func (s *ChainService) Config() *config.ChainConfiguration {
	return s.conf
}

// Client returns the backend the service reads from
func (s *ChainService) Client() types.RPCClient {
	return s.client
}

// SignerAddress returns the address writes are sent from
func (s *ChainService) SignerAddress() (common.Address, error) {
	if s.signer == nil {
		return common.Address{}, kycErrors.ErrSignerRequired{}
	}
	return s.signer.Address(), nil
}

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

// CheckContractExists reports whether code is deployed at address
func (s *ChainService) CheckContractExists(ctx context.Context, address common.Address) bool {
	code, err := s.client.CodeAt(ctx, address, nil)
	if err != nil {
		return false
	}
	return len(code) > 0
}

// TokenDecimals returns the fee token decimals, falling back to the configured default
func (s *ChainService) TokenDecimals(ctx context.Context) int8 {
	decimals, err := s.token.Decimals(callOpts(ctx))
	if err != nil {
		logger.WithFields(logger.Fields{
			"Token": s.conf.StablecoinAddress.Hex(),
			"Error": err.Error(),
		}).Warnf("Could not get token decimals, using default %d", s.conf.DefaultTokenDecimals)
		return s.conf.DefaultTokenDecimals
	}
	return int8(decimals)
}

func (s *ChainService) chargeInWei(decimals int8) *big.Int {
	return utils.ToSubunit(s.conf.ChargeAmount, decimals)
}

func (s *ChainService) connectedNetworkName(ctx context.Context) string {
	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return ""
	}
	if chainID.Int64() == s.conf.ChainID {
		return s.conf.NetworkName
	}
	return fmt.Sprintf("chain %s", chainID.String())
}

func (s *ChainService) tokenNotFound(ctx context.Context) error {
	return kycErrors.ErrTokenNotFound{
		Symbol:   s.conf.TokenSymbol,
		Address:  s.conf.StablecoinAddress.Hex(),
		Network:  s.connectedNetworkName(ctx),
		Required: s.conf.RequiredNetworkName,
	}
}

// TokenBalance returns the fee token balance of address in whole tokens
func (s *ChainService) TokenBalance(ctx context.Context, address common.Address) (decimal.Decimal, error) {
	if !s.CheckContractExists(ctx, s.conf.StablecoinAddress) {
		return decimal.Zero, s.tokenNotFound(ctx)
	}

	decimals := s.TokenDecimals(ctx)

	balance, err := s.token.BalanceOf(callOpts(ctx), address)
	if err != nil {
		if ClassifyRPCError(err) == RPCErrorNotFound {
			return decimal.Zero, s.tokenNotFound(ctx)
		}
		return decimal.Zero, fmt.Errorf("TokenBalance.balanceOf: %w", err)
	}

	return utils.FromSubunit(balance, decimals), nil
}

// CheckFeeApproval reports whether owner has approved at least the KYC fee
func (s *ChainService) CheckFeeApproval(ctx context.Context, owner common.Address) (bool, error) {
	decimals := s.TokenDecimals(ctx)

	allowance, err := s.token.Allowance(callOpts(ctx), owner, s.conf.KYCContractAddress)
	if err != nil {
		if ClassifyRPCError(err) == RPCErrorNotFound {
			return false, s.tokenNotFound(ctx)
		}
		return false, fmt.Errorf("CheckFeeApproval.allowance: %w", err)
	}

	return allowance.Cmp(s.chargeInWei(decimals)) >= 0, nil
}

func toKYCRecord(record contracts.MiraKYCKYCRecord) *types.KYCRecord {
	return &types.KYCRecord{
		SubmissionID:      record.SubmissionId,
		InitialSubmitTime: record.InitialSubmitTime,
		LastUpdateTime:    record.LastUpdateTime,
		PaidFee:           record.PaidFee,
		Submitter:         record.Submitter,
		CombinedDataHash:  common.Hash(record.CombinedDataHash),
		MetadataURL:       record.MetadataUrl,
		UpdateCount:       record.UpdateCount,
	}
}

// CheckKYCStatus is the lightweight submitted/verified check. Failures read as false.
func (s *ChainService) CheckKYCStatus(ctx context.Context, address common.Address) types.KYCStatusFlags {
	var flags types.KYCStatusFlags

	hasSubmitted, err := s.registry.HasSubmitted(callOpts(ctx), address)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Address": address.Hex(),
			"Error":   err.Error(),
		}).Warnf("Could not check submission status")
		return flags
	}
	flags.HasSubmitted = hasSubmitted
	if !hasSubmitted {
		return flags
	}

	record, err := s.registry.GetKYCRecord(callOpts(ctx), address)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Address": address.Hex(),
			"Error":   err.Error(),
		}).Warnf("Could not get KYC record")
		return flags
	}
	flags.IsVerified = record.SubmissionId != nil && record.SubmissionId.Sign() > 0

	return flags
}

// GetKYCStatusFromContract derives the full status from hasSubmitted and the stored record
func (s *ChainService) GetKYCStatusFromContract(ctx context.Context, address common.Address) types.ContractKYCStatus {
	notApplied := types.ContractKYCStatus{Status: types.KYCStatusNotApplied}

	hasSubmitted, err := s.registry.HasSubmitted(callOpts(ctx), address)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Address": address.Hex(),
			"Error":   err.Error(),
		}).Errorf("Error checking contract status")
		return notApplied
	}
	if !hasSubmitted {
		return notApplied
	}

	record, err := s.registry.GetKYCRecord(callOpts(ctx), address)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Address": address.Hex(),
			"Error":   err.Error(),
		}).Errorf("Error getting KYC record")
		return notApplied
	}

	status := types.ContractKYCStatus{
		HasApplied: true,
		Status:     types.KYCStatusPending,
		Record:     toKYCRecord(record),
	}
	if record.SubmissionId != nil && record.SubmissionId.Sign() > 0 {
		status.Status = types.KYCStatusApproved
		status.SubmissionID = record.SubmissionId.Uint64()
	}

	return status
}

// GetContractOwner returns the registry owner
func (s *ChainService) GetContractOwner(ctx context.Context) (common.Address, error) {
	owner, err := s.registry.Owner(callOpts(ctx))
	if err != nil {
		return common.Address{}, fmt.Errorf("Failed to get contract owner: %w", err)
	}
	return owner, nil
}

// GetContractBalance returns the fee token held by the registry in whole tokens
func (s *ChainService) GetContractBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := s.registry.GetContractBalance(callOpts(ctx))
	if err != nil {
		return decimal.Zero, fmt.Errorf("Failed to get contract balance: %w", err)
	}
	return utils.FromSubunit(balance, s.TokenDecimals(ctx)), nil
}

// VerifyOwner reports whether address owns the registry. Lookup failures read as false.
func (s *ChainService) VerifyOwner(ctx context.Context, address common.Address) bool {
	owner, err := s.GetContractOwner(ctx)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Address": address.Hex(),
			"Error":   err.Error(),
		}).Errorf("Error verifying owner")
		return false
	}
	return utils.SameAddress(owner.Hex(), address.Hex())
}

// GetTransactionDetails summarises a mined KYC payment
func (s *ChainService) GetTransactionDetails(ctx context.Context, txHash common.Hash) (*types.TransactionDetails, error) {
	receipt, err := s.client.TransactionReceipt(ctx, txHash)
	if err != nil || receipt == nil {
		if err == nil || errors.Is(err, ethereum.NotFound) {
			return nil, errors.New("Transaction receipt not found")
		}
		return nil, fmt.Errorf("GetTransactionDetails.receipt: %w", err)
	}

	tx, _, err := s.client.TransactionByHash(ctx, txHash)
	if err != nil || tx == nil {
		if err == nil || errors.Is(err, ethereum.NotFound) {
			return nil, errors.New("Transaction not found")
		}
		return nil, fmt.Errorf("GetTransactionDetails.transaction: %w", err)
	}

	header, err := s.client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil || header == nil {
		if err == nil || errors.Is(err, ethereum.NotFound) {
			return nil, errors.New("Block not found")
		}
		return nil, fmt.Errorf("GetTransactionDetails.block: %w", err)
	}

	from, err := ethTypes.Sender(ethTypes.LatestSignerForChainID(big.NewInt(s.conf.ChainID)), tx)
	if err != nil {
		return nil, fmt.Errorf("GetTransactionDetails.sender: %w", err)
	}

	to := s.conf.KYCContractAddress
	if tx.To() != nil {
		to = *tx.To()
	}

	return &types.TransactionDetails{
		TransactionHash: txHash.Hex(),
		BlockNumber:     receipt.BlockNumber.String(),
		FromAddress:     from.Hex(),
		ToAddress:       to.Hex(),
		Amount:          s.conf.ChargeAmount.String(),
		Timestamp:       time.Unix(int64(header.Time), 0).UTC().Format("2006-01-02T15:04:05.000Z"),
	}, nil
}

// GetNetworkInfo compares the connected chain with the required one
func (s *ChainService) GetNetworkInfo(ctx context.Context) (*types.NetworkInfo, error) {
	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetNetworkInfo.chainID: %w", err)
	}

	info := &types.NetworkInfo{
		ChainID:             chainID.String(),
		Name:                "Unknown Network",
		IsCorrectNetwork:    chainID.Int64() == s.conf.ChainID,
		RequiredNetworkName: s.conf.RequiredNetworkName,
	}
	if info.IsCorrectNetwork {
		info.Name = s.conf.NetworkName
	}

	return info, nil
}
