package test

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mirakyc/onboarding/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockChainService mocks types.KYCChainService
type MockChainService struct {
	mock.Mock
}

var _ types.KYCChainService = (*MockChainService)(nil)

// GetNetworkInfo mocks the GetNetworkInfo method
func (m *MockChainService) GetNetworkInfo(ctx context.Context) (*types.NetworkInfo, error) {
	args := m.Called(ctx)
	info, _ := args.Get(0).(*types.NetworkInfo)
	return info, args.Error(1)
}

// CheckKYCStatus mocks the CheckKYCStatus method
func (m *MockChainService) CheckKYCStatus(ctx context.Context, address common.Address) types.KYCStatusFlags {
	args := m.Called(ctx, address)
	return args.Get(0).(types.KYCStatusFlags)
}

// GetKYCStatusFromContract mocks the GetKYCStatusFromContract method
func (m *MockChainService) GetKYCStatusFromContract(ctx context.Context, address common.Address) types.ContractKYCStatus {
	args := m.Called(ctx, address)
	return args.Get(0).(types.ContractKYCStatus)
}

// CheckFeeApproval mocks the CheckFeeApproval method
func (m *MockChainService) CheckFeeApproval(ctx context.Context, owner common.Address) (bool, error) {
	args := m.Called(ctx, owner)
	return args.Bool(0), args.Error(1)
}

// TokenBalance mocks the TokenBalance method
func (m *MockChainService) TokenBalance(ctx context.Context, address common.Address) (decimal.Decimal, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// ApproveFee mocks the ApproveFee method
func (m *MockChainService) ApproveFee(ctx context.Context, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, amount)
	return args.String(0), args.Error(1)
}

// SubmitKYCVerification mocks the SubmitKYCVerification method
func (m *MockChainService) SubmitKYCVerification(ctx context.Context, anonymousID, metadataURL string) (string, error) {
	args := m.Called(ctx, anonymousID, metadataURL)
	return args.String(0), args.Error(1)
}

// UpdateDocuments mocks the UpdateDocuments method
func (m *MockChainService) UpdateDocuments(ctx context.Context, anonymousID, metadataURL string) (string, error) {
	args := m.Called(ctx, anonymousID, metadataURL)
	return args.String(0), args.Error(1)
}

// GetTransactionDetails mocks the GetTransactionDetails method
func (m *MockChainService) GetTransactionDetails(ctx context.Context, txHash common.Hash) (*types.TransactionDetails, error) {
	args := m.Called(ctx, txHash)
	details, _ := args.Get(0).(*types.TransactionDetails)
	return details, args.Error(1)
}

// GetContractOwner mocks the GetContractOwner method
func (m *MockChainService) GetContractOwner(ctx context.Context) (common.Address, error) {
	args := m.Called(ctx)
	return args.Get(0).(common.Address), args.Error(1)
}

// GetContractBalance mocks the GetContractBalance method
func (m *MockChainService) GetContractBalance(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// WithdrawContractFunds mocks the WithdrawContractFunds method
func (m *MockChainService) WithdrawContractFunds(ctx context.Context, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, amount)
	return args.String(0), args.Error(1)
}

// MockWithdrawalScanner mocks types.WithdrawalScanner
type MockWithdrawalScanner struct {
	mock.Mock
}

var _ types.WithdrawalScanner = (*MockWithdrawalScanner)(nil)

// ScanWithdrawals mocks the ScanWithdrawals method
func (m *MockWithdrawalScanner) ScanWithdrawals(ctx context.Context) (*types.WithdrawalScan, error) {
	args := m.Called(ctx)
	scan, _ := args.Get(0).(*types.WithdrawalScan)
	return scan, args.Error(1)
}

// GetTotalWithdrawals mocks the GetTotalWithdrawals method
func (m *MockWithdrawalScanner) GetTotalWithdrawals(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockVerificationBackend mocks types.VerificationBackend
type MockVerificationBackend struct {
	mock.Mock
}

var _ types.VerificationBackend = (*MockVerificationBackend)(nil)

// CheckStatusByEmail mocks the CheckStatusByEmail method
func (m *MockVerificationBackend) CheckStatusByEmail(ctx context.Context, email string) (*types.BackendKYCStatus, error) {
	args := m.Called(ctx, email)
	status, _ := args.Get(0).(*types.BackendKYCStatus)
	return status, args.Error(1)
}

// UpdateKYCDocuments mocks the UpdateKYCDocuments method
func (m *MockVerificationBackend) UpdateKYCDocuments(ctx context.Context, payload types.KYCDocumentUpdate) (*types.BackendKYCStatus, error) {
	args := m.Called(ctx, payload)
	status, _ := args.Get(0).(*types.BackendKYCStatus)
	return status, args.Error(1)
}

// MockWalletConnector mocks types.WalletConnector
type MockWalletConnector struct {
	mock.Mock
}

var _ types.WalletConnector = (*MockWalletConnector)(nil)

// Connect mocks the Connect method
func (m *MockWalletConnector) Connect(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// ConnectAlternative mocks the ConnectAlternative method
func (m *MockWalletConnector) ConnectAlternative(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockEmailService records receipts instead of sending them
type MockEmailService struct {
	mock.Mock
}

// SendEmail mocks the SendEmail method
func (m *MockEmailService) SendEmail(ctx context.Context, payload types.SendEmailPayload) (types.SendEmailResponse, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(types.SendEmailResponse), args.Error(1)
}

// SendTemplateEmail mocks the SendTemplateEmail method
func (m *MockEmailService) SendTemplateEmail(ctx context.Context, payload types.SendEmailPayload, emailType string) (types.SendEmailResponse, error) {
	args := m.Called(ctx, payload, emailType)
	return args.Get(0).(types.SendEmailResponse), args.Error(1)
}

// SendSubmissionReceipt mocks the SendSubmissionReceipt method
func (m *MockEmailService) SendSubmissionReceipt(ctx context.Context, email, txHash, explorerURL string) (types.SendEmailResponse, error) {
	args := m.Called(ctx, email, txHash, explorerURL)
	return args.Get(0).(types.SendEmailResponse), args.Error(1)
}

// SendStatusUpdate mocks the SendStatusUpdate method
func (m *MockEmailService) SendStatusUpdate(ctx context.Context, email string, status types.KYCStatus, reason string) (types.SendEmailResponse, error) {
	args := m.Called(ctx, email, status, reason)
	return args.Get(0).(types.SendEmailResponse), args.Error(1)
}

// SendWithdrawalReceipt mocks the SendWithdrawalReceipt method
func (m *MockEmailService) SendWithdrawalReceipt(ctx context.Context, email, amount, txHash, explorerURL string) (types.SendEmailResponse, error) {
	args := m.Called(ctx, email, amount, txHash, explorerURL)
	return args.Get(0).(types.SendEmailResponse), args.Error(1)
}
