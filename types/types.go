package types

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RPCClient is an interface for interacting with the blockchain.
type RPCClient interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

var _ RPCClient = (*ethclient.Client)(nil)

// RPCDialer creates an RPCClient for an endpoint
type RPCDialer func(ctx context.Context, endpoint string) (RPCClient, error)

// NewEthClient dials an endpoint using the given transport options
func NewEthClient(ctx context.Context, endpoint string, opts ...rpc.ClientOption) (RPCClient, error) {
	rpcClient, err := rpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, err
	}

	return ethclient.NewClient(rpcClient), nil
}

// KYCStatus is the on-chain (or merged) verification status of a wallet
type KYCStatus string

const (
	KYCStatusNotApplied KYCStatus = "not_applied"
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusApproved   KYCStatus = "approved"
	KYCStatusCancelled  KYCStatus = "cancelled"
	KYCStatusRejected   KYCStatus = "rejected"
)

// KYCRecord mirrors the record returned by getKYCRecord
type KYCRecord struct {
	SubmissionID      *big.Int       `json:"submissionId"`
	InitialSubmitTime *big.Int       `json:"initialSubmitTime"`
	LastUpdateTime    *big.Int       `json:"lastUpdateTime"`
	PaidFee           *big.Int       `json:"paidFee"`
	Submitter         common.Address `json:"submitter"`
	CombinedDataHash  common.Hash    `json:"combinedDataHash"`
	MetadataURL       string         `json:"metadataUrl"`
	UpdateCount       *big.Int       `json:"updateCount"`
}

// KYCStatusFlags is the lightweight submission check
type KYCStatusFlags struct {
	IsVerified   bool `json:"isVerified"`
	HasSubmitted bool `json:"hasSubmitted"`
}

// ContractKYCStatus is the full status derived from the contract
type ContractKYCStatus struct {
	HasApplied   bool       `json:"hasApplied"`
	Status       KYCStatus  `json:"status"`
	SubmissionID uint64     `json:"submissionId,omitempty"`
	Record       *KYCRecord `json:"record,omitempty"`
}

// TransactionDetails summarises a mined KYC payment transaction
type TransactionDetails struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	FromAddress     string `json:"fromAddress"`
	ToAddress       string `json:"toAddress"`
	Amount          string `json:"amount"`
	Timestamp       string `json:"timestamp"`
}

// NetworkInfo describes the chain the backend is connected to
type NetworkInfo struct {
	ChainID             string `json:"chainId"`
	Name                string `json:"name"`
	IsCorrectNetwork    bool   `json:"isCorrectNetwork"`
	RequiredNetworkName string `json:"requiredNetworkName"`
}

// FundsWithdrawnEvent represents a FundsWithdrawn event emitted by the KYC contract.
type FundsWithdrawnEvent struct {
	BlockNumber uint64          `json:"blockNumber"`
	TxHash      string          `json:"txHash"`
	Owner       string          `json:"owner"`
	Amount      *big.Int        `json:"amount"`
	Timestamp   *big.Int        `json:"timestamp"`
	Value       decimal.Decimal `json:"value"`
}

// WithdrawalScan is the result of a FundsWithdrawn log scan
type WithdrawalScan struct {
	Events            []FundsWithdrawnEvent `json:"events"`
	TotalWei          *big.Int              `json:"totalWei"`
	Total             decimal.Decimal       `json:"total"`
	FromBlock         uint64                `json:"fromBlock"`
	ToBlock           uint64                `json:"toBlock"`
	PrunedChunks      int                   `json:"prunedChunks"`
	RateLimitedChunks int                   `json:"rateLimitedChunks"`
	ScannedAt         time.Time             `json:"scannedAt"`
}

// BackendKYCStatus is the verification status reported by the backend API
type BackendKYCStatus struct {
	Status        KYCStatus `json:"status"`
	Email         string    `json:"email"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	SubmissionID  string    `json:"submissionId,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	UpdatedAt     string    `json:"updatedAt,omitempty"`
}

// PersonalInfo holds the applicant details collected by the form
type PersonalInfo struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// KYCDocumentUpdate is the payload pushed to the backend when documents change
type KYCDocumentUpdate struct {
	Email         string        `json:"email"`
	WalletAddress string        `json:"walletAddress"`
	IDType        string        `json:"idType"`
	IDNumber      string        `json:"idNumber,omitempty"`
	DocumentFront string        `json:"documentFront"`
	DocumentBack  string        `json:"documentBack,omitempty"`
	Selfie        string        `json:"selfie"`
	PersonalInfo  *PersonalInfo `json:"personalInfo,omitempty"`
}

// TransactionKind is the contract write recorded in the transaction log
type TransactionKind string

const (
	TransactionKindApprove  TransactionKind = "approve"
	TransactionKindSubmit   TransactionKind = "submit"
	TransactionKindUpdate   TransactionKind = "update"
	TransactionKindWithdraw TransactionKind = "withdraw"
)

// TransactionStatus is the lifecycle state of a recorded transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// TransactionLog is a persisted record of a contract write
type TransactionLog struct {
	ID            uuid.UUID         `json:"id"`
	Kind          TransactionKind   `json:"kind"`
	Status        TransactionStatus `json:"status"`
	WalletAddress string            `json:"walletAddress"`
	TxHash        string            `json:"txHash"`
	Amount        decimal.Decimal   `json:"amount"`
	Network       string            `json:"network"`
	BlockNumber   int64             `json:"blockNumber"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// SendEmailPayload is the payload for sending an email
type SendEmailPayload struct {
	FromAddress string
	ToAddress   string
	Subject     string
	Body        string
	HTMLBody    string
	DynamicData map[string]interface{}
}

// SendEmailResponse is the response from an email provider
type SendEmailResponse struct {
	Response string `json:"response"`
	Id       string `json:"id"`
}

// Response is the struct for an API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData is the struct for error data i.e when Status is "error"
type ErrorData struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmitKYCPayload is the request body for an on-chain KYC submission
type SubmitKYCPayload struct {
	AnonymousID string `json:"anonymousId" binding:"required"`
	MetadataURL string `json:"metadataUrl"`
	Email       string `json:"email" binding:"omitempty,email"`
}

// ApproveFeePayload is the request body for a fee approval
type ApproveFeePayload struct {
	Amount decimal.Decimal `json:"amount"`
}

// UpdateDocumentsPayload is the request body for a document update
type UpdateDocumentsPayload struct {
	KYCDocumentUpdate
	AnonymousID string `json:"anonymousId"`
	MetadataURL string `json:"metadataUrl"`
	OnChain     bool   `json:"onChain"`
}

// WithdrawPayload is the request body for an owner withdrawal
type WithdrawPayload struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	NotifyEmail string          `json:"notifyEmail" binding:"omitempty,email"`
}

// AdminLoginPayload is the request body for the admin login
type AdminLoginPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ContractOverview is the owner dashboard summary
type ContractOverview struct {
	Owner            string `json:"owner"`
	Balance          string `json:"balance"`
	TotalWithdrawals string `json:"totalWithdrawals"`
	TokenSymbol      string `json:"tokenSymbol"`
	WithdrawalsError string `json:"withdrawalsError,omitempty"`
}

// KYCChainService is the contract surface used by the HTTP API, jobs and CLI
type KYCChainService interface {
	GetNetworkInfo(ctx context.Context) (*NetworkInfo, error)
	CheckKYCStatus(ctx context.Context, address common.Address) KYCStatusFlags
	GetKYCStatusFromContract(ctx context.Context, address common.Address) ContractKYCStatus
	CheckFeeApproval(ctx context.Context, owner common.Address) (bool, error)
	TokenBalance(ctx context.Context, address common.Address) (decimal.Decimal, error)
	ApproveFee(ctx context.Context, amount decimal.Decimal) (string, error)
	SubmitKYCVerification(ctx context.Context, anonymousID, metadataURL string) (string, error)
	UpdateDocuments(ctx context.Context, anonymousID, metadataURL string) (string, error)
	GetTransactionDetails(ctx context.Context, txHash common.Hash) (*TransactionDetails, error)
	GetContractOwner(ctx context.Context) (common.Address, error)
	GetContractBalance(ctx context.Context) (decimal.Decimal, error)
	WithdrawContractFunds(ctx context.Context, amount decimal.Decimal) (string, error)
}

// WithdrawalScanner totals FundsWithdrawn events
type WithdrawalScanner interface {
	ScanWithdrawals(ctx context.Context) (*WithdrawalScan, error)
	GetTotalWithdrawals(ctx context.Context) (string, error)
}

// VerificationBackend is the off-chain verification API
type VerificationBackend interface {
	CheckStatusByEmail(ctx context.Context, email string) (*BackendKYCStatus, error)
	UpdateKYCDocuments(ctx context.Context, payload KYCDocumentUpdate) (*BackendKYCStatus, error)
}

// WalletConnector requests account access from a wallet provider
type WalletConnector interface {
	Connect(ctx context.Context) (string, error)
	ConnectAlternative(ctx context.Context) (string, error)
}

// KYCStatusResponse is the merged status of a wallet
type KYCStatusResponse struct {
	Address  string            `json:"address"`
	Status   KYCStatus         `json:"status"`
	Contract ContractKYCStatus `json:"contract"`
	Backend  *BackendKYCStatus `json:"backend,omitempty"`
}

// SubmissionResponse is returned for contract writes
type SubmissionResponse struct {
	TxHash      string `json:"txHash"`
	ExplorerURL string `json:"explorerUrl"`
}

// DocumentUpdateResponse is returned after a document update
type DocumentUpdateResponse struct {
	Backend *BackendKYCStatus   `json:"backend"`
	OnChain *SubmissionResponse `json:"onChain,omitempty"`
}

// AdminToken is returned by a successful admin login
type AdminToken struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// WithdrawalSummary is the admin view of the withdrawal scan
type WithdrawalSummary struct {
	*WithdrawalScan
	Cached bool `json:"cached"`
}
