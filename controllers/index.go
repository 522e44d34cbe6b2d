package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/services/email"
	"github.com/mirakyc/onboarding/services/kyc"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/services/session"
	"github.com/mirakyc/onboarding/types"
	u "github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/redis/go-redis/v9"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// Dependencies are the services the HTTP handlers call into
type Dependencies struct {
	Chain     types.KYCChainService
	Scanner   types.WithdrawalScanner
	Backend   types.VerificationBackend
	Wallet    types.WalletConnector
	Emails    email.EmailServiceInterface
	Sessions  *session.Store
	Cache     redis.Cmdable
	ChainConf *config.ChainConfiguration
	RedisConf config.RedisConfiguration
}

// Controller is the default controller for the onboarding endpoints
type Controller struct {
	chain     types.KYCChainService
	scanner   types.WithdrawalScanner
	backend   types.VerificationBackend
	wallet    types.WalletConnector
	emails    email.EmailServiceInterface
	sessions  *session.Store
	cache     redis.Cmdable
	chainConf *config.ChainConfiguration
	redisConf config.RedisConfiguration
}

// NewController creates a controller with injected services
func NewController(deps Dependencies) *Controller {
	return &Controller{
		chain:     deps.Chain,
		scanner:   deps.Scanner,
		backend:   deps.Backend,
		wallet:    deps.Wallet,
		emails:    deps.Emails,
		sessions:  deps.Sessions,
		cache:     deps.Cache,
		chainConf: deps.ChainConf,
		redisConf: deps.RedisConf,
	}
}

// respondError writes err with the status its type maps to
func respondError(ctx *gin.Context, err error, message string) {
	status := kycErrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithFields(logger.Fields{
			"Error": fmt.Sprintf("%v", err),
			"Path":  ctx.Request.URL.Path,
		}).Errorf("%s", message)
	}
	u.APIResponse(ctx, status, "error", message, err.Error())
}

// addressParam validates the :address path parameter
func addressParam(ctx *gin.Context) (common.Address, bool) {
	raw := ctx.Param("address")
	if !u.IsValidEthereumAddress(raw) {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid wallet address", types.ErrorData{
			Field:   "address",
			Message: fmt.Sprintf("%q is not a valid address", raw),
		})
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func (ctrl *Controller) explorerURL(txHash string) string {
	return ctrl.chainConf.ExplorerTxURL + txHash
}

// Health reports liveness
func (ctrl *Controller) Health(ctx *gin.Context) {
	u.APIResponse(ctx, http.StatusOK, "success", "OK", map[string]interface{}{
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetNetworkInfo returns the chain the backend is connected to
func (ctrl *Controller) GetNetworkInfo(ctx *gin.Context) {
	info, err := ctrl.chain.GetNetworkInfo(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "Failed to fetch network info")
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", info)
}

// ConnectWallet requests account access from the configured wallet provider
func (ctrl *Controller) ConnectWallet(ctx *gin.Context) {
	var (
		account string
		err     error
	)
	if ctx.Query("mode") == "alternative" {
		account, err = ctrl.wallet.ConnectAlternative(ctx.Request.Context())
	} else {
		account, err = ctrl.wallet.Connect(ctx.Request.Context())
	}
	if err != nil {
		respondError(ctx, err, "Failed to connect wallet")
		return
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Wallet connected", map[string]string{
		"address": account,
	})
}

// GetKYCStatus returns the contract status merged with the backend status
func (ctrl *Controller) GetKYCStatus(ctx *gin.Context) {
	address, ok := addressParam(ctx)
	if !ok {
		return
	}

	reqCtx := ctx.Request.Context()
	contractStatus := ctrl.chain.GetKYCStatusFromContract(reqCtx, address)

	var backendStatus *types.BackendKYCStatus
	if emailAddr := strings.TrimSpace(ctx.Query("email")); emailAddr != "" {
		status, err := ctrl.backend.CheckStatusByEmail(reqCtx, emailAddr)
		var notFound kycErrors.ErrNotFound
		switch {
		case err == nil:
			backendStatus = status
		case errors.As(err, &notFound):
		default:
			logger.WithFields(logger.Fields{
				"Error":   err.Error(),
				"Address": address.Hex(),
			}).Warnf("Backend status unavailable, using contract status only")
		}
	}

	u.APIResponse(ctx, http.StatusOK, "success", "OK", types.KYCStatusResponse{
		Address:  address.Hex(),
		Status:   kyc.MergeStatus(contractStatus, backendStatus),
		Contract: contractStatus,
		Backend:  backendStatus,
	})
}

// CheckKYCStatus returns the lightweight submission flags
func (ctrl *Controller) CheckKYCStatus(ctx *gin.Context) {
	address, ok := addressParam(ctx)
	if !ok {
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", ctrl.chain.CheckKYCStatus(ctx.Request.Context(), address))
}

// CheckFeeApproval reports whether the allowance covers the fee
func (ctrl *Controller) CheckFeeApproval(ctx *gin.Context) {
	address, ok := addressParam(ctx)
	if !ok {
		return
	}

	approved, err := ctrl.chain.CheckFeeApproval(ctx.Request.Context(), address)
	if err != nil {
		respondError(ctx, err, "Failed to check fee approval")
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", map[string]interface{}{
		"approved": approved,
		"fee":      ctrl.chainConf.ChargeAmount.String(),
	})
}

// TokenBalance returns the stablecoin balance of an address
func (ctrl *Controller) TokenBalance(ctx *gin.Context) {
	address, ok := addressParam(ctx)
	if !ok {
		return
	}

	balance, err := ctrl.chain.TokenBalance(ctx.Request.Context(), address)
	if err != nil {
		respondError(ctx, err, "Failed to fetch token balance")
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", map[string]string{
		"address": address.Hex(),
		"balance": balance.String(),
		"symbol":  ctrl.chainConf.TokenSymbol,
	})
}

// ApproveFee approves the registry to pull the fee. An empty amount approves the configured fee.
func (ctrl *Controller) ApproveFee(ctx *gin.Context) {
	var payload types.ApproveFeePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", err.Error())
		return
	}

	amount := payload.Amount
	if amount.IsZero() {
		amount = ctrl.chainConf.ChargeAmount
	}
	if amount.IsNegative() {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", "amount must be positive")
		return
	}

	txHash, err := ctrl.chain.ApproveFee(ctx.Request.Context(), amount)
	if err != nil {
		respondError(ctx, err, "Failed to approve fee")
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "Fee approved", types.SubmissionResponse{
		TxHash:      txHash,
		ExplorerURL: ctrl.explorerURL(txHash),
	})
}

// SubmitKYC records a submission on-chain and emails a receipt when an address is given
func (ctrl *Controller) SubmitKYC(ctx *gin.Context) {
	var payload types.SubmitKYCPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", err.Error())
		return
	}

	txHash, err := ctrl.chain.SubmitKYCVerification(ctx.Request.Context(), payload.AnonymousID, payload.MetadataURL)
	if err != nil {
		respondError(ctx, err, "Failed to submit KYC")
		return
	}

	response := types.SubmissionResponse{TxHash: txHash, ExplorerURL: ctrl.explorerURL(txHash)}
	if payload.Email != "" {
		ctrl.sendReceipt(ctx.Request.Context(), payload.Email, response)
	}

	u.APIResponse(ctx, http.StatusOK, "success", "KYC submitted", response)
}

func (ctrl *Controller) sendReceipt(ctx context.Context, to string, submission types.SubmissionResponse) {
	if ctrl.emails == nil {
		return
	}
	if _, err := ctrl.emails.SendSubmissionReceipt(ctx, to, submission.TxHash, submission.ExplorerURL); err != nil &&
		!errors.Is(err, email.ErrEmailDisabled) {
		logger.WithFields(logger.Fields{
			"Error":  err.Error(),
			"TxHash": submission.TxHash,
		}).Warnf("Failed to send submission receipt")
	}
}

// UpdateDocuments pushes new documents to the backend and optionally records the update on-chain
func (ctrl *Controller) UpdateDocuments(ctx *gin.Context) {
	var payload types.UpdateDocumentsPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", err.Error())
		return
	}
	if payload.OnChain && payload.AnonymousID == "" {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", types.ErrorData{
			Field:   "anonymousId",
			Message: "anonymousId is required for on-chain updates",
		})
		return
	}

	reqCtx := ctx.Request.Context()
	status, err := ctrl.backend.UpdateKYCDocuments(reqCtx, payload.KYCDocumentUpdate)
	if err != nil {
		respondError(ctx, err, "Failed to update documents")
		return
	}

	response := types.DocumentUpdateResponse{Backend: status}
	if payload.OnChain {
		txHash, err := ctrl.chain.UpdateDocuments(reqCtx, payload.AnonymousID, payload.MetadataURL)
		if err != nil {
			respondError(ctx, err, "Documents saved but the on-chain update failed")
			return
		}
		response.OnChain = &types.SubmissionResponse{TxHash: txHash, ExplorerURL: ctrl.explorerURL(txHash)}
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Documents updated", response)
}

// GetBackendStatus returns the verification status the backend holds for an email
func (ctrl *Controller) GetBackendStatus(ctx *gin.Context) {
	emailAddr := strings.TrimSpace(ctx.Query("email"))
	if emailAddr == "" {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", types.ErrorData{
			Field:   "email",
			Message: "email is required",
		})
		return
	}

	status, err := ctrl.backend.CheckStatusByEmail(ctx.Request.Context(), emailAddr)
	if err != nil {
		respondError(ctx, err, "Failed to fetch verification status")
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", status)
}

// GetTransactionDetails summarises a mined KYC payment
func (ctrl *Controller) GetTransactionDetails(ctx *gin.Context) {
	hash := ctx.Param("hash")
	if !txHashPattern.MatchString(hash) {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid transaction hash", nil)
		return
	}

	details, err := ctrl.chain.GetTransactionDetails(ctx.Request.Context(), common.HexToHash(hash))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			u.APIResponse(ctx, http.StatusNotFound, "error", "Transaction not found", err.Error())
			return
		}
		respondError(ctx, err, "Failed to fetch transaction")
		return
	}
	u.APIResponse(ctx, http.StatusOK, "success", "OK", details)
}
