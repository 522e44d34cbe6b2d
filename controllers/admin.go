package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/services/email"
	"github.com/mirakyc/onboarding/services/indexer"
	"github.com/mirakyc/onboarding/types"
	u "github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
)

// GetContractOverview returns the owner, balance and total withdrawals of the KYC contract
func (ctrl *Controller) GetContractOverview(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()

	owner, err := ctrl.chain.GetContractOwner(reqCtx)
	if err != nil {
		respondError(ctx, err, "Failed to get contract owner")
		return
	}

	balance, err := ctrl.chain.GetContractBalance(reqCtx)
	if err != nil {
		respondError(ctx, err, "Failed to get contract balance")
		return
	}

	overview := types.ContractOverview{
		Owner:       owner.Hex(),
		Balance:     balance.String(),
		TokenSymbol: ctrl.chainConf.TokenSymbol,
	}

	if scan, err := indexer.CachedWithdrawalScan(reqCtx, ctrl.cache); err == nil {
		overview.TotalWithdrawals = scan.Total.String()
	} else if total, err := ctrl.scanner.GetTotalWithdrawals(reqCtx); err == nil {
		overview.TotalWithdrawals = total
	} else {
		overview.WithdrawalsError = err.Error()
	}

	u.APIResponse(ctx, http.StatusOK, "success", "OK", overview)
}

// WithdrawFunds withdraws contract funds to the owner
func (ctrl *Controller) WithdrawFunds(ctx *gin.Context) {
	var payload types.WithdrawPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", err.Error())
		return
	}
	if !payload.Amount.IsPositive() {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Invalid request", types.ErrorData{
			Field:   "amount",
			Message: "amount must be greater than zero",
		})
		return
	}

	reqCtx := ctx.Request.Context()
	txHash, err := ctrl.chain.WithdrawContractFunds(reqCtx, payload.Amount)
	if err != nil {
		respondError(ctx, err, "Failed to withdraw funds")
		return
	}

	if err := ctrl.cache.Del(reqCtx, indexer.WithdrawalScanCacheKey).Err(); err != nil {
		logger.Warnf("Failed to invalidate withdrawal cache: %v", err)
	}

	response := types.SubmissionResponse{TxHash: txHash, ExplorerURL: ctrl.explorerURL(txHash)}
	if payload.NotifyEmail != "" && ctrl.emails != nil {
		_, err := ctrl.emails.SendWithdrawalReceipt(reqCtx, payload.NotifyEmail, payload.Amount.String(), txHash, response.ExplorerURL)
		if err != nil && !errors.Is(err, email.ErrEmailDisabled) {
			logger.WithFields(logger.Fields{
				"Error":  err.Error(),
				"TxHash": txHash,
			}).Warnf("Failed to send withdrawal receipt")
		}
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Funds withdrawn", response)
}

// GetWithdrawals returns the withdrawal scan, from the cache unless refresh=true
func (ctrl *Controller) GetWithdrawals(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()

	if ctx.Query("refresh") != "true" {
		scan, err := indexer.CachedWithdrawalScan(reqCtx, ctrl.cache)
		if err == nil {
			u.APIResponse(ctx, http.StatusOK, "success", "OK", types.WithdrawalSummary{WithdrawalScan: scan, Cached: true})
			return
		}
		if !errors.Is(err, indexer.ErrCacheMiss) {
			logger.Warnf("Withdrawal cache unavailable: %v", err)
		}
	}

	scan, err := ctrl.scanner.ScanWithdrawals(reqCtx)
	if err != nil {
		respondError(ctx, err, "Failed to scan withdrawals")
		return
	}

	if err := indexer.CacheWithdrawalScan(reqCtx, ctrl.cache, scan, ctrl.redisConf.WithdrawalCacheTTL); err != nil {
		logger.Warnf("Failed to cache withdrawal scan: %v", err)
	}

	u.APIResponse(ctx, http.StatusOK, "success", "OK", types.WithdrawalSummary{WithdrawalScan: scan})
}
