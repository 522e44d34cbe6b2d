package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/mirakyc/onboarding/services/indexer"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/mirakyc/onboarding/utils/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ContractBalanceCacheKey holds the last observed contract token balance
const ContractBalanceCacheKey = "kyc:contract:balance"

const (
	pendingBatchSize = 50
	// pending logs younger than this are left for the submitting request to settle
	pendingGracePeriod = 2 * time.Minute
	// a transaction with no receipt after this long is considered dropped
	pendingDropAfter = time.Hour
)

// BalanceReader reads the contract token balance
type BalanceReader interface {
	GetContractBalance(ctx context.Context) (decimal.Decimal, error)
}

// ReceiptReader fetches transaction receipts
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethTypes.Receipt, error)
}

// TransactionLogs is the part of the transaction log store the jobs use
type TransactionLogs interface {
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]types.TransactionLog, error)
	MarkStatus(ctx context.Context, txHash string, status types.TransactionStatus, blockNumber int64) error
	SumConfirmedWithdrawals(ctx context.Context) (decimal.Decimal, error)
}

// Jobs holds the services the scheduled jobs call into
type Jobs struct {
	Chain    BalanceReader
	Scanner  types.WithdrawalScanner
	Receipts ReceiptReader
	// Logs is nil when the database is disabled
	Logs     TransactionLogs
	Redis    redis.Cmdable
	CacheTTL time.Duration

	now func() time.Time
}

func (j *Jobs) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

// RefreshWithdrawalTotals scans the FundsWithdrawn history and caches the result
func (j *Jobs) RefreshWithdrawalTotals() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cleanup, acquired, err := acquireDistributedLock(ctx, j.Redis, "task_refresh_withdrawal_totals_lock", 6*time.Minute, "RefreshWithdrawalTotals")
	if err != nil || !acquired {
		return err
	}
	defer cleanup()

	scan, err := j.Scanner.ScanWithdrawals(ctx)
	if err != nil {
		return fmt.Errorf("RefreshWithdrawalTotals.ScanWithdrawals: %w", err)
	}

	if scan.RateLimitedChunks > 0 {
		logger.WithFields(logger.Fields{
			"RateLimitedChunks": scan.RateLimitedChunks,
			"FromBlock":         scan.FromBlock,
			"ToBlock":           scan.ToBlock,
		}).Warnf("RefreshWithdrawalTotals: scan is incomplete")
	}

	if err := indexer.CacheWithdrawalScan(ctx, j.Redis, scan, j.CacheTTL); err != nil {
		logger.Errorf("RefreshWithdrawalTotals.CacheWithdrawalScan: %v", err)
	}
	metrics.SetWithdrawalsTotal(scan.Total)

	if j.Logs != nil {
		recorded, err := j.Logs.SumConfirmedWithdrawals(ctx)
		if err != nil {
			logger.Errorf("RefreshWithdrawalTotals.SumConfirmedWithdrawals: %v", err)
		} else if recorded.GreaterThan(scan.Total) {
			logger.WithFields(logger.Fields{
				"Recorded": recorded.String(),
				"Scanned":  scan.Total.String(),
			}).Warnf("RefreshWithdrawalTotals: recorded withdrawals exceed the scanned total")
		}
	}

	return nil
}

// RefreshContractBalance updates the contract balance gauge and cache
func (j *Jobs) RefreshContractBalance() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cleanup, acquired, err := acquireDistributedLock(ctx, j.Redis, "task_refresh_contract_balance_lock", 2*time.Minute, "RefreshContractBalance")
	if err != nil || !acquired {
		return err
	}
	defer cleanup()

	balance, err := j.Chain.GetContractBalance(ctx)
	if err != nil {
		return fmt.Errorf("RefreshContractBalance.GetContractBalance: %w", err)
	}

	metrics.SetContractBalance(balance)
	if err := j.Redis.Set(ctx, ContractBalanceCacheKey, balance.String(), j.CacheTTL).Err(); err != nil {
		logger.Errorf("RefreshContractBalance.Set: %v", err)
	}
	return nil
}

// ReconcilePendingTransactions settles pending transaction logs from their receipts
func (j *Jobs) ReconcilePendingTransactions() error {
	if j.Logs == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cleanup, acquired, err := acquireDistributedLock(ctx, j.Redis, "task_reconcile_pending_transactions_lock", 3*time.Minute, "ReconcilePendingTransactions")
	if err != nil || !acquired {
		return err
	}
	defer cleanup()

	now := j.clock()
	pending, err := j.Logs.ListPending(ctx, now.Add(-pendingGracePeriod), pendingBatchSize)
	if err != nil {
		return fmt.Errorf("ReconcilePendingTransactions.ListPending: %w", err)
	}

	for _, txLog := range pending {
		receipt, err := j.Receipts.TransactionReceipt(ctx, common.HexToHash(txLog.TxHash))
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				if now.Sub(txLog.CreatedAt) > pendingDropAfter {
					j.markStatus(ctx, txLog, types.TransactionStatusFailed, 0)
				}
				continue
			}
			logger.WithFields(logger.Fields{
				"Error":  err.Error(),
				"TxHash": txLog.TxHash,
			}).Errorf("ReconcilePendingTransactions.TransactionReceipt")
			continue
		}

		status := types.TransactionStatusFailed
		if receipt.Status == ethTypes.ReceiptStatusSuccessful {
			status = types.TransactionStatusConfirmed
		}
		var blockNumber int64
		if receipt.BlockNumber != nil {
			blockNumber = receipt.BlockNumber.Int64()
		}
		j.markStatus(ctx, txLog, status, blockNumber)
	}

	return nil
}

func (j *Jobs) markStatus(ctx context.Context, txLog types.TransactionLog, status types.TransactionStatus, blockNumber int64) {
	if err := j.Logs.MarkStatus(ctx, txLog.TxHash, status, blockNumber); err != nil {
		logger.WithFields(logger.Fields{
			"Error":  err.Error(),
			"TxHash": txLog.TxHash,
			"Status": status,
		}).Errorf("ReconcilePendingTransactions.MarkStatus")
		return
	}
	logger.WithFields(logger.Fields{
		"TxHash": txLog.TxHash,
		"Kind":   txLog.Kind,
		"Status": status,
	}).Infof("Transaction settled")
}
