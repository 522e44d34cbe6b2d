package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/redis/go-redis/v9"
)

// Withdrawal totals warmup readiness gate.
// The first scan runs asynchronously at startup and the withdrawals endpoint
// answers 503 until it completes.
var (
	withdrawalsWarmupStarted atomic.Bool
	withdrawalsWarmupDone    atomic.Bool
	withdrawalsWarmupErr     atomic.Value // stores string
)

func init() {
	withdrawalsWarmupErr.Store("")
}

// StartWithdrawalsWarmup runs the first withdrawal scan in the background.
// Only the first call starts the warmup.
func StartWithdrawalsWarmup(jobs *Jobs) {
	if !withdrawalsWarmupStarted.CompareAndSwap(false, true) {
		return
	}

	withdrawalsWarmupDone.Store(false)
	withdrawalsWarmupErr.Store("")

	go func() {
		logger.Infof("Withdrawal totals warmup started")
		if err := jobs.RefreshWithdrawalTotals(); err != nil {
			withdrawalsWarmupErr.Store(err.Error())
			logger.Errorf("Withdrawal totals warmup finished with error: %v", err)
		} else {
			logger.Infof("Withdrawal totals warmup completed successfully")
		}
		withdrawalsWarmupDone.Store(true)
	}()
}

// WithdrawalsWarmupDone reports whether the startup scan has finished
func WithdrawalsWarmupDone() bool {
	return withdrawalsWarmupDone.Load()
}

// WithdrawalsWarmupStatus returns the warmup state for readiness checks
func WithdrawalsWarmupStatus() (started bool, done bool, errMsg string) {
	started = withdrawalsWarmupStarted.Load()
	done = withdrawalsWarmupDone.Load()
	if v := withdrawalsWarmupErr.Load(); v != nil {
		if s, ok := v.(string); ok {
			errMsg = s
		}
	}
	return started, done, errMsg
}

// acquireDistributedLock acquires a distributed lock using Redis SetNX
// Returns:
//   - cleanup: function to release the lock (call with defer)
//   - acquired: true if lock was acquired, false if another instance has the lock
//   - err: error if lock acquisition failed
func acquireDistributedLock(ctx context.Context, client redis.Cmdable, lockKey string, ttl time.Duration, functionName string) (cleanup func(), acquired bool, err error) {
	lockAcquired, err := client.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		logger.WithFields(logger.Fields{
			"Error": fmt.Sprintf("%v", err),
		}).Errorf("%s: Failed to acquire lock", functionName)
		return nil, false, err
	}
	if !lockAcquired {
		return nil, false, nil
	}

	cleanup = func() {
		_ = client.Del(ctx, lockKey).Err()
	}
	return cleanup, true, nil
}
