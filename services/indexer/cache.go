package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mirakyc/onboarding/types"
	"github.com/redis/go-redis/v9"
)

// WithdrawalScanCacheKey holds the latest withdrawal scan as JSON
const WithdrawalScanCacheKey = "kyc:withdrawals:scan"

// ErrCacheMiss is returned when no fresh scan is cached
var ErrCacheMiss = errors.New("withdrawal scan not cached")

// CacheWithdrawalScan stores scan for ttl
func CacheWithdrawalScan(ctx context.Context, client redis.Cmdable, scan *types.WithdrawalScan, ttl time.Duration) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("CacheWithdrawalScan.Marshal: %w", err)
	}
	if err := client.Set(ctx, WithdrawalScanCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("CacheWithdrawalScan.Set: %w", err)
	}
	return nil
}

// CachedWithdrawalScan returns the cached scan or ErrCacheMiss
func CachedWithdrawalScan(ctx context.Context, client redis.Cmdable) (*types.WithdrawalScan, error) {
	data, err := client.Get(ctx, WithdrawalScanCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("CachedWithdrawalScan.Get: %w", err)
	}

	var scan types.WithdrawalScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("CachedWithdrawalScan.Unmarshal: %w", err)
	}
	return &scan, nil
}
