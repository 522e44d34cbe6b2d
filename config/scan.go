package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// ScanConfiguration controls the FundsWithdrawn log scan
type ScanConfiguration struct {
	MaxBlockRange     uint64
	InitialBlockRange uint64
	MaxRetries        int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	ChunkDelay        time.Duration
	SingleRangeDelay  time.Duration
	RecentChunkWindow int
	RecentRetryDelay  time.Duration
	SmallerChunkDelay time.Duration

	PrunedFallbackRange     uint64
	RateLimitFallbackRanges []uint64
	RateLimitFallbackDelays []time.Duration
	AlternateRange          uint64
	AlternateDelay          time.Duration
}

// ScanConfig sets the log scan configuration
func ScanConfig() *ScanConfiguration {
	viper.SetDefault("SCAN_MAX_BLOCK_RANGE", 50000)
	viper.SetDefault("SCAN_INITIAL_BLOCK_RANGE", 100000)
	viper.SetDefault("SCAN_MAX_RETRIES", 3)
	viper.SetDefault("SCAN_BASE_BACKOFF", 2000)
	viper.SetDefault("SCAN_MAX_BACKOFF", 20000)
	viper.SetDefault("SCAN_CHUNK_DELAY", 1000)
	viper.SetDefault("SCAN_SINGLE_RANGE_DELAY", 500)
	viper.SetDefault("SCAN_RECENT_CHUNK_WINDOW", 3)
	viper.SetDefault("SCAN_RECENT_RETRY_DELAY", 5000)
	viper.SetDefault("SCAN_SMALLER_CHUNK_DELAY", 3000)
	viper.SetDefault("SCAN_PRUNED_FALLBACK_RANGE", 10000)
	viper.SetDefault("SCAN_RATE_LIMIT_FALLBACK_RANGES", "5000,1000")
	viper.SetDefault("SCAN_RATE_LIMIT_FALLBACK_DELAYS", "5000,3000")
	viper.SetDefault("SCAN_ALTERNATE_RANGE", 10000)
	viper.SetDefault("SCAN_ALTERNATE_DELAY", 3000)

	var ranges []uint64
	for _, item := range splitList(viper.GetString("SCAN_RATE_LIMIT_FALLBACK_RANGES")) {
		if n, err := strconv.ParseUint(item, 10, 64); err == nil {
			ranges = append(ranges, n)
		}
	}

	var delays []time.Duration
	for _, item := range splitList(viper.GetString("SCAN_RATE_LIMIT_FALLBACK_DELAYS")) {
		if n, err := strconv.Atoi(item); err == nil {
			delays = append(delays, time.Duration(n)*time.Millisecond)
		}
	}

	return &ScanConfiguration{
		MaxBlockRange:           viper.GetUint64("SCAN_MAX_BLOCK_RANGE"),
		InitialBlockRange:       viper.GetUint64("SCAN_INITIAL_BLOCK_RANGE"),
		MaxRetries:              viper.GetInt("SCAN_MAX_RETRIES"),
		BaseBackoff:             time.Duration(viper.GetInt("SCAN_BASE_BACKOFF")) * time.Millisecond,
		MaxBackoff:              time.Duration(viper.GetInt("SCAN_MAX_BACKOFF")) * time.Millisecond,
		ChunkDelay:              time.Duration(viper.GetInt("SCAN_CHUNK_DELAY")) * time.Millisecond,
		SingleRangeDelay:        time.Duration(viper.GetInt("SCAN_SINGLE_RANGE_DELAY")) * time.Millisecond,
		RecentChunkWindow:       viper.GetInt("SCAN_RECENT_CHUNK_WINDOW"),
		RecentRetryDelay:        time.Duration(viper.GetInt("SCAN_RECENT_RETRY_DELAY")) * time.Millisecond,
		SmallerChunkDelay:       time.Duration(viper.GetInt("SCAN_SMALLER_CHUNK_DELAY")) * time.Millisecond,
		PrunedFallbackRange:     viper.GetUint64("SCAN_PRUNED_FALLBACK_RANGE"),
		RateLimitFallbackRanges: ranges,
		RateLimitFallbackDelays: delays,
		AlternateRange:          viper.GetUint64("SCAN_ALTERNATE_RANGE"),
		AlternateDelay:          time.Duration(viper.GetInt("SCAN_ALTERNATE_DELAY")) * time.Millisecond,
	}
}

func init() {
	if err := SetupConfig(); err != nil {
		panic(fmt.Sprintf("config SetupConfig() error: %s", err))
	}
}
