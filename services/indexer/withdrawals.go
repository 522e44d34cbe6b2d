package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/services/kyc"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/mirakyc/onboarding/utils/metrics"
	"golang.org/x/time/rate"
)

var errRangeUnknown = kycErrors.ErrRateLimited{Message: "Rate limited and cannot determine block range"}

// WithdrawalScanner sums FundsWithdrawn events emitted by the KYC registry
type WithdrawalScanner struct {
	client     types.RPCClient
	dial       types.RPCDialer
	alternates []string
	contract   common.Address
	conf       *config.ScanConfiguration
	decimals   func(ctx context.Context) int8
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// ScannerOption configures a WithdrawalScanner
type ScannerOption func(*WithdrawalScanner)

// WithAlternateEndpoints sets the RPC endpoints tried when the primary node rate limits
func WithAlternateEndpoints(dial types.RPCDialer, endpoints ...string) ScannerOption {
	return func(s *WithdrawalScanner) {
		s.dial = dial
		s.alternates = endpoints
	}
}

// WithDecimals sets how token decimals are resolved when formatting totals
func WithDecimals(decimals func(ctx context.Context) int8) ScannerOption {
	return func(s *WithdrawalScanner) { s.decimals = decimals }
}

// WithScanSleep overrides the wait used between fallback strategies and retries
func WithScanSleep(sleep func(ctx context.Context, d time.Duration) error) ScannerOption {
	return func(s *WithdrawalScanner) { s.sleep = sleep }
}

// NewWithdrawalScanner creates a scanner over the primary RPC client
func NewWithdrawalScanner(client types.RPCClient, contract common.Address, conf *config.ScanConfiguration, opts ...ScannerOption) *WithdrawalScanner {
	limit := rate.Inf
	if conf.ChunkDelay > 0 {
		limit = rate.Every(conf.ChunkDelay)
	}

	s := &WithdrawalScanner{
		client:   client,
		contract: contract,
		conf:     conf,
		decimals: func(ctx context.Context) int8 { return 18 },
		limiter:  rate.NewLimiter(limit, 1),
		sleep:    utils.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WithdrawalScanner) filter(from uint64, to *big.Int) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   to,
		Addresses: []common.Address{s.contract},
		Topics:    [][]common.Hash{{utils.FundsWithdrawnEventSignature}},
	}
}

func blockNum(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}

func lastBlocks(to, n uint64) uint64 {
	if to > n {
		return to - n
	}
	return 0
}

// queryLogs runs a single eth_getLogs call
func (s *WithdrawalScanner) queryLogs(ctx context.Context, client types.RPCClient, from uint64, to *big.Int) ([]ethTypes.Log, error) {
	logs, err := client.FilterLogs(ctx, s.filter(from, to))
	if err != nil {
		metrics.RecordLogQuery(kyc.ClassifyRPCError(err).String())
		return nil, err
	}
	metrics.RecordLogQuery("ok")
	return logs, nil
}

// queryLogsWithRetry retries eth_getLogs with exponential backoff. Pruned history and
// block range errors are returned at once since retrying cannot fix them.
func (s *WithdrawalScanner) queryLogsWithRetry(ctx context.Context, client types.RPCClient, from, to uint64) ([]ethTypes.Log, error) {
	var lastErr error

	for attempt := 0; attempt < s.conf.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := utils.Backoff(attempt, s.conf.BaseBackoff, s.conf.MaxBackoff)
			logger.WithFields(logger.Fields{
				"FromBlock": from,
				"ToBlock":   to,
				"Attempt":   attempt + 1,
				"Delay":     delay.String(),
			}).Debugf("Retrying log query")
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		logs, err := s.queryLogs(ctx, client, from, blockNum(to))
		if err == nil {
			return logs, nil
		}
		lastErr = err

		switch kyc.ClassifyRPCError(err) {
		case kyc.RPCErrorPruned, kyc.RPCErrorBlockRange:
			return nil, err
		case kyc.RPCErrorRateLimit:
			if attempt == s.conf.MaxRetries-1 {
				logger.WithFields(logger.Fields{
					"FromBlock": from,
					"ToBlock":   to,
					"Attempt":   attempt + 1,
				}).Errorf("Rate limit error after %d attempts", s.conf.MaxRetries)
				return nil, err
			}
			logger.WithFields(logger.Fields{
				"FromBlock": from,
				"ToBlock":   to,
				"Attempt":   attempt + 1,
			}).Warnf("Rate limit hit, will retry")
		}
	}

	if lastErr == nil {
		lastErr = errors.New("failed to query logs after retries")
	}
	return nil, lastErr
}

type chunkStats struct {
	pruned      int
	rateLimited int
}

// scanChunks walks [from, to] in MaxBlockRange chunks, newest first
func (s *WithdrawalScanner) scanChunks(ctx context.Context, from, to uint64) ([]ethTypes.Log, chunkStats, error) {
	var (
		allLogs []ethTypes.Log
		stats   chunkStats
	)

	maxRange := s.conf.MaxBlockRange
	numChunks := int((to - from + maxRange - 1) / maxRange)

	for chunkIndex := numChunks - 1; chunkIndex >= 0; chunkIndex-- {
		blocksFromEnd := uint64(numChunks-1-chunkIndex) * maxRange

		var chunkStart, chunkEnd uint64
		if chunkIndex == 0 {
			chunkEnd = min(to, from+maxRange-1)
			chunkStart = from
		} else {
			if blocksFromEnd > to {
				continue
			}
			chunkEnd = to - blocksFromEnd
			chunkStart = from
			if chunkEnd+1 > maxRange && chunkEnd-maxRange+1 > from {
				chunkStart = chunkEnd - maxRange + 1
			}
		}
		if chunkStart > chunkEnd {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return allLogs, stats, err
		}

		fields := logger.Fields{
			"Chunk":     fmt.Sprintf("%d/%d", chunkIndex+1, numChunks),
			"FromBlock": chunkStart,
			"ToBlock":   chunkEnd,
		}
		logger.WithFields(fields).Debugf("Querying chunk")

		chunkLogs, err := s.queryLogsWithRetry(ctx, s.client, chunkStart, chunkEnd)
		if err == nil {
			allLogs = append(allLogs, chunkLogs...)
			if len(chunkLogs) > 0 && chunkIndex >= numChunks-s.conf.RecentChunkWindow {
				logger.WithFields(fields).Debugf("Found events in recent chunks, stopping early")
				break
			}
			continue
		}
		if ctx.Err() != nil {
			return allLogs, stats, ctx.Err()
		}

		switch kyc.ClassifyRPCError(err) {
		case kyc.RPCErrorPruned:
			stats.pruned++
			logger.WithFields(fields).Warnf("Chunk has pruned history, skipping")

		case kyc.RPCErrorRateLimit:
			stats.rateLimited++
			logger.WithFields(fields).Warnf("Rate limit for chunk, skipping")
			if chunkIndex == numChunks-1 && len(allLogs) == 0 {
				if err := s.sleep(ctx, s.conf.RecentRetryDelay); err != nil {
					return allLogs, stats, err
				}
				retryLogs, retryErr := s.queryLogsWithRetry(ctx, s.client, chunkStart, chunkEnd)
				if retryErr != nil {
					logger.WithFields(fields).Warnf("Retry also failed, skipping this chunk")
					continue
				}
				allLogs = append(allLogs, retryLogs...)
			}

		case kyc.RPCErrorBlockRange:
			smallerEnd := min(chunkStart+maxRange/2-1, chunkEnd)
			if err := s.sleep(ctx, s.conf.SmallerChunkDelay); err != nil {
				return allLogs, stats, err
			}
			smallerLogs, smallerErr := s.queryLogsWithRetry(ctx, s.client, chunkStart, smallerEnd)
			if smallerErr != nil {
				logger.WithFields(fields).Warnf("Failed to query smaller chunk, skipping")
				continue
			}
			allLogs = append(allLogs, smallerLogs...)

		default:
			fields["Error"] = err.Error()
			logger.WithFields(fields).Warnf("Error querying chunk")
		}
	}

	if len(allLogs) == 0 && stats.pruned == numChunks {
		recentFrom := lastBlocks(to, s.conf.PrunedFallbackRange)
		logger.WithFields(logger.Fields{
			"FromBlock": recentFrom,
			"ToBlock":   to,
		}).Infof("All chunks were pruned, trying the most recent blocks only")

		recentLogs, err := s.queryLogsWithRetry(ctx, s.client, recentFrom, to)
		if err != nil {
			logger.WithFields(logger.Fields{
				"Error": err.Error(),
			}).Warnf("Could not query recent blocks")
		} else {
			allLogs = recentLogs
		}
	}

	return allLogs, stats, nil
}

// scanSingleRange queries [from, to] at once. to is nil when the head block is unknown.
func (s *WithdrawalScanner) scanSingleRange(ctx context.Context, from uint64, to *big.Int) ([]ethTypes.Log, error) {
	if err := s.sleep(ctx, s.conf.SingleRangeDelay); err != nil {
		return nil, err
	}

	var (
		logs []ethTypes.Log
		err  error
	)
	if to != nil {
		logs, err = s.queryLogsWithRetry(ctx, s.client, from, to.Uint64())
	} else {
		logs, err = s.queryLogs(ctx, s.client, from, nil)
	}
	if err == nil {
		return logs, nil
	}

	switch kyc.ClassifyRPCError(err) {
	case kyc.RPCErrorRateLimit:
		if to == nil {
			return nil, errRangeUnknown
		}
		return s.rateLimitFallback(ctx, to.Uint64())

	case kyc.RPCErrorBlockRange:
		logger.Warnf("Block range too large, querying only the most recent blocks")
		return s.queryLogs(ctx, s.client, s.recentFrom(to), to)

	case kyc.RPCErrorPruned:
		logger.Warnf("History pruned, querying only very recent blocks")
		recentLogs, recentErr := s.queryLogs(ctx, s.client, s.recentFrom(to), to)
		if recentErr != nil {
			logger.Warnf("Could not query any events due to pruned history")
			return []ethTypes.Log{}, nil
		}
		return recentLogs, nil

	default:
		return nil, err
	}
}

func (s *WithdrawalScanner) recentFrom(to *big.Int) uint64 {
	if to == nil {
		return 0
	}
	return lastBlocks(to.Uint64(), s.conf.PrunedFallbackRange)
}

// rateLimitFallback narrows the range on the primary node, then tries each alternate endpoint
func (s *WithdrawalScanner) rateLimitFallback(ctx context.Context, to uint64) ([]ethTypes.Log, error) {
	logger.Warnf("Rate limited, trying alternative query strategies")

	for i, blocks := range s.conf.RateLimitFallbackRanges {
		var delay time.Duration
		if i < len(s.conf.RateLimitFallbackDelays) {
			delay = s.conf.RateLimitFallbackDelays[i]
		}
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}

		from := lastBlocks(to, blocks)
		logs, err := s.queryLogsWithRetry(ctx, s.client, from, to)
		if err == nil {
			logger.WithFields(logger.Fields{
				"FromBlock": from,
				"ToBlock":   to,
			}).Infof("Successfully queried the last %d blocks", blocks)
			return logs, nil
		}
		logger.WithFields(logger.Fields{
			"FromBlock": from,
			"ToBlock":   to,
			"Error":     err.Error(),
		}).Warnf("Narrowed range query failed")
	}

	if s.dial != nil {
		for _, endpoint := range s.alternates {
			if err := s.sleep(ctx, s.conf.AlternateDelay); err != nil {
				return nil, err
			}

			logs, err := s.queryAlternate(ctx, endpoint, lastBlocks(to, s.conf.AlternateRange), to)
			if err == nil {
				logger.WithFields(logger.Fields{
					"Endpoint": endpoint,
				}).Infof("Successfully queried using alternative RPC")
				return logs, nil
			}
			logger.WithFields(logger.Fields{
				"Endpoint": endpoint,
				"Error":    err.Error(),
			}).Warnf("Alternative RPC query failed")
		}
	}

	logger.Warnf("All query strategies failed due to rate limiting")
	return nil, kycErrors.ErrRateLimited{}
}

func (s *WithdrawalScanner) queryAlternate(ctx context.Context, endpoint string, from, to uint64) ([]ethTypes.Log, error) {
	client, err := s.dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer client.Close()

	return s.queryLogs(ctx, client, from, blockNum(to))
}

// ScanWithdrawals collects and totals FundsWithdrawn events over the recent block window
func (s *WithdrawalScanner) ScanWithdrawals(ctx context.Context) (*types.WithdrawalScan, error) {
	start := time.Now()
	defer func() { metrics.ObserveLogScan(time.Since(start)) }()

	currentBlock, err := s.client.BlockNumber(ctx)
	if err != nil {
		logger.WithFields(logger.Fields{
			"Error": err.Error(),
		}).Warnf("Could not get current block number, using latest")
		currentBlock = 0
	}

	var (
		from  = lastBlocks(currentBlock, s.conf.InitialBlockRange)
		to    = currentBlock
		logs  []ethTypes.Log
		stats chunkStats
	)

	logger.WithFields(logger.Fields{
		"Contract":  s.contract.Hex(),
		"FromBlock": from,
		"ToBlock":   to,
	}).Infof("Fetching FundsWithdrawn events")

	switch {
	case currentBlock > 0 && to-from > s.conf.MaxBlockRange:
		logs, stats, err = s.scanChunks(ctx, from, to)
	case currentBlock > 0:
		logs, err = s.scanSingleRange(ctx, from, blockNum(to))
	default:
		logs, err = s.scanSingleRange(ctx, 0, nil)
	}
	if err != nil {
		return nil, err
	}

	if stats.pruned > 0 {
		logger.Infof("Skipped %d chunk(s) with pruned history", stats.pruned)
	}
	if stats.rateLimited > 0 {
		logger.Warnf("Skipped %d chunk(s) due to rate limiting", stats.rateLimited)
	}

	decimals := s.decimals(ctx)
	scan := &types.WithdrawalScan{
		Events:            make([]types.FundsWithdrawnEvent, 0, len(logs)),
		TotalWei:          big.NewInt(0),
		FromBlock:         from,
		ToBlock:           to,
		PrunedChunks:      stats.pruned,
		RateLimitedChunks: stats.rateLimited,
		ScannedAt:         time.Now().UTC(),
	}

	for _, log := range logs {
		event, err := utils.DecodeFundsWithdrawnEvent(log)
		if err != nil {
			logger.WithFields(logger.Fields{
				"TxHash":      log.TxHash.Hex(),
				"BlockNumber": log.BlockNumber,
				"Error":       err.Error(),
			}).Errorf("Error processing FundsWithdrawn log")
			continue
		}
		event.Value = utils.FromSubunit(event.Amount, decimals)
		scan.TotalWei.Add(scan.TotalWei, event.Amount)
		scan.Events = append(scan.Events, *event)
	}
	scan.Total = utils.FromSubunit(scan.TotalWei, decimals)

	if len(scan.Events) == 0 {
		logger.WithFields(logger.Fields{
			"FromBlock": from,
			"ToBlock":   to,
		}).Warnf("No withdrawal events found")
	}

	return scan, nil
}

// GetTotalWithdrawals returns the formatted withdrawal total. Rate limits are surfaced;
// any other failure reads as "0".
func (s *WithdrawalScanner) GetTotalWithdrawals(ctx context.Context) (string, error) {
	scan, err := s.ScanWithdrawals(ctx)
	if err != nil {
		if kyc.IsRateLimited(err) {
			logger.Errorf("Rate limit error - cannot fetch withdrawals at this time")
			return "", kycErrors.ErrRateLimited{
				Message: "Rate limited: Unable to fetch total withdrawals. Please try again in a few moments.",
			}
		}
		logger.WithFields(logger.Fields{
			"Error": err.Error(),
		}).Warnf("Returning 0 due to error, this may not reflect actual withdrawals")
		return "0", nil
	}

	return scan.Total.String(), nil
}
