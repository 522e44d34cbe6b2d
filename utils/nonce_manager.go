package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrTxBroadcastNoReceipt marks a transaction that reached the node but whose receipt never arrived
var ErrTxBroadcastNoReceipt = errors.New("transaction broadcast but receipt not received")

// NonceSource is the part of the chain client the nonce manager needs
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

type nonceKey struct {
	chainID int64
	address common.Address
}

// NonceManager hands out sequential nonces per (chain, signer) so that concurrent
// approve/submit/withdraw calls from the same key do not collide.
type NonceManager struct {
	mu     sync.Mutex
	nonces map[nonceKey]uint64
}

var DefaultNonceManager = NewNonceManager()

func NewNonceManager() *NonceManager {
	return &NonceManager{
		nonces: make(map[nonceKey]uint64),
	}
}

// AcquireNonce returns the next nonce, seeding from the pending nonce on first use
func (nm *NonceManager) AcquireNonce(ctx context.Context, source NonceSource, chainID int64, addr common.Address) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := nonceKey{chainID, addr}

	if _, ok := nm.nonces[key]; !ok {
		if source == nil {
			return 0, fmt.Errorf("no nonce source for %s", addr.Hex())
		}
		pendingNonce, err := source.PendingNonceAt(ctx, addr)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch pending nonce: %w", err)
		}
		nm.nonces[key] = pendingNonce
	}

	nonce := nm.nonces[key]
	nm.nonces[key]++
	return nonce, nil
}

// ReleaseNonce gives back a nonce whose transaction never reached the node.
// Only the most recently issued nonce can be rolled back; anything older is
// already followed by other in-flight transactions and is left as a gap.
func (nm *NonceManager) ReleaseNonce(chainID int64, addr common.Address, nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := nonceKey{chainID, addr}
	if current, ok := nm.nonces[key]; ok && current == nonce+1 {
		nm.nonces[key] = nonce
	}
}

// ResetNonce forces a re-fetch from RPC on next AcquireNonce.
func (nm *NonceManager) ResetNonce(chainID int64, addr common.Address) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.nonces, nonceKey{chainID, addr})
}

// SubmitWithNonce wraps transaction submission with automatic nonce error recovery.
// submitFn receives a nonce and returns an error if submission failed.
func (nm *NonceManager) SubmitWithNonce(
	ctx context.Context,
	source NonceSource,
	chainID int64,
	addr common.Address,
	submitFn func(nonce uint64) error,
) error {
	const maxRetries = 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		nonce, err := nm.AcquireNonce(ctx, source, chainID, addr)
		if err != nil {
			return err
		}

		err = submitFn(nonce)
		if err == nil {
			return nil
		}

		if isNonceTooLow(err) {
			nm.ResetNonce(chainID, addr)
			continue
		}

		// Nonce consumed on-chain; resync next time
		if errors.Is(err, ErrTxBroadcastNoReceipt) {
			nm.ResetNonce(chainID, addr)
			return err
		}

		nm.ReleaseNonce(chainID, addr, nonce)
		return err
	}

	return fmt.Errorf("failed after %d attempts due to nonce conflicts", maxRetries)
}

func isNonceTooLow(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "replacement transaction underpriced") ||
		strings.Contains(msg, "already known")
}
