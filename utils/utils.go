package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/types"
	"github.com/shopspring/decimal"
)

// ToSubunit converts a decimal amount to the smallest subunit representation.
// It takes the amount and the number of decimal places (decimals) and returns
// the amount in subunits as a *big.Int.
func ToSubunit(amount decimal.Decimal, decimals int8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// FromSubunit converts an amount in subunits represented as a *big.Int back
// to its decimal representation with the given number of decimal places (decimals).
func FromSubunit(amountInSubunit *big.Int, decimals int8) decimal.Decimal {
	if amountInSubunit == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amountInSubunit, -int32(decimals))
}

// KeccakID hashes a UTF-8 string with keccak256, the same way ethers.id does
func KeccakID(value string) common.Hash {
	return crypto.Keccak256Hash([]byte(value))
}

// IsValidEthereumAddress checks if a string is a valid Ethereum address
func IsValidEthereumAddress(address string) bool {
	pattern := `^0x[a-fA-F0-9]{40}$`
	matched, _ := regexp.MatchString(pattern, address)
	return matched
}

// SameAddress compares two hex addresses case-insensitively
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// APIResponse writes the standard response envelope
func APIResponse(ctx *gin.Context, code int, status string, message string, data interface{}) {
	ctx.JSON(code, types.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ParseJSONResponse reads and decodes a JSON response body, returning an error for non-2xx codes
func ParseJSONResponse(res *http.Response) (map[string]interface{}, error) {
	if res == nil {
		return nil, fmt.Errorf("nil response")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var data map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("error parsing response body: %w", err)
		}
	}

	if res.StatusCode >= 300 {
		return data, fmt.Errorf("unexpected status code %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	return data, nil
}

// Retry is a function that attempts to execute a given function multiple times until it succeeds or the maximum number of attempts is reached.
// It sleeps for a specified duration between each attempt.
func Retry(attempts int, sleep time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(sleep)
	}
	return err
}

// Backoff returns the delay before the given retry attempt (1-based):
// base * 2^(attempt-1), capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
