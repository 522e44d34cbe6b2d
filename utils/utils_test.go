package utils

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtils(t *testing.T) {

	t.Run("ToSubunit", func(t *testing.T) {
		testCases := []struct {
			amount    decimal.Decimal
			decimals  int8
			expectVal *big.Int
		}{
			{
				amount:    decimal.NewFromFloat(1.23),
				decimals:  2,
				expectVal: big.NewInt(123),
			},
			{
				amount:    decimal.NewFromFloat(0.001),
				decimals:  8,
				expectVal: big.NewInt(100000),
			},
			{
				amount:    decimal.NewFromInt(2),
				decimals:  18,
				expectVal: new(big.Int).Mul(big.NewInt(2), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)),
			},
		}

		for _, tc := range testCases {
			actualVal := ToSubunit(tc.amount, tc.decimals)
			assert.Equal(t, 0, tc.expectVal.Cmp(actualVal), "expected %s, got %s", tc.expectVal, actualVal)
		}
	})

	t.Run("FromSubunit", func(t *testing.T) {
		testCases := []struct {
			amountInSubunit *big.Int
			decimals        int8
			expectVal       decimal.Decimal
		}{
			{
				amountInSubunit: big.NewInt(123),
				decimals:        2,
				expectVal:       decimal.NewFromFloat(1.23),
			},
			{
				amountInSubunit: big.NewInt(1),
				decimals:        8,
				expectVal:       decimal.NewFromFloat(0.00000001),
			},
			{
				amountInSubunit: nil,
				decimals:        18,
				expectVal:       decimal.Zero,
			},
		}

		for _, tc := range testCases {
			actualVal := FromSubunit(tc.amountInSubunit, tc.decimals)
			assert.True(t, tc.expectVal.Equal(actualVal), "expected %s, got %s", tc.expectVal, actualVal)
		}
	})

	t.Run("KeccakID", func(t *testing.T) {
		// keccak256("") is a well known constant
		assert.Equal(t,
			"0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
			KeccakID("").Hex(),
		)
		assert.NotEqual(t, KeccakID("anon-1"), KeccakID("anon-2"))
	})

	t.Run("IsValidEthereumAddress", func(t *testing.T) {
		assert.True(t, IsValidEthereumAddress("0x927f6773D3B777F1d04f22893cbf9Fe69F624EB9"))
		assert.False(t, IsValidEthereumAddress("0x927f"))
		assert.False(t, IsValidEthereumAddress("927f6773D3B777F1d04f22893cbf9Fe69F624EB9"))
	})

	t.Run("SameAddress", func(t *testing.T) {
		assert.True(t, SameAddress("0xABCDEF", "0xabcdef"))
		assert.False(t, SameAddress("0xabc", "0xabd"))
	})

	t.Run("Backoff", func(t *testing.T) {
		base, max := 2*time.Second, 20*time.Second
		assert.Equal(t, time.Duration(0), Backoff(0, base, max))
		assert.Equal(t, 2*time.Second, Backoff(1, base, max))
		assert.Equal(t, 4*time.Second, Backoff(2, base, max))
		assert.Equal(t, 8*time.Second, Backoff(3, base, max))
		assert.Equal(t, 16*time.Second, Backoff(4, base, max))
		assert.Equal(t, 20*time.Second, Backoff(5, base, max))
		assert.Equal(t, 20*time.Second, Backoff(12, base, max))
	})

	t.Run("Retry", func(t *testing.T) {
		calls := 0
		err := Retry(3, time.Millisecond, func() error {
			calls++
			if calls < 2 {
				return assert.AnError
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("SleepHonoursContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	})
}

func TestAPIResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	APIResponse(ctx, http.StatusOK, "success", "OK", map[string]string{"chainId": "97"})

	var res types.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "OK", res.Message)
	assert.Equal(t, "97", res.Data.(map[string]interface{})["chainId"])
}

func TestParseJSONResponse(t *testing.T) {
	newResponse := func(code int, body string) *http.Response {
		return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body))}
	}

	data, err := ParseJSONResponse(newResponse(200, `{"status":"pending"}`))
	require.NoError(t, err)
	assert.Equal(t, "pending", data["status"])

	data, err = ParseJSONResponse(newResponse(404, `{"message":"not found"}`))
	assert.Error(t, err)
	assert.Equal(t, "not found", data["message"])

	_, err = ParseJSONResponse(newResponse(200, `not-json`))
	assert.Error(t, err)
}
