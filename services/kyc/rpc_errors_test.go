package kyc

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/stretchr/testify/assert"
)

type jsonRPCError struct {
	code    int
	message string
	data    interface{}
}

func (e *jsonRPCError) Error() string          { return e.message }
func (e *jsonRPCError) ErrorCode() int         { return e.code }
func (e *jsonRPCError) ErrorData() interface{} { return e.data }

// revertData ABI-encodes Error(string)
func revertData(reason string) string {
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	offset := make([]byte, 32)
	offset[31] = 0x20
	length := make([]byte, 32)
	length[31] = byte(len(reason))
	padded := make([]byte, ((len(reason)+31)/32)*32)
	copy(padded, reason)

	data := append([]byte{}, selector...)
	data = append(data, offset...)
	data = append(data, length...)
	data = append(data, padded...)
	return hexutil.Encode(data)
}

func TestClassifyRPCError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want RPCErrorClass
	}{
		{"nil", nil, RPCErrorUnknown},
		{"user rejected code", &jsonRPCError{code: 4001, message: "denied"}, RPCErrorRejected},
		{"user rejected text", errors.New("user rejected transaction"), RPCErrorRejected},
		{"request pending", &jsonRPCError{code: -32002, message: "already pending"}, RPCErrorPending},
		{"limit exceeded code", &jsonRPCError{code: -32005, message: "limit"}, RPCErrorRateLimit},
		{"nested limit code", &jsonRPCError{code: -32000, message: "upstream", data: map[string]interface{}{
			"error": map[string]interface{}{"code": -32005},
		}}, RPCErrorRateLimit},
		{"http 429", rpc.HTTPError{StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests"}, RPCErrorRateLimit},
		{"rate limit text", errors.New("method eth_getLogs in batch triggered rate limit"), RPCErrorRateLimit},
		{"rate_limit text", errors.New("RATE_LIMIT exceeded"), RPCErrorRateLimit},
		{"pruned", errors.New("History has been pruned for this block"), RPCErrorPruned},
		{"block range", errors.New("exceed maximum block range: 50000"), RPCErrorBlockRange},
		{"reverted", errors.New("execution reverted"), RPCErrorReverted},
		{"not found", ethereum.NotFound, RPCErrorNotFound},
		{"no code", bind.ErrNoCode, RPCErrorNotFound},
		{"bad data", errors.New("could not decode result data (code=BAD_DATA)"), RPCErrorNotFound},
		{"wrapped", fmt.Errorf("FilterLogs: %w", errors.New("rate limit")), RPCErrorRateLimit},
		{"other", errors.New("connection reset by peer"), RPCErrorUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyRPCError(tc.err))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(kycErrors.ErrRateLimited{}))
	assert.True(t, IsRateLimited(errors.New("rate limit")))
	assert.False(t, IsRateLimited(errors.New("pruned")))
}

func TestRevertReason(t *testing.T) {
	t.Run("from revert data", func(t *testing.T) {
		err := &jsonRPCError{code: 3, message: "execution reverted", data: revertData("Fee not approved")}
		assert.Equal(t, "Fee not approved", RevertReason(err))
	})

	t.Run("from message", func(t *testing.T) {
		assert.Equal(t, "Already submitted", RevertReason(errors.New("execution reverted: Already submitted")))
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, RevertReason(errors.New("execution reverted")))
		assert.Empty(t, RevertReason(nil))
	})
}

func TestMapError(t *testing.T) {
	const network = "Binance Smart Chain Testnet"

	t.Run("revert reason on submit", func(t *testing.T) {
		err := MapError(errors.New("execution reverted: Insufficient allowance"), OperationSubmit, network)
		assert.EqualError(t, err, "Transaction failed: Insufficient allowance")
	})

	t.Run("revert reason on withdraw", func(t *testing.T) {
		err := MapError(errors.New("execution reverted: Ownable: caller is not the owner"), OperationWithdraw, network)
		assert.EqualError(t, err, "Withdrawal failed: Ownable: caller is not the owner")
	})

	t.Run("bare revert", func(t *testing.T) {
		err := MapError(errors.New("execution reverted"), OperationSubmit, network)
		assert.EqualError(t, err, "Transaction reverted: execution reverted. Please check your balance and try again.")

		err = MapError(errors.New("execution reverted"), OperationWithdraw, network)
		assert.EqualError(t, err, "Transaction reverted: execution reverted. Only the contract owner can withdraw funds.")
	})

	t.Run("contract not found", func(t *testing.T) {
		err := MapError(bind.ErrNoCode, OperationSubmit, network)
		assert.EqualError(t, err, "Contract not found. Please ensure you are connected to the correct network (Binance Smart Chain Testnet).")
	})

	t.Run("rejected", func(t *testing.T) {
		err := MapError(&jsonRPCError{code: 4001, message: "User denied transaction signature"}, OperationSubmit, network)
		assert.Equal(t, kycErrors.ErrTransactionRejected{}, err)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		notOwner := kycErrors.ErrNotOwner{Owner: "0xA", Caller: "0xB"}
		assert.Equal(t, notOwner, MapError(notOwner, OperationWithdraw, network))

		insufficient := fmt.Errorf("withdraw: %w", kycErrors.ErrInsufficientContractBalance{Available: "1", Requested: "5", Symbol: "USDT"})
		assert.Equal(t, insufficient, MapError(insufficient, OperationWithdraw, network))
	})

	t.Run("unknown passes through", func(t *testing.T) {
		original := errors.New("insufficient funds for gas * price + value")
		assert.Equal(t, original, MapError(original, OperationSubmit, network))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil, OperationSubmit, network))
	})
}
