package kyc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	kycErrors "github.com/mirakyc/onboarding/services/kyc/errors"
	"github.com/tidwall/gjson"
)

// RPCErrorClass is the coarse category of a node or wallet error
type RPCErrorClass int

const (
	RPCErrorUnknown RPCErrorClass = iota
	RPCErrorRateLimit
	RPCErrorPruned
	RPCErrorBlockRange
	RPCErrorNotFound
	RPCErrorRejected
	RPCErrorPending
	RPCErrorReverted
)

// JSON-RPC and EIP-1193 error codes
const (
	CodeUserRejected   = 4001
	CodeChainNotAdded  = 4902
	CodeRequestPending = -32002
	CodeLimitExceeded  = -32005
)

func (c RPCErrorClass) String() string {
	switch c {
	case RPCErrorRateLimit:
		return "rate_limit"
	case RPCErrorPruned:
		return "pruned"
	case RPCErrorBlockRange:
		return "block_range"
	case RPCErrorNotFound:
		return "not_found"
	case RPCErrorRejected:
		return "rejected"
	case RPCErrorPending:
		return "pending"
	case RPCErrorReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Operation selects the wording used when mapping contract write errors
type Operation string

const (
	OperationApprove  Operation = "approve"
	OperationSubmit   Operation = "submit"
	OperationUpdate   Operation = "update"
	OperationWithdraw Operation = "withdraw"
)

// ErrorCode extracts a JSON-RPC error code, or 0 when the error carries none
func ErrorCode(err error) int {
	var codeErr rpc.Error
	if errors.As(err, &codeErr) {
		return codeErr.ErrorCode()
	}
	return 0
}

// nestedErrorCode reads data.error.code, where some providers tuck the upstream code
func nestedErrorCode(err error) int64 {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) || dataErr.ErrorData() == nil {
		return 0
	}
	raw, marshalErr := json.Marshal(dataErr.ErrorData())
	if marshalErr != nil {
		return 0
	}
	return gjson.GetBytes(raw, "error.code").Int()
}

// ClassifyRPCError buckets an error by code and message
func ClassifyRPCError(err error) RPCErrorClass {
	if err == nil {
		return RPCErrorUnknown
	}

	code := ErrorCode(err)
	switch code {
	case CodeUserRejected:
		return RPCErrorRejected
	case CodeRequestPending:
		return RPCErrorPending
	case CodeLimitExceeded:
		return RPCErrorRateLimit
	}
	if nestedErrorCode(err) == CodeLimitExceeded {
		return RPCErrorRateLimit
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return RPCErrorRateLimit
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "rate limit"), strings.Contains(message, "rate_limit"),
		strings.Contains(message, "too many requests"):
		return RPCErrorRateLimit
	case strings.Contains(message, "pruned"):
		return RPCErrorPruned
	case strings.Contains(message, "exceed maximum block range"):
		return RPCErrorBlockRange
	case strings.Contains(message, "user rejected"), strings.Contains(message, "user denied"):
		return RPCErrorRejected
	case strings.Contains(message, "execution reverted"):
		return RPCErrorReverted
	case errors.Is(err, ethereum.NotFound), errors.Is(err, bind.ErrNoCode),
		strings.Contains(message, "not found"), strings.Contains(message, "bad_data"):
		return RPCErrorNotFound
	default:
		return RPCErrorUnknown
	}
}

// IsRateLimited reports whether err is a provider rate limit
func IsRateLimited(err error) bool {
	var rateErr kycErrors.ErrRateLimited
	if errors.As(err, &rateErr) {
		return true
	}
	return ClassifyRPCError(err) == RPCErrorRateLimit
}

// RevertReason returns the Error(string) reason of a reverted call, if any
func RevertReason(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if hexData, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(hexData); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}

	const marker = "execution reverted: "
	message := err.Error()
	if idx := strings.Index(message, marker); idx >= 0 {
		return strings.TrimSpace(message[idx+len(marker):])
	}
	return ""
}

func isDomainError(err error) bool {
	var (
		notOwner     kycErrors.ErrNotOwner
		insufficient kycErrors.ErrInsufficientContractBalance
		submitted    kycErrors.ErrAlreadySubmitted
		notSubmitted kycErrors.ErrNotSubmitted
		paused       kycErrors.ErrContractPaused
		misdirected  kycErrors.ErrFundsMisdirected
		verification kycErrors.ErrWithdrawalVerification
		notFound     kycErrors.ErrContractNotFound
		tokenMissing kycErrors.ErrTokenNotFound
		rejected     kycErrors.ErrTransactionRejected
		signer       kycErrors.ErrSignerRequired
		failed       kycErrors.ErrTransactionFailed
		reverted     kycErrors.ErrTransactionReverted
	)
	return errors.As(err, &notOwner) || errors.As(err, &insufficient) ||
		errors.As(err, &submitted) || errors.As(err, &notSubmitted) ||
		errors.As(err, &paused) || errors.As(err, &misdirected) ||
		errors.As(err, &verification) || errors.As(err, &notFound) ||
		errors.As(err, &rejected) || errors.As(err, &signer) ||
		errors.As(err, &failed) || errors.As(err, &reverted) ||
		errors.As(err, &tokenMissing)
}

// MapError turns a contract write failure into the message shown to the user
func MapError(err error, op Operation, network string) error {
	if err == nil || isDomainError(err) {
		return err
	}

	class := ClassifyRPCError(err)

	if class == RPCErrorReverted {
		if reason := RevertReason(err); reason != "" {
			prefix := "Transaction failed"
			if op == OperationWithdraw {
				prefix = "Withdrawal failed"
			}
			return kycErrors.ErrTransactionFailed{Prefix: prefix, Reason: reason}
		}
	}

	switch class {
	case RPCErrorNotFound:
		return kycErrors.ErrContractNotFound{Network: network}
	case RPCErrorRejected:
		return kycErrors.ErrTransactionRejected{}
	case RPCErrorReverted:
		hint := "Please check your balance and try again."
		if op == OperationWithdraw {
			hint = "Only the contract owner can withdraw funds."
		}
		return kycErrors.ErrTransactionReverted{Reason: err.Error(), Hint: hint}
	}

	return err
}
