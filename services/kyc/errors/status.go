package errors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error from the wallet, contract or backend layers to a response code.
// Wrapped errors are unwrapped until a known type is found.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		if status, ok := statusFor(e); ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

func statusFor(err error) (int, bool) {
	switch err.(type) {
	case ErrInvalidPayload, ErrConnectionRejected, ErrNoAccounts, ErrNoAccountReturned,
		ErrTransactionRejected, ErrInsufficientContractBalance, ErrTokenNotFound, ErrTransactionReverted:
		return http.StatusBadRequest, true
	case ErrNotOwner:
		return http.StatusForbidden, true
	case ErrNotFound:
		return http.StatusNotFound, true
	case ErrAlreadySubmitted, ErrNotSubmitted:
		return http.StatusConflict, true
	case ErrRateLimited:
		return http.StatusTooManyRequests, true
	case ErrProviderResponse, ErrContractNotFound, ErrFundsMisdirected, ErrWithdrawalVerification:
		return http.StatusBadGateway, true
	case ErrWalletNotInstalled, ErrSignerRequired, ErrContractPaused, ErrProviderUnreachable:
		return http.StatusServiceUnavailable, true
	case ErrTransactionFailed:
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}
