package errors

import "fmt"

// Wallet, contract and verification API error types
type (
	ErrWalletNotInstalled          struct{}
	ErrConnectionRejected          struct{}
	ErrNoAccounts                  struct{}
	ErrNoAccountReturned           struct{}
	ErrTransactionRejected         struct{}
	ErrAlreadySubmitted            struct{}
	ErrNotSubmitted                struct{}
	ErrContractPaused              struct{}
	ErrSignerRequired              struct{}
	ErrContractNotFound            struct{ Network string }
	ErrTokenNotFound               struct{ Symbol, Address, Network, Required string }
	ErrTransactionReverted         struct{ Reason, Hint string }
	ErrTransactionFailed           struct{ Prefix, Reason string }
	ErrNotOwner                    struct{ Owner, Caller string }
	ErrInsufficientContractBalance struct{ Available, Requested, Symbol string }
	ErrFundsMisdirected            struct{ Recipient, Expected string }
	ErrWithdrawalVerification      struct{ Expected, Actual, Symbol, ExplorerURL string }
	ErrRateLimited                 struct{ Message string }
	ErrProviderUnreachable         struct{ Err error }
	ErrProviderResponse            struct{ Err error }
	ErrInvalidPayload              struct{ Err error }
	ErrNotFound                    struct{}
)

func (e ErrWalletNotInstalled) Error() string {
	return "MetaMask is not installed. Please install MetaMask to continue."
}

func (e ErrConnectionRejected) Error() string {
	return "Connection was rejected. Please approve the connection request in MetaMask."
}

func (e ErrNoAccounts) Error() string {
	return "No accounts found. Please unlock MetaMask and try again."
}

func (e ErrNoAccountReturned) Error() string {
	return "No account returned from MetaMask. Please try again."
}

func (e ErrTransactionRejected) Error() string {
	return "Transaction was rejected. Please try again."
}

func (e ErrAlreadySubmitted) Error() string {
	return "You have already submitted KYC. Use updateDocuments to update your information."
}

func (e ErrNotSubmitted) Error() string {
	return "No KYC submission found for this wallet. Please submit KYC first."
}

func (e ErrContractPaused) Error() string {
	return "KYC contract is currently paused. Please try again later."
}

func (e ErrSignerRequired) Error() string {
	return "a wallet signer is required for contract writes"
}

func (e ErrContractNotFound) Error() string {
	return fmt.Sprintf("Contract not found. Please ensure you are connected to the correct network (%s).", e.Network)
}

func (e ErrTokenNotFound) Error() string {
	network := e.Network
	if network == "" {
		network = "Unknown"
	}
	return fmt.Sprintf(
		"%s contract not found. Current network: %s. Please switch to %s in MetaMask. Contract address: %s",
		e.Symbol, network, e.Required, e.Address,
	)
}

func (e ErrTransactionReverted) Error() string {
	return fmt.Sprintf("Transaction reverted: %s. %s", e.Reason, e.Hint)
}

// Error implements the error interface for ErrTransactionFailed
func (e ErrTransactionFailed) Error() string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = "Transaction failed"
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

func (e ErrNotOwner) Error() string {
	return fmt.Sprintf("Only the contract owner can withdraw funds. Current owner: %s. Your address: %s", e.Owner, e.Caller)
}

func (e ErrInsufficientContractBalance) Error() string {
	return fmt.Sprintf("Insufficient contract balance. Available: %s %s, Requested: %s %s", e.Available, e.Symbol, e.Requested, e.Symbol)
}

func (e ErrFundsMisdirected) Error() string {
	return fmt.Sprintf("Withdrawal failed: Funds were sent to %s instead of your wallet address %s. Please check the contract implementation.", e.Recipient, e.Expected)
}

func (e ErrWithdrawalVerification) Error() string {
	return fmt.Sprintf(
		"Withdrawal verification failed: Expected %s %s increase in owner wallet, but balance only increased by %s %s. Please check your wallet and the transaction on the block explorer: %s",
		e.Expected, e.Symbol, e.Actual, e.Symbol, e.ExplorerURL,
	)
}

func (e ErrRateLimited) Error() string {
	if e.Message == "" {
		return "Rate limited on all RPC endpoints. Please try again later."
	}
	return e.Message
}

func (e ErrProviderUnreachable) Error() string {
	return fmt.Sprintf("failed to reach verification backend: %v", e.Err)
}

func (e ErrProviderResponse) Error() string {
	return fmt.Sprintf("verification backend error: %v", e.Err)
}

func (e ErrInvalidPayload) Error() string {
	return fmt.Sprintf("invalid document update payload: %v", e.Err)
}

// Error implements the error interface for ErrNotFound
func (e ErrNotFound) Error() string {
	return "no verification request found for this email"
}
