package kyc

import (
	"github.com/mirakyc/onboarding/types"
)

// MergeStatus combines the on-chain status with the backend verification result.
// An approved contract record wins; a backend rejection overrides pending.
func MergeStatus(contract types.ContractKYCStatus, backend *types.BackendKYCStatus) types.KYCStatus {
	if contract.Status == types.KYCStatusApproved {
		return types.KYCStatusApproved
	}
	if backend != nil && backend.Status == types.KYCStatusRejected {
		return types.KYCStatusRejected
	}
	if contract.Status == "" {
		return types.KYCStatusNotApplied
	}
	return contract.Status
}
