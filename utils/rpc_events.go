package utils

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	kycTypes "github.com/mirakyc/onboarding/types"
)

// FundsWithdrawnEventSignature is topic0 of the KYC contract withdrawal event
var FundsWithdrawnEventSignature = crypto.Keccak256Hash([]byte("FundsWithdrawn(address,uint256,uint256)"))

// DecodeFundsWithdrawnEvent decodes a FundsWithdrawn event from RPC log
func DecodeFundsWithdrawnEvent(log types.Log) (*kycTypes.FundsWithdrawnEvent, error) {
	// FundsWithdrawn(address indexed owner, uint256 amount, uint256 timestamp)
	// Topics: [eventSignature, owner]
	// Data: [amount, timestamp]
	// Deployments without the indexed owner put it first in data instead.

	if len(log.Topics) == 0 || log.Topics[0] != FundsWithdrawnEventSignature {
		return nil, fmt.Errorf("invalid FundsWithdrawn event: unexpected topic")
	}

	var owner common.Address
	data := log.Data

	switch len(log.Topics) {
	case 2:
		owner = common.BytesToAddress(log.Topics[1].Bytes())
	case 1:
		if len(data) < 96 {
			return nil, fmt.Errorf("invalid FundsWithdrawn event data: too short")
		}
		owner = common.BytesToAddress(data[:32])
		data = data[32:]
	default:
		return nil, fmt.Errorf("invalid FundsWithdrawn event: expected 1 or 2 topics, got %d", len(log.Topics))
	}

	if len(data) < 64 {
		return nil, fmt.Errorf("invalid FundsWithdrawn event data: too short")
	}

	return &kycTypes.FundsWithdrawnEvent{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		Owner:       owner.Hex(),
		Amount:      new(big.Int).SetBytes(data[:32]),
		Timestamp:   new(big.Int).SetBytes(data[32:64]),
	}, nil
}

// FindFundsWithdrawnEvent returns the first FundsWithdrawn event emitted by contract in a receipt's logs
func FindFundsWithdrawnEvent(logs []*types.Log, contract common.Address) *kycTypes.FundsWithdrawnEvent {
	for _, l := range logs {
		if l == nil || l.Address != contract {
			continue
		}
		event, err := DecodeFundsWithdrawnEvent(*l)
		if err == nil {
			return event
		}
	}
	return nil
}
