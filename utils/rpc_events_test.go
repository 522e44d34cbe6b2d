package utils

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func word(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func TestDecodeFundsWithdrawnEvent(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	amount := new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18))
	timestamp := big.NewInt(1700000000)
	txHash := common.HexToHash("0x01")

	t.Run("indexed owner", func(t *testing.T) {
		log := types.Log{
			Topics:      []common.Hash{FundsWithdrawnEventSignature, common.BytesToHash(owner.Bytes())},
			Data:        append(word(amount), word(timestamp)...),
			BlockNumber: 42,
			TxHash:      txHash,
		}

		event, err := DecodeFundsWithdrawnEvent(log)
		require.NoError(t, err)
		assert.Equal(t, owner.Hex(), event.Owner)
		assert.Equal(t, 0, amount.Cmp(event.Amount))
		assert.Equal(t, 0, timestamp.Cmp(event.Timestamp))
		assert.Equal(t, uint64(42), event.BlockNumber)
		assert.Equal(t, txHash.Hex(), event.TxHash)
	})

	t.Run("owner in data", func(t *testing.T) {
		data := append(common.LeftPadBytes(owner.Bytes(), 32), word(amount)...)
		data = append(data, word(timestamp)...)
		event, err := DecodeFundsWithdrawnEvent(types.Log{
			Topics: []common.Hash{FundsWithdrawnEventSignature},
			Data:   data,
		})
		require.NoError(t, err)
		assert.Equal(t, owner.Hex(), event.Owner)
		assert.Equal(t, 0, amount.Cmp(event.Amount))
	})

	t.Run("rejects malformed logs", func(t *testing.T) {
		_, err := DecodeFundsWithdrawnEvent(types.Log{Topics: []common.Hash{common.HexToHash("0xdead")}})
		assert.Error(t, err)

		_, err = DecodeFundsWithdrawnEvent(types.Log{
			Topics: []common.Hash{FundsWithdrawnEventSignature, common.BytesToHash(owner.Bytes())},
			Data:   word(amount),
		})
		assert.Error(t, err)
	})

	t.Run("FindFundsWithdrawnEvent", func(t *testing.T) {
		contract := common.HexToAddress("0x927f6773D3B777F1d04f22893cbf9Fe69F624EB9")
		logs := []*types.Log{
			{Address: common.HexToAddress("0x08DB56aB63cB3ac8921bcb1e9bE57a0A0fD91F1a"), Topics: []common.Hash{common.HexToHash("0x1")}},
			{
				Address: contract,
				Topics:  []common.Hash{FundsWithdrawnEventSignature, common.BytesToHash(owner.Bytes())},
				Data:    append(word(amount), word(timestamp)...),
			},
		}

		event := FindFundsWithdrawnEvent(logs, contract)
		require.NotNil(t, event)
		assert.Equal(t, owner.Hex(), event.Owner)
		assert.Nil(t, FindFundsWithdrawnEvent(logs[:1], contract))
	})
}
