package test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	kycTypes "github.com/mirakyc/onboarding/types"
)

// CallHandler answers an eth_call for one contract method. It receives the
// decoded arguments and returns the values to ABI-encode as output.
type CallHandler func(args []interface{}) ([]interface{}, error)

// SendHandler is invoked when a transaction to a registered contract is broadcast.
// Returning a nil receipt leaves the transaction pending.
type SendHandler func(tx *types.Transaction, args []interface{}) (*types.Receipt, error)

var _ kycTypes.RPCClient = (*MockRPCClient)(nil)

// MockRPCClient is a programmable in-memory chain backend for testing
type MockRPCClient struct {
	mu sync.Mutex

	chainID     *big.Int
	nonce       uint64
	blockNumber uint64
	balances    map[common.Address]*big.Int

	abis     map[common.Address]*abi.ABI
	calls    map[string]CallHandler
	sends    map[string]SendHandler
	receipts map[common.Hash]*types.Receipt
	txs      map[common.Hash]*types.Transaction
	headers  map[uint64]*types.Header

	// FilterLogsFn scripts eth_getLogs; nil returns no logs
	FilterLogsFn func(query ethereum.FilterQuery) ([]types.Log, error)
	// BlockNumberErr makes eth_blockNumber fail
	BlockNumberErr error

	Sent       []*types.Transaction
	Calls      []string
	LogQueries []ethereum.FilterQuery
	Closed     bool
}

// NewMockRPCClient creates a new mock RPC client
func NewMockRPCClient(chainID int64) *MockRPCClient {
	return &MockRPCClient{
		chainID:     big.NewInt(chainID),
		blockNumber: 1000,
		balances:    make(map[common.Address]*big.Int),
		abis:        make(map[common.Address]*abi.ABI),
		calls:       make(map[string]CallHandler),
		sends:       make(map[string]SendHandler),
		receipts:    make(map[common.Hash]*types.Receipt),
		txs:         make(map[common.Hash]*types.Transaction),
		headers:     make(map[uint64]*types.Header),
	}
}

// RegisterContract deploys a contract ABI at address so calls and sends to it can be decoded
func (m *MockRPCClient) RegisterContract(address common.Address, meta *bind.MetaData) {
	parsed, err := meta.GetAbi()
	if err != nil {
		panic(fmt.Sprintf("mock: invalid ABI: %v", err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abis[address] = parsed
}

// OnCall scripts the result of a view method
func (m *MockRPCClient) OnCall(address common.Address, method string, handler CallHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[handlerKey(address, method)] = handler
}

// OnSend scripts the receipt of a state-changing method
func (m *MockRPCClient) OnSend(address common.Address, method string, handler SendHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends[handlerKey(address, method)] = handler
}

// SetBlockNumber sets the chain head
func (m *MockRPCClient) SetBlockNumber(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockNumber = n
}

// SetHeader overrides the header returned for a block
func (m *MockRPCClient) SetHeader(n uint64, header *types.Header) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[n] = header
}

// SentMethods returns the contract method names of every broadcast transaction
func (m *MockRPCClient) SentMethods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	methods := make([]string, 0, len(m.Sent))
	for _, tx := range m.Sent {
		if method, _, err := m.decode(tx.To(), tx.Data()); err == nil {
			methods = append(methods, method.Name)
		}
	}
	return methods
}

func handlerKey(address common.Address, method string) string {
	return address.Hex() + "." + method
}

// decode must be called with m.mu held
func (m *MockRPCClient) decode(to *common.Address, data []byte) (*abi.Method, []interface{}, error) {
	if to == nil {
		return nil, nil, errors.New("mock: contract creation not supported")
	}
	parsed, ok := m.abis[*to]
	if !ok || len(data) < 4 {
		return nil, nil, fmt.Errorf("mock: no contract at %s", to.Hex())
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}

// CallContract executes a scripted view call
func (m *MockRPCClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	m.mu.Lock()
	if _, ok := m.abis[*call.To]; !ok {
		m.mu.Unlock()
		return nil, nil
	}
	method, args, err := m.decode(call.To, call.Data)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.Calls = append(m.Calls, method.Name)
	handler := m.calls[handlerKey(*call.To, method.Name)]
	m.mu.Unlock()

	if handler == nil {
		return nil, fmt.Errorf("execution reverted: mock has no handler for %s", method.Name)
	}

	outputs, err := handler(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}

// CodeAt returns placeholder bytecode for registered contracts
func (m *MockRPCClient) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.abis[contract]; ok {
		return []byte{0x60, 0x80, 0x60, 0x40}, nil
	}
	return []byte{}, nil
}

// PendingCodeAt mirrors CodeAt
func (m *MockRPCClient) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return m.CodeAt(ctx, account, nil)
}

// HeaderByNumber returns a legacy (pre-London) header so bindings price with SuggestGasPrice
func (m *MockRPCClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.blockNumber
	if number != nil {
		n = number.Uint64()
	}
	if header, ok := m.headers[n]; ok {
		return header, nil
	}
	return &types.Header{
		Number: new(big.Int).SetUint64(n),
		Time:   1700000000 + n*3,
	}, nil
}

// PendingNonceAt returns a consistent nonce for testing
func (m *MockRPCClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonce, nil
}

// SuggestGasPrice returns a fixed gas price for testing
func (m *MockRPCClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil // 1 Gwei
}

// SuggestGasTipCap returns a fixed gas tip cap for testing
func (m *MockRPCClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil // 1 Gwei
}

// EstimateGas returns a fixed gas limit for testing
func (m *MockRPCClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 100000, nil
}

// SendTransaction records the transaction and produces its receipt
func (m *MockRPCClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	m.mu.Lock()
	method, args, err := m.decode(tx.To(), tx.Data())
	if err != nil {
		m.mu.Unlock()
		return err
	}
	handler := m.sends[handlerKey(*tx.To(), method.Name)]
	m.Sent = append(m.Sent, tx)
	m.txs[tx.Hash()] = tx
	m.nonce++
	blockNumber := m.blockNumber
	m.mu.Unlock()

	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
	if handler != nil {
		receipt, err = handler(tx, args)
		if err != nil {
			return err
		}
	}
	if receipt == nil {
		return nil
	}

	receipt.TxHash = tx.Hash()
	if receipt.BlockNumber == nil {
		receipt.BlockNumber = new(big.Int).SetUint64(blockNumber)
	}
	for _, l := range receipt.Logs {
		l.TxHash = tx.Hash()
		l.BlockNumber = receipt.BlockNumber.Uint64()
	}

	m.mu.Lock()
	m.receipts[tx.Hash()] = receipt
	m.mu.Unlock()
	return nil
}

// TransactionReceipt returns the receipt of a sent transaction
func (m *MockRPCClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if receipt, ok := m.receipts[txHash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

// TransactionByHash returns a sent transaction
func (m *MockRPCClient) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.txs[hash]; ok {
		_, mined := m.receipts[hash]
		return tx, !mined, nil
	}
	return nil, false, ethereum.NotFound
}

// FilterLogs records the query and returns scripted logs
func (m *MockRPCClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	m.mu.Lock()
	m.LogQueries = append(m.LogQueries, query)
	fn := m.FilterLogsFn
	m.mu.Unlock()

	if fn == nil {
		return []types.Log{}, nil
	}
	return fn(query)
}

// SubscribeFilterLogs is not supported by the mock
func (m *MockRPCClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("mock: subscriptions not supported")
}

// BlockNumber returns the chain head
func (m *MockRPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BlockNumberErr != nil {
		return 0, m.BlockNumberErr
	}
	return m.blockNumber, nil
}

// BalanceAt returns the native balance set with SetBalance
func (m *MockRPCClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if balance, ok := m.balances[account]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

// SetBalance sets the native balance of an account
func (m *MockRPCClient) SetBalance(account common.Address, balance *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = balance
}

// ChainID returns the configured chain id
func (m *MockRPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(m.chainID), nil
}

// Close marks the client closed
func (m *MockRPCClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
}
