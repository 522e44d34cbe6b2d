package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Provider is an EIP-1193 style request interface to a wallet
type Provider interface {
	Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error)
}

// ProviderError is a wallet error carrying its EIP-1193 / JSON-RPC code
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// ErrorCode implements rpc.Error
func (e *ProviderError) ErrorCode() int {
	return e.Code
}

// RPCProvider forwards wallet requests to a JSON-RPC endpoint
type RPCProvider struct {
	client *rpc.Client
}

// NewRPCProvider dials a wallet JSON-RPC endpoint
func NewRPCProvider(ctx context.Context, endpoint string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("NewRPCProvider.dial: %w", err)
	}
	return &RPCProvider{client: client}, nil
}

// Request performs a single JSON-RPC call
func (p *RPCProvider) Request(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	if err := p.client.CallContext(ctx, &result, method, params...); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, &ProviderError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		}
		return nil, err
	}
	return result, nil
}

// Close closes the underlying connection
func (p *RPCProvider) Close() {
	p.client.Close()
}
