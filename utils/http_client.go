package utils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mirakyc/onboarding/types"
)

var (
	httpClient *http.Client
	once       sync.Once
)

// GetHTTPClient returns the pooled HTTP client shared by every RPC connection
func GetHTTPClient() *http.Client {
	once.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
		httpClient = &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		}
	})
	return httpClient
}

// DialRPC connects to a chain endpoint over the shared HTTP transport.
// It matches types.RPCDialer so it can be handed to the indexer for alternate endpoints.
func DialRPC(ctx context.Context, endpoint string) (types.RPCClient, error) {
	return types.NewEthClient(ctx, endpoint, rpc.WithHTTPClient(GetHTTPClient()))
}

// CloseHTTPClient closes idle connections in the HTTP client.
func CloseHTTPClient() {
	if httpClient != nil && httpClient.Transport != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
}
