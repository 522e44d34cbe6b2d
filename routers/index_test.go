package routers

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/controllers"
	"github.com/mirakyc/onboarding/services/session"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils/test"
	"github.com/mirakyc/onboarding/utils/token"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, ready func() bool) (*gin.Engine, *test.MockWithdrawalScanner) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	scanner := new(test.MockWithdrawalScanner)
	deps := controllers.Dependencies{
		Chain:     new(test.MockChainService),
		Scanner:   scanner,
		Backend:   new(test.MockVerificationBackend),
		Wallet:    new(test.MockWalletConnector),
		Emails:    new(test.MockEmailService),
		Sessions:  session.NewStore(client, time.Hour, ""),
		Cache:     client,
		ChainConf: &config.ChainConfiguration{TokenSymbol: "USDT", ChargeAmount: decimal.NewFromInt(1)},
		RedisConf: config.RedisConfiguration{WithdrawalCacheTTL: time.Minute},
	}

	router := RegisterRoutes(deps, Options{
		Server: &config.ServerConfiguration{
			Environment:              "test",
			AllowedHosts:             []string{"mirakyc.com"},
			RateLimitUnauthenticated: 1000,
			RateLimitAuthenticated:   1000,
			RateLimitBlacklistTTL:    time.Minute,
		},
		Auth: &config.AuthConfiguration{
			Secret:            "router-secret",
			JwtAccessLifespan: time.Minute,
			AdminUsername:     "owner",
		},
		WithdrawalsReady: ready,
	})
	return router, scanner
}

func adminHeader(t *testing.T) map[string]string {
	accessToken, err := token.GenerateAccessJWT("router-secret", "owner", token.ScopeAdmin, time.Minute)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + accessToken}
}

func TestRegisterRoutes(t *testing.T) {
	t.Run("public routes", func(t *testing.T) {
		router, _ := setupRouter(t, nil)

		res, err := test.PerformRequest(t, "GET", "/v1/health", nil, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Code)

		res, err = test.PerformRequest(t, "GET", "/metrics", nil, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, res.Body.String(), "# HELP")
	})

	t.Run("session creation is limited to whitelisted origins", func(t *testing.T) {
		router, _ := setupRouter(t, nil)

		res, err := test.PerformRequest(t, "POST", "/v1/sessions", nil, map[string]string{"Origin": "https://evil.example"}, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, res.Code)

		res, err = test.PerformRequest(t, "POST", "/v1/sessions", nil, map[string]string{"Origin": "https://app.mirakyc.com"}, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.Code)
	})

	t.Run("admin routes require a token", func(t *testing.T) {
		router, _ := setupRouter(t, nil)

		res, err := test.PerformRequest(t, "POST", "/v1/admin/withdraw", map[string]string{"amount": "1"}, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Code)

		res, err = test.PerformRequest(t, "GET", "/v1/admin/withdrawals", nil, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("withdrawals wait for the startup scan", func(t *testing.T) {
		ready := false
		router, scanner := setupRouter(t, func() bool { return ready })
		scanner.On("ScanWithdrawals", mock.Anything).Return(&types.WithdrawalScan{Total: decimal.Zero}, nil)

		res, err := test.PerformRequest(t, "GET", "/v1/admin/withdrawals", nil, adminHeader(t), router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, res.Code)
		scanner.AssertNotCalled(t, "ScanWithdrawals", mock.Anything)

		ready = true
		res, err = test.PerformRequest(t, "GET", "/v1/admin/withdrawals", nil, adminHeader(t), router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Code)
	})
}
