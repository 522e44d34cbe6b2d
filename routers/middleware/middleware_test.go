package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/services/turnstile"
	tokenUtils "github.com/mirakyc/onboarding/utils/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiterWindow = time.Hour
	t.Cleanup(func() { limiterWindow = time.Second })

	router := gin.New()
	router.Use(RateLimitMiddleware(&config.ServerConfiguration{
		RateLimitUnauthenticated: 2,
		RateLimitAuthenticated:   5,
		RateLimitBlacklistTTL:    time.Minute,
	}))
	router.GET("/v1/network", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, "GET", "/v1/network", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, "GET", "/v1/network", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, "GET", "/v1/network", nil).Code)

	w := serve(router, "GET", "/v1/network", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "temporarily blocked")
}

func TestIPBlacklistExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	blacklist := newIPBlacklist(time.Minute)
	blacklist.now = func() time.Time { return now }

	blacklist.add("10.0.0.1")
	until, blocked := blacklist.blockedUntil("10.0.0.1")
	assert.True(t, blocked)
	assert.Equal(t, now.Add(time.Minute), until)

	now = now.Add(2 * time.Minute)
	_, blocked = blacklist.blockedUntil("10.0.0.1")
	assert.False(t, blocked)
	assert.Empty(t, blacklist.entries)
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "jwt-secret"

	router := gin.New()
	router.GET("/admin/withdrawals", JWTMiddleware(secret, tokenUtils.ScopeAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("subject"))
	})

	valid, err := tokenUtils.GenerateAccessJWT(secret, "owner", tokenUtils.ScopeAdmin, time.Hour)
	require.NoError(t, err)
	otherScope, err := tokenUtils.GenerateAccessJWT(secret, "owner", "viewer", time.Hour)
	require.NoError(t, err)

	w := serve(router, "GET", "/admin/withdrawals", map[string]string{"Authorization": "Bearer " + valid})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(router, "GET", "/admin/withdrawals", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		serve(router, "GET", "/admin/withdrawals", map[string]string{"Authorization": "Token " + valid}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		serve(router, "GET", "/admin/withdrawals", map[string]string{"Authorization": "Bearer nope"}).Code)
	assert.Equal(t, http.StatusForbidden,
		serve(router, "GET", "/admin/withdrawals", map[string]string{"Authorization": "Bearer " + otherScope}).Code)
}

func TestWarmupMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ready := false

	router := gin.New()
	router.GET("/admin/withdrawals", WarmupMiddleware(func() bool { return ready }), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusServiceUnavailable, serve(router, "GET", "/admin/withdrawals", nil).Code)
	ready = true
	assert.Equal(t, http.StatusOK, serve(router, "GET", "/admin/withdrawals", nil).Code)
}

func TestTurnstileMiddlewareDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verifier, err := turnstile.NewVerifier(&config.AuthConfiguration{})
	require.NoError(t, err)

	router := gin.New()
	router.POST("/sessions", TurnstileMiddleware(verifier), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, serve(router, "POST", "/sessions", nil).Code)
}
