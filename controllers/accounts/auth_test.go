package accounts

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
	"github.com/mirakyc/onboarding/utils/crypto"
	"github.com/mirakyc/onboarding/utils/test"
	"github.com/mirakyc/onboarding/utils/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter(t *testing.T, conf *config.AuthConfiguration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewAuthController(conf)

	router := gin.New()
	router.POST("/login", ctrl.Login)
	return router
}

func TestLogin(t *testing.T) {
	hash, err := crypto.HashPassword("correct horse")
	require.NoError(t, err)

	conf := &config.AuthConfiguration{
		Secret:            "test-secret",
		JwtAccessLifespan: 30 * time.Minute,
		AdminUsername:     "owner",
		AdminPasswordHash: hash,
	}
	router := setupAuthRouter(t, conf)

	t.Run("with valid credentials", func(t *testing.T) {
		payload := types.AdminLoginPayload{Username: "owner", Password: "correct horse"}

		res, err := test.PerformRequest(t, "POST", "/login", payload, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Code)

		var response struct {
			Message string           `json:"message"`
			Data    types.AdminToken `json:"data"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &response))
		assert.Equal(t, "Successfully logged in", response.Message)
		assert.Equal(t, int64(1800), response.Data.ExpiresIn)

		claims, err := token.ValidateJWT(conf.Secret, response.Data.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "owner", claims.Subject)
		assert.Equal(t, token.ScopeAdmin, claims.Scope)
	})

	t.Run("with a wrong password", func(t *testing.T) {
		payload := types.AdminLoginPayload{Username: "owner", Password: "wrong"}

		res, err := test.PerformRequest(t, "POST", "/login", payload, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Code)

		var response types.Response
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &response))
		assert.Equal(t, "Invalid credentials", response.Message)
		assert.Nil(t, response.Data)
	})

	t.Run("with a wrong username", func(t *testing.T) {
		payload := types.AdminLoginPayload{Username: "someone", Password: "correct horse"}

		res, err := test.PerformRequest(t, "POST", "/login", payload, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("with missing fields", func(t *testing.T) {
		res, err := test.PerformRequest(t, "POST", "/login", map[string]string{"username": "owner"}, nil, router)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})

	t.Run("when no password hash is configured", func(t *testing.T) {
		unconfigured := setupAuthRouter(t, &config.AuthConfiguration{Secret: "x", AdminUsername: "owner"})
		payload := types.AdminLoginPayload{Username: "owner", Password: "anything"}

		res, err := test.PerformRequest(t, "POST", "/login", payload, nil, unconfigured)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	})
}
