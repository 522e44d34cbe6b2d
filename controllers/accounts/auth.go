package accounts

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	"github.com/mirakyc/onboarding/types"
	u "github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/crypto"
	"github.com/mirakyc/onboarding/utils/logger"
	"github.com/mirakyc/onboarding/utils/token"
)

// AuthController is a controller type for operator authentication
type AuthController struct {
	conf *config.AuthConfiguration
}

// NewAuthController creates a new instance of AuthController
func NewAuthController(conf *config.AuthConfiguration) *AuthController {
	return &AuthController{conf: conf}
}

// Login controller validates the operator credentials and issues an admin access token
func (ctrl *AuthController) Login(ctx *gin.Context) {
	var payload types.AdminLoginPayload

	if err := ctx.ShouldBindJSON(&payload); err != nil {
		u.APIResponse(ctx, http.StatusBadRequest, "error", "Failed to validate payload", err.Error())
		return
	}

	if ctrl.conf.AdminPasswordHash == "" {
		u.APIResponse(ctx, http.StatusServiceUnavailable, "error", "Admin login is not configured", nil)
		return
	}

	usernameMatches := subtle.ConstantTimeCompare([]byte(payload.Username), []byte(ctrl.conf.AdminUsername)) == 1
	passwordMatches := crypto.CheckPasswordHash(payload.Password, ctrl.conf.AdminPasswordHash)
	if !usernameMatches || !passwordMatches {
		logger.WithFields(logger.Fields{
			"Username": payload.Username,
			"IP":       ctx.ClientIP(),
		}).Warnf("Failed admin login")
		u.APIResponse(ctx, http.StatusUnauthorized, "error", "Invalid credentials", nil)
		return
	}

	accessToken, err := token.GenerateAccessJWT(ctrl.conf.Secret, payload.Username, token.ScopeAdmin, ctrl.conf.JwtAccessLifespan)
	if err != nil {
		logger.Errorf("Login.GenerateAccessJWT: %v", err)
		u.APIResponse(ctx, http.StatusInternalServerError, "error", "Failed to generate access token", nil)
		return
	}

	u.APIResponse(ctx, http.StatusOK, "success", "Successfully logged in", types.AdminToken{
		AccessToken: accessToken,
		ExpiresIn:   int64(ctrl.conf.JwtAccessLifespan.Seconds()),
	})
}
