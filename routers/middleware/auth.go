package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	u "github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
	tokenUtils "github.com/mirakyc/onboarding/utils/token"
)

// JWTMiddleware requires a bearer token signed with secret and carrying scope
func JWTMiddleware(secret, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			u.APIResponse(c, http.StatusUnauthorized, "error", "Invalid or missing Authorization header", nil)
			c.Abort()
			return
		}

		claims, err := tokenUtils.ValidateJWT(secret, parts[1])
		if err != nil {
			logger.WithFields(logger.Fields{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			}).Warnf("Token validation failed")
			u.APIResponse(c, http.StatusUnauthorized, "error", "Invalid or expired token", nil)
			c.Abort()
			return
		}

		if claims.Scope != scope {
			u.APIResponse(c, http.StatusForbidden, "error", "Token does not grant access to this resource", nil)
			c.Abort()
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}
