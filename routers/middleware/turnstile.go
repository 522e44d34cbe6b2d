package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/services/turnstile"
	u "github.com/mirakyc/onboarding/utils"
)

// TurnstileMiddleware verifies the Cloudflare Turnstile token sent by the onboarding form
func TurnstileMiddleware(verifier *turnstile.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Turnstile-Token")
		if token == "" {
			token = c.Query("turnstile_token")
		}

		if err := verifier.VerifyToken(c.Request.Context(), token, c.ClientIP()); err != nil {
			u.APIResponse(c, http.StatusBadRequest, "error",
				"Security check verification failed", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
