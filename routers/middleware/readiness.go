package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	u "github.com/mirakyc/onboarding/utils"
)

// WarmupMiddleware answers 503 until ready reports true. It keeps operator
// requests from starting a full withdrawal scan while the startup scan runs.
func WarmupMiddleware(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready() {
			c.Next()
			return
		}

		u.APIResponse(c, http.StatusServiceUnavailable, "error", "Service warming up, please retry shortly", map[string]interface{}{
			"ready": false,
		})
		c.Abort()
	}
}
