package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	u "github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
)

// DomainWhitelistMiddleware rejects browser requests whose Origin or Referer is not
// one of allowedHosts (or a subdomain). Requests without either header pass.
func DomainWhitelistMiddleware(allowedHosts []string) gin.HandlerFunc {
	whitelist := normalizeWhitelist(allowedHosts)

	return func(c *gin.Context) {
		if len(whitelist) == 0 {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")

		requestDomain, err := u.ExtractDomainFromRequest(origin, referer)
		if err != nil {
			logger.WithFields(logger.Fields{
				"origin":  origin,
				"referer": referer,
				"error":   err.Error(),
			}).Warnf("Failed to extract domain from request headers")

			u.APIResponse(c, http.StatusForbidden, "error", "Access denied: Invalid origin", nil)
			c.Abort()
			return
		}

		if !u.IsDomainAllowed(requestDomain, whitelist) {
			logger.WithFields(logger.Fields{
				"request_domain": requestDomain,
				"path":           c.Request.URL.Path,
			}).Warnf("Request blocked due to domain whitelist violation")

			u.APIResponse(c, http.StatusForbidden, "error",
				"Access denied: Domain not whitelisted", map[string]interface{}{
					"domain": requestDomain,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}
