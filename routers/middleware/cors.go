package middleware

import (
	"github.com/gin-gonic/gin"
	u "github.com/mirakyc/onboarding/utils"
)

// CORSMiddleware adds CORS headers. Origins outside allowedHosts get "null";
// an empty list or "*" allows every origin.
func CORSMiddleware(allowedHosts []string) gin.HandlerFunc {
	whitelist := normalizeWhitelist(allowedHosts)

	return func(ctx *gin.Context) {
		ctx.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin(ctx.GetHeader("Origin"), whitelist))
		ctx.Writer.Header().Set("Access-Control-Max-Age", "86400")
		ctx.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		ctx.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Turnstile-Token")
		ctx.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		ctx.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		ctx.Writer.Header().Set("Cache-Control", "no-cache")

		if ctx.Request.Method == "OPTIONS" {
			ctx.AbortWithStatus(200)
			return
		}
		ctx.Next()
	}
}

func corsOrigin(requestOrigin string, whitelist []string) string {
	if requestOrigin == "" || len(whitelist) == 0 {
		return "*"
	}

	requestDomain, err := u.ExtractDomainFromOrigin(requestOrigin)
	if err != nil {
		return "null"
	}
	if u.IsDomainAllowed(requestDomain, whitelist) {
		return requestOrigin
	}
	return "null"
}

// normalizeWhitelist drops blanks and treats "*" as no restriction
func normalizeWhitelist(hosts []string) []string {
	var out []string
	for _, host := range hosts {
		switch host {
		case "":
			continue
		case "*":
			return nil
		}
		out = append(out, host)
	}
	return out
}
