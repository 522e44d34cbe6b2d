package middleware

import (
	"net/http"
	"sync"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/mirakyc/onboarding/config"
	u "github.com/mirakyc/onboarding/utils"
	"github.com/mirakyc/onboarding/utils/logger"
)

// limiterWindow is the period the per-second limits apply to
var limiterWindow = time.Second

// ipBlacklist holds IPs that exceeded a limit until their entry expires
type ipBlacklist struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newIPBlacklist(ttl time.Duration) *ipBlacklist {
	return &ipBlacklist{ttl: ttl, entries: make(map[string]time.Time), now: time.Now}
}

func (b *ipBlacklist) add(ip string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[ip] = b.now().Add(b.ttl)
}

// blockedUntil returns the expiry of a live entry, dropping stale ones
func (b *ipBlacklist) blockedUntil(ip string) (time.Time, bool) {
	b.mu.RLock()
	until, exists := b.entries[ip]
	b.mu.RUnlock()
	if !exists {
		return time.Time{}, false
	}
	if b.now().After(until) {
		b.mu.Lock()
		delete(b.entries, ip)
		b.mu.Unlock()
		return time.Time{}, false
	}
	return until, true
}

func newLimiter(limit int, blacklist *ipBlacklist, message string, key func(c *gin.Context) string) gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  limiterWindow,
		Limit: uint(limit),
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			blacklist.add(c.ClientIP())
			logger.WithFields(logger.Fields{
				"ip":   c.ClientIP(),
				"path": c.Request.URL.Path,
			}).Warnf("Rate limit exceeded, blocking IP")

			u.APIResponse(c, http.StatusTooManyRequests, "error", message, map[string]interface{}{
				"retry_after": time.Until(info.ResetTime).Seconds(),
				"limit":       info.Limit,
			})
			c.Abort()
		},
		KeyFunc: key,
	})
}

// RateLimitMiddleware limits requests per second per IP, or per bearer token for
// operator calls. An IP that exceeds a limit is blocked for the configured TTL.
func RateLimitMiddleware(conf *config.ServerConfiguration) gin.HandlerFunc {
	blacklist := newIPBlacklist(conf.RateLimitBlacklistTTL)

	unauthenticatedLimiter := newLimiter(conf.RateLimitUnauthenticated, blacklist,
		"Too many requests from this IP address. IP has been temporarily blocked.",
		func(c *gin.Context) string { return "ip:" + c.ClientIP() })
	authenticatedLimiter := newLimiter(conf.RateLimitAuthenticated, blacklist,
		"Too many requests for this token. IP has been temporarily blocked.",
		func(c *gin.Context) string { return "auth:" + c.GetHeader("Authorization") })

	return func(c *gin.Context) {
		if until, blocked := blacklist.blockedUntil(c.ClientIP()); blocked {
			u.APIResponse(c, http.StatusForbidden, "error",
				"IP address is temporarily blocked due to rate limit violations",
				map[string]interface{}{
					"blocked_until": until.UTC().Format(time.RFC3339),
				},
			)
			c.Abort()
			return
		}

		if c.GetHeader("Authorization") != "" {
			authenticatedLimiter(c)
		} else {
			unauthenticatedLimiter(c)
		}
		if c.IsAborted() {
			return
		}

		c.Next()
	}
}
