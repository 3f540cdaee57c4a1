package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/campusconnect/campus-connect/pkg/metrics"
	"github.com/campusconnect/campus-connect/pkg/response"
)

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(ctxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func routeOf(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds the bucket key for a request.
type KeyFunc func(c *gin.Context) string

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + ipFromCtx(c) }
}

// KeyByIPAndPath gives each route its own bucket per client, so one noisy
// endpoint does not starve the others.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string { return "route:" + routeOf(c) + ":ip:" + ipFromCtx(c) }
}

// KeyByUserID buckets authenticated callers by user and anonymous ones by IP.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(CtxUserIDKey); uid != "" {
			return "user:" + uid
		}
		return "anon:ip:" + ipFromCtx(c)
	}
}

// AllowFunc returns true to exempt a request.
type AllowFunc func(*gin.Context) bool

// Rule is one fixed-window limit. Scope namespaces the Redis keys and labels
// the rejection counter.
type Rule struct {
	Scope  string
	Max    int
	Window time.Duration
	Key    KeyFunc
	Allow  AllowFunc
}

// INCR, PEXPIRE on the first hit of a window, and the remaining TTL in one trip.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimit enforces rule across instances through Redis. With a nil client
// it is a pass-through; Redis errors fail open.
func RateLimit(rdb *redis.Client, rule Rule) gin.HandlerFunc {
	if rdb == nil || rule.Max <= 0 || rule.Window <= 0 || rule.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if rule.Scope == "" {
		rule.Scope = "default"
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (rule.Allow != nil && rule.Allow(c)) {
			c.Next()
			return
		}

		key := "rl:" + rule.Scope + ":" + rule.Key(c)
		res, err := windowScript.Run(c.Request.Context(), rdb, []string{key}, rule.Window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			c.Next()
			return
		}
		count, ttlMs := int(res[0]), res[1]

		resetSec := 0
		if ttlMs > 0 {
			resetSec = int((ttlMs + 999) / 1000)
		}
		remaining := rule.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > rule.Max {
			metrics.RateLimited.WithLabelValues(rule.Scope).Inc()
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
