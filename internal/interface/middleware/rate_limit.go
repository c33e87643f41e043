package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-appointment-auth/pkg/response"
)

// KeyFunc builds the Redis counter key for a request.
type KeyFunc func(c *gin.Context) string

// AllowFunc reports whether a request skips the limit.
type AllowFunc func(*gin.Context) bool

// Limit is one fixed-window budget: at most Max requests per Window per key.
type Limit struct {
	Max    int
	Window time.Duration
	Key    KeyFunc
	Allow  AllowFunc
}

// PerIP is a Limit keyed by client IP.
func PerIP(max int, window time.Duration) Limit {
	return Limit{Max: max, Window: window, Key: KeyByIP()}
}

// PerUser is a Limit keyed by the authenticated uid.
func PerUser(max int, window time.Duration) Limit {
	return Limit{Max: max, Window: window, Key: KeyByUserID()}
}

// PerSession is a Limit keyed by the session id in the access token.
func PerSession(max int, window time.Duration) Limit {
	return Limit{Max: max, Window: window, Key: KeyBySession()}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(ctxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func routePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + clientIP(c)
	}
}

func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + routePath(c) + ":ip:" + clientIP(c)
	}
}

// KeyByUserID falls back to the client IP for anonymous requests.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + clientIP(c)
		}
		return "rl:user:" + uid
	}
}

// KeyBySession gives every browser session its own budget, so one user signed
// in on two devices does not share a counter. Without a sid it falls back to
// KeyByUserID.
func KeyBySession() KeyFunc {
	byUser := KeyByUserID()
	return func(c *gin.Context) string {
		if sid := c.GetString(CtxSessionIDKey); sid != "" {
			return "rl:sid:" + sid
		}
		return byUser(c)
	}
}

// INCR and set the expiry on the first hit of a window.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// hit counts one request against key and returns the new count and the
// seconds left in the window.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int, int, error) {
	n, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int()
	if err != nil {
		return 0, 0, err
	}
	reset := 0
	if ttl, err := rdb.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		reset = int((ttl + time.Second - 1) / time.Second)
	}
	return n, reset, nil
}

// RateLimit enforces l with a Redis counter and sets the X-RateLimit-* headers.
// It is a no-op without Redis, and it fails open when Redis errors.
func RateLimit(rdb *redis.Client, l Limit) gin.HandlerFunc {
	if rdb == nil || l.Max <= 0 || l.Window <= 0 || l.Key == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, http.MethodOptions) || (l.Allow != nil && l.Allow(c)) {
			c.Next()
			return
		}

		count, reset, err := hit(c.Request.Context(), rdb, l.Key(c), l.Window)
		if err != nil {
			c.Next()
			return
		}

		remaining := l.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))

		if count > l.Max {
			if reset > 0 {
				c.Header("Retry-After", strconv.Itoa(reset))
			}
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
