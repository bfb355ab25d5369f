package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hybridstt/auth"
	"github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/resilience"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitConfig configures per-caller rate limiting.
type RateLimitConfig struct {
	RequestsPerMinute int
	// KeyFunc extracts the caller key. Defaults to CallerKey.
	KeyFunc func(*gin.Context) string
}

// RateLimit applies a token bucket per caller. The bucket holds one minute's
// allowance and refills continuously.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = CallerKey
	}
	limiters := &keyedLimiters{
		cfg: resilience.RateLimiterConfig{
			Name:  "api",
			Rate:  float64(cfg.RequestsPerMinute) / 60,
			Burst: cfg.RequestsPerMinute,
		},
		entries: make(map[string]*limiterEntry),
	}

	return func(c *gin.Context) {
		if !limiters.allow(cfg.KeyFunc(c), time.Now()) {
			e := errors.RateLimited("api")
			abort(c, e.HTTPStatus, e.ToResponse())
			return
		}
		c.Next()
	}
}

// CallerKey uses the authenticated subject when present, else the client IP.
func CallerKey(c *gin.Context) string {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*auth.Principal); ok && p.Subject != "" {
			return "sub:" + p.Subject
		}
	}
	return "ip:" + c.ClientIP()
}

type limiterEntry struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

type keyedLimiters struct {
	cfg       resilience.RateLimiterConfig
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func (k *keyedLimiters) allow(key string, now time.Time) bool {
	k.mu.Lock()
	if now.Sub(k.lastSweep) > time.Minute {
		for key, e := range k.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(k.entries, key)
			}
		}
		k.lastSweep = now
	}
	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{limiter: resilience.NewRateLimiter(k.cfg)}
		k.entries[key] = e
	}
	e.lastSeen = now
	k.mu.Unlock()
	return e.limiter.Allow()
}
