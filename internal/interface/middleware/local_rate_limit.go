package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/campusconnect/campus-connect/pkg/metrics"
	"github.com/campusconnect/campus-connect/pkg/response"
)

// limiterStore keeps one token bucket per key.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	lastGC   time.Time
}

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newLimiterStore(r rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*entry),
		rate:     r,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		lastGC:   time.Now(),
	}
}

func (s *limiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastGC) > s.idleTTL {
		for k, e := range s.limiters {
			if now.Sub(e.seen) > s.idleTTL {
				delete(s.limiters, k)
			}
		}
		s.lastGC = now
	}
	e, ok := s.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.limiters[key] = e
	}
	e.seen = now
	return e.limiter
}

// LocalRateLimit is an in-process token bucket per client IP. It guards the
// live connection upgrade, which Redis-backed limits would not cover when
// Redis is disabled.
func LocalRateLimit(scope string, rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	store := newLimiterStore(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !store.get(ipFromCtx(c), time.Now()).Allow() {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
