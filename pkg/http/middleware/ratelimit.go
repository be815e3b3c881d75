package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps one token bucket per key and forgets keys idle for longer
// than its expiry.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
	sweptAt time.Time
}

// NewLimiter allows bursts of capacity and refills refillPerSec tokens per
// second. Capacity is rounded up to a whole request.
func NewLimiter(capacity, refillPerSec float64) *Limiter {
	burst := int(math.Ceil(capacity))
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*limiterEntry),
		limit: rate.Limit(refillPerSec),
		burst: burst,
		idle:  10 * time.Minute,
		now:   time.Now,
	}
}

// Allow reports whether one request for key fits in its bucket.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	l.sweep(now)
	e, ok := l.m[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.lastAccess = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// RetryAfter is the whole number of seconds until one token refills.
func (l *Limiter) RetryAfter() int {
	if l.limit <= 0 {
		return int(l.idle / time.Second)
	}
	return int(math.Ceil(1 / float64(l.limit)))
}

// sweep drops limiters unused for longer than l.idle. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.sweptAt) < l.idle {
		return
	}
	for k, e := range l.m {
		if now.Sub(e.lastAccess) > l.idle {
			delete(l.m, k)
		}
	}
	l.sweptAt = now
}

// RateLimit rejects POST requests over the per-client budget with 429.
// Clients are keyed by echo's RealIP.
func RateLimit(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodPost || l.Allow(c.RealIP()) {
				return next(c)
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(l.RetryAfter()))
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
			})
		}
	}
}
