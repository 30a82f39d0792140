package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultRateLimit = 60 // mutations per user per minute
	DefaultBurstSize = 10

	sweepInterval = 5 * time.Minute
	idleTTL       = 10 * time.Minute
)

// RateLimiter holds one token bucket per user for mutating requests
type RateLimiter struct {
	perMinute int
	burst     int

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when allowed
}

func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig starts a limiter and its idle-bucket sweeper. Call Stop when done.
func NewRateLimiterWithConfig(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		perMinute: perMinute,
		burst:     burst,
		buckets:   make(map[string]*bucket),
		stop:      make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Allow reports whether userID may perform one more mutation now
func (r *RateLimiter) Allow(userID string) bool {
	return r.Check(userID, time.Now()).Allowed
}

// Check consumes a token for userID at now, or reports how long until one is available
func (r *RateLimiter) Check(userID string, now time.Time) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[userID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(r.perMinute)/60), r.burst)}
		r.buckets[userID] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return Decision{RetryAfter: time.Minute}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{RetryAfter: delay}
	}
	return Decision{
		Allowed:   true,
		Remaining: int(math.Max(0, math.Floor(b.limiter.TokensAt(now)))),
	}
}

// Sweep drops buckets idle since before now minus the idle TTL
func (r *RateLimiter) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for userID, b := range r.buckets {
		if now.Sub(b.lastSeen) > idleTTL {
			delete(r.buckets, userID)
			dropped++
		}
	}
	return dropped
}

func (r *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				log.Debug().Int("dropped", n).Msg("Swept idle rate limit buckets")
			}
		case <-r.stop:
			return
		}
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware limits mutating requests per authenticated user.
// Reads and anonymous requests pass through untouched.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			userID := GetUserID(c)
			if userID == "" {
				return next(c)
			}

			d := rl.Check(userID, time.Now())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				log.Warn().Str("user_id", userID).Int("retry_after", retryAfter).Msg("Rate limit exceeded")
				return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
			}
			return next(c)
		}
	}
}
