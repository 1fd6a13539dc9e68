package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	aierrors "github.com/hrygo/gigvoice/server/internal/errors"
)

// UserIDHeader carries the caller identity used as the rate limit key.
const UserIDHeader = "X-User-ID"

const (
	// DefaultLimiterIdleTTL is how long a key may go unseen before its limiter is dropped.
	DefaultLimiterIdleTTL = 10 * time.Minute
	// DefaultLimiterSweepInterval is the default interval between sweeps.
	DefaultLimiterSweepInterval = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-key token bucket rate limiting.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*limiterEntry
	rps    rate.Limit
	burst  int
	now    func() time.Time

	jobMu    sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewRateLimiter creates a limiter allowing rps requests per second per key
// with the given burst. Non-positive values fall back to 10/s and 20.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limits: make(map[string]*limiterEntry),
		rps:    rate.Limit(rps),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if entry, ok := rl.limits[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}
	limiter := rate.NewLimiter(rl.rps, rl.burst)
	rl.limits[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Sweep drops limiters whose key was not seen for longer than idleTTL and
// returns how many were dropped. A dropped key starts again with a full bucket.
func (rl *RateLimiter) Sweep(idleTTL time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idleTTL)
	dropped := 0
	for key, entry := range rl.limits {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limits, key)
			dropped++
		}
	}
	return dropped
}

// StartSweeper runs Sweep every interval until ctx is done or StopSweeper is
// called. Non-positive values use the defaults.
func (rl *RateLimiter) StartSweeper(ctx context.Context, interval, idleTTL time.Duration) {
	if interval <= 0 {
		interval = DefaultLimiterSweepInterval
	}
	if idleTTL <= 0 {
		idleTTL = DefaultLimiterIdleTTL
	}

	rl.jobMu.Lock()
	defer rl.jobMu.Unlock()
	if rl.running {
		return
	}
	rl.running = true
	rl.stopChan = make(chan struct{})
	rl.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				if dropped := rl.Sweep(idleTTL); dropped > 0 {
					slog.Debug("rate limiter swept idle keys", "dropped", dropped)
				}
			}
		}
	}(rl.stopChan, rl.done)
}

// StopSweeper stops the sweeper and waits for it to exit. It is safe to call
// when the sweeper is not running.
func (rl *RateLimiter) StopSweeper() {
	rl.jobMu.Lock()
	if !rl.running {
		rl.jobMu.Unlock()
		return
	}
	close(rl.stopChan)
	rl.running = false
	done := rl.done
	rl.jobMu.Unlock()

	<-done
}

// Middleware rejects requests over the limit with 429. The key is the
// X-User-ID header, or the client IP when it is absent.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
			if key == "" {
				key = "ip:" + c.RealIP()
			}
			if !rl.Allow(key) {
				return ErrorJSON(c, aierrors.RateLimitExceeded("too many requests, slow down"))
			}
			return next(c)
		}
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the error code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorJSON writes err as an error body. Anything that maps to a 500 is
// reported as INTERNAL without its message.
func ErrorJSON(c echo.Context, err error) error {
	var aiErr *aierrors.AIError
	if !errors.As(err, &aiErr) || aiErr.HTTPStatus() == http.StatusInternalServerError {
		return c.JSON(http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
			Code:    string(aierrors.ErrCodeInternal),
			Message: "internal error",
		}})
	}
	return c.JSON(aiErr.HTTPStatus(), ErrorBody{Error: ErrorDetail{
		Code:    string(aiErr.Code),
		Message: aiErr.Message,
	}})
}
