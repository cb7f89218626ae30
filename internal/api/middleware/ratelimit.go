package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/renolab/planscan/internal/api/response"
	"github.com/renolab/planscan/internal/cache"
)

const (
	defaultRequestsPerMinute = 60
	rateLimitWindow          = time.Minute
)

// RateLimit enforces a per-key fixed window counter backed by Redis.
// Cache failures fail open: an unreachable Redis never blocks traffic.
type RateLimit struct {
	cache cache.Cache
	limit int
}

func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, limit: requestsPerMin}
}

// Limit counts the request against the key prefix placed in context by
// Authenticate. Requests with no prefix (auth not run) pass untouched.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, ok := getKeyPrefix(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(prefix), rateLimitWindow)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		rl.writeHeaders(w, count)

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimit) writeHeaders(w http.ResponseWriter, count int64) {
	remaining := int64(rl.limit) - count
	if remaining < 0 {
		remaining = 0
	}
	reset := time.Now().Add(rateLimitWindow).Unix()

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
}
