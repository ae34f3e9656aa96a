package middleware

import (
	"net/http"

	"github.com/swinilab/orderflow/pkg/logger"
	"github.com/swinilab/orderflow/pkg/ratelimit"
)

// RateLimiter applies a global token-bucket limit to incoming requests.
type RateLimiter struct {
	bucket *ratelimit.TokenBucket
	logger logger.Logger
}

// NewRateLimiter creates a rate limiting middleware allowing refillRate
// requests per second with bursts up to maxTokens.
func NewRateLimiter(maxTokens, refillRate float64, logger logger.Logger) *RateLimiter {
	return &RateLimiter{
		bucket: ratelimit.NewTokenBucket(maxTokens, refillRate),
		logger: logger,
	}
}

// Middleware returns the mux-compatible middleware function.
func (m *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.bucket.Allow() {
			m.logger.Warn("Rate limit exceeded", "method", r.Method, "path", r.URL.Path)

			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Rate limit exceeded. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}
