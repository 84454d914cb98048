// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for the ingress rate limiter.
type RateLimitConfig struct {
	// RequestLimitPerMinute is the per-key budget over a one-minute window.
	RequestLimitPerMinute int
	// KeyFunc extracts the rate limit key; defaults to the client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit limits requests with a sliding window counter per client key.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	return httprate.Limit(
		cfg.RequestLimitPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
		}),
	)
}
