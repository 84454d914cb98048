// SPDX-License-Identifier: MIT

// Package middleware provides the canonical HTTP ingress middleware stack.
package middleware

import (
	"github.com/go-chi/chi/v5"
)

// StackConfig configures the ingress middleware stack.
type StackConfig struct {
	AllowedOrigins []string

	EnableMetrics bool
	EnableLogging bool

	// RateLimitRPM caps requests per client IP per minute; 0 disables.
	RateLimitRPM int
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the middleware stack to r, outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS(cfg.AllowedOrigins))
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.EnableLogging {
		r.Use(AccessLog)
	}
	if cfg.RateLimitRPM > 0 {
		r.Use(RateLimit(RateLimitConfig{RequestLimitPerMinute: cfg.RateLimitRPM}))
	}
}
