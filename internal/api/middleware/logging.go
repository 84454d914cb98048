// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/imgcapt/imgcapt/internal/log"
)

// AccessLog writes one structured line per completed request.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger := log.WithComponentFromContext(r.Context(), "http")
		logger.Info().
			Str("event", "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}
