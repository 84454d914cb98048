// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"
)

// handleHealth is the liveness probe with the live stream client count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.health.Health(r.Context(), r.URL.Query().Get("verbose") == "true")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      resp.Status,
		"version":     s.version,
		"timestamp":   time.Now(),
		"sse_clients": s.hub.Count(),
		"checks":      resp.Checks,
	})
}
