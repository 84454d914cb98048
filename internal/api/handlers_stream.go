// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/sse"
)

// handleEvents serves the live event stream. The connection stays open until
// the client disconnects or the session is replaced by a newer one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeInternalError(w, errStreamingUnsupported)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	session := sse.NewSession(s.hub, s.cfg.Stream.Keepalive)
	ctx := log.ContextWithClientID(r.Context(), session.ID())
	logger := log.WithComponentFromContext(ctx, "api")
	logger.Info().
		Str("event", "stream.connected").
		Int("clients", s.hub.Count()).
		Msg("stream client connected")

	err := session.Run(ctx, w)

	logger.Info().
		Str("event", "stream.disconnected").
		Err(err).
		Int("clients", s.hub.Count()).
		Msg("stream client disconnected")
}
