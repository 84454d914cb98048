// SPDX-License-Identifier: MIT

package sse

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/imgcapt/imgcapt/internal/log"
)

// DefaultKeepalive is the idle interval after which a session emits a
// synthetic keepalive frame.
const DefaultKeepalive = 30 * time.Second

type connectedPayload struct {
	ClientID string `json:"client_id"`
}

type keepalivePayload struct {
	Timestamp string `json:"timestamp"`
}

// Session is one live observer connection: a fresh identity registered with
// the hub, subscribed to the wildcard event, rendering its queue to an SSE
// stream with periodic keepalives while idle.
type Session struct {
	hub       *Hub
	sub       *Subscriber
	keepalive time.Duration
	logger    zerolog.Logger
}

// NewSession registers a new subscriber with a generated identity, subscribes
// it to all events, and queues the initial "connected" greeting. The caller
// must arrange for the session to be closed; Run does this on every exit path.
func NewSession(hub *Hub, keepalive time.Duration) *Session {
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}
	id := uuid.New().String()
	sub := hub.Register(id)
	// Registration just created the ID, so this cannot miss.
	_ = hub.Subscribe(id, Wildcard)
	hub.Send(id, "connected", connectedPayload{ClientID: id})

	return &Session{
		hub:       hub,
		sub:       sub,
		keepalive: keepalive,
		logger:    log.WithComponent("sse").With().Str("client_id", id).Logger(),
	}
}

// ID returns the session's subscriber identity.
func (s *Session) ID() string { return s.sub.ID() }

// Close deregisters the session's subscriber. Safe to call more than once,
// and a no-op once the identity has been re-registered by a newer session:
// cleanup is scoped to this subscriber instance, never the id.
func (s *Session) Close() { s.hub.Release(s.sub) }

// Run renders the session's queue to w until ctx is cancelled, the
// subscriber is replaced, or the peer stops accepting writes. Deregistration
// is guaranteed on every exit path. If w implements http.Flusher each frame
// is flushed immediately.
func (s *Session) Run(ctx context.Context, w io.Writer) error {
	defer s.Close()

	flusher, _ := w.(http.Flusher)
	timer := time.NewTimer(s.keepalive)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().
				Str("event", "sse.session_cancelled").
				Dur("connected_for", time.Since(s.sub.ConnectedAt())).
				Msg("session cancelled")
			return nil

		case msg, ok := <-s.sub.Queue():
			if !ok {
				// Queue closed: this identity was re-registered elsewhere.
				s.logger.Debug().
					Str("event", "sse.session_replaced").
					Dur("connected_for", time.Since(s.sub.ConnectedAt())).
					Msg("subscriber replaced")
				return nil
			}
			if err := s.emit(w, flusher, msg); err != nil {
				return err
			}
			s.resetTimer(timer)

		case <-timer.C:
			msg := Message{
				Event: "keepalive",
				Data:  keepalivePayload{Timestamp: time.Now().Format(time.RFC3339)},
			}
			if err := s.emit(w, flusher, msg); err != nil {
				return err
			}
			timer.Reset(s.keepalive)
		}
	}
}

func (s *Session) emit(w io.Writer, flusher http.Flusher, msg Message) error {
	if _, err := io.WriteString(w, msg.Encode()); err != nil {
		s.logger.Debug().Err(err).Str("event", "sse.write_failed").Msg("peer gone")
		return err
	}
	if flusher != nil {
		flusher.Flush()
	}
	return nil
}

func (s *Session) resetTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(s.keepalive)
}
