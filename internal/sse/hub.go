// SPDX-License-Identifier: MIT

package sse

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/metrics"
)

// ErrUnknownSubscriber is returned when an operation references a client ID
// that is not currently registered. It signals a stale reference, not a
// server fault.
var ErrUnknownSubscriber = errors.New("sse: unknown subscriber")

// DefaultQueueSize bounds each subscriber's pending-message queue.
const DefaultQueueSize = 100

// Subscriber is one registered client: an opaque identity and a bounded FIFO
// queue of pending messages. Owned exclusively by the Hub between Register
// and Deregister.
type Subscriber struct {
	id          string
	queue       chan Message
	connectedAt time.Time
}

// ID returns the subscriber's opaque identity.
func (s *Subscriber) ID() string { return s.id }

// Queue returns the receive side of the subscriber's message queue. The
// channel is closed when the subscriber is deregistered or replaced.
func (s *Subscriber) Queue() <-chan Message { return s.queue }

// ConnectedAt returns the registration timestamp.
func (s *Subscriber) ConnectedAt() time.Time { return s.connectedAt }

// Hub owns the subscriber registry and the event-name subscription table and
// fans published events out to interested subscribers. A single mutex guards
// all mutations, so every publish is serialized and each subscriber observes
// messages in global publish order (per-subscriber FIFO).
//
// Fan-out is non-blocking: a subscriber whose queue is full has the incoming
// message dropped (newest-drop) rather than stalling the publisher or other
// subscribers.
type Hub struct {
	mu            sync.Mutex
	subscribers   map[string]*Subscriber
	subscriptions map[string]map[string]struct{} // event name -> subscriber IDs
	queueSize     int
	seq           uint64
	logger        zerolog.Logger
}

// NewHub creates a Hub. queueSize <= 0 selects DefaultQueueSize.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subscribers:   make(map[string]*Subscriber),
		subscriptions: make(map[string]map[string]struct{}),
		queueSize:     queueSize,
		logger:        log.WithComponent("sse"),
	}
}

// Register creates a fresh bounded queue for id and returns the subscriber.
// If id is already registered the previous registration is torn down first
// (last-writer-wins): its queue is closed and it is purged from every
// subscription entry.
func (h *Hub) Register(id string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[id]; ok {
		h.deregisterLocked(id)
	}

	sub := &Subscriber{
		id:          id,
		queue:       make(chan Message, h.queueSize),
		connectedAt: time.Now(),
	}
	h.subscribers[id] = sub
	metrics.SetSSEClients(len(h.subscribers))

	h.logger.Info().Str("event", "sse.connected").Str("client_id", id).Msg("SSE client connected")
	return sub
}

// Deregister closes the subscriber's queue and removes it from the registry
// and from every subscription entry. Unknown IDs are a no-op.
func (h *Hub) Deregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[id]; !ok {
		return
	}
	h.deregisterLocked(id)
	metrics.SetSSEClients(len(h.subscribers))
	h.logger.Info().Str("event", "sse.disconnected").Str("client_id", id).Msg("SSE client disconnected")
}

// Release deregisters sub only while it still owns its id. After a
// last-writer-wins replacement the id belongs to a newer subscriber, and the
// old session's cleanup must leave that registration untouched.
func (h *Hub) Release(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.subscribers[sub.id]; !ok || current != sub {
		return
	}
	h.deregisterLocked(sub.id)
	metrics.SetSSEClients(len(h.subscribers))
	h.logger.Info().Str("event", "sse.disconnected").Str("client_id", sub.id).Msg("SSE client disconnected")
}

// deregisterLocked must be called with h.mu held.
func (h *Hub) deregisterLocked(id string) {
	sub := h.subscribers[id]
	delete(h.subscribers, id)
	for event, ids := range h.subscriptions {
		delete(ids, id)
		if len(ids) == 0 {
			delete(h.subscriptions, event)
		}
	}
	close(sub.queue)
}

// Subscribe adds id under event in the subscription table. It fails with
// ErrUnknownSubscriber if id is not currently registered.
func (h *Hub) Subscribe(id, event string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[id]; !ok {
		return ErrUnknownSubscriber
	}
	ids, ok := h.subscriptions[event]
	if !ok {
		ids = make(map[string]struct{})
		h.subscriptions[event] = ids
	}
	ids[id] = struct{}{}
	return nil
}

// Unsubscribe removes the association between id and event. Absent
// associations are a no-op.
func (h *Hub) Unsubscribe(id, event string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids, ok := h.subscriptions[event]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(h.subscriptions, event)
	}
}

// Send enqueues a message for one specific subscriber. Unknown IDs are a
// silent no-op: the client already disconnected and publishing must never
// fail the operation that triggered it.
func (h *Hub) Send(id, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(id, event, data)
}

// Publish fans the event out to the union of subscribers registered under
// event and under the wildcard, minus any excluded IDs. Delivery is
// independent per subscriber; it never blocks and never returns an error.
func (h *Hub) Publish(event string, data any, exclude ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	targets := make(map[string]struct{})
	for id := range h.subscriptions[event] {
		targets[id] = struct{}{}
	}
	for id := range h.subscriptions[Wildcard] {
		targets[id] = struct{}{}
	}

	for id := range targets {
		if _, skip := excluded[id]; skip {
			continue
		}
		h.sendLocked(id, event, data)
	}
}

// sendLocked must be called with h.mu held.
func (h *Hub) sendLocked(id, event string, data any) {
	sub, ok := h.subscribers[id]
	if !ok {
		return
	}
	h.seq++
	msg := Message{
		ID:    strconv.FormatUint(h.seq, 10),
		Event: event,
		Data:  data,
		Time:  time.Now(),
	}
	select {
	case sub.queue <- msg:
		metrics.IncSSEPublished(event)
	default:
		// Queue saturated: drop the incoming message rather than block the
		// publisher. Never escalated to the caller.
		metrics.IncSSEDrop(event, "full")
		h.logger.Warn().
			Str("event", "sse.drop").
			Str("client_id", id).
			Str("name", event).
			Msg("subscriber queue full, message dropped")
	}
}

// Count returns the number of currently registered subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
