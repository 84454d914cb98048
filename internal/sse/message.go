// SPDX-License-Identifier: MIT

// Package sse implements the real-time event broadcast subsystem: a registry
// of per-client bounded queues, an event-name routing table with wildcard
// support, and the Server-Sent Events stream rendering for live clients.
package sse

import (
	"encoding/json"
	"strings"
	"time"
)

// Wildcard is the reserved event name matching every published event.
const Wildcard = "*"

// Message is an immutable event record delivered to subscribers. Each
// subscriber receives its own copy, so consuming or dropping a message
// never affects another subscriber's stream.
type Message struct {
	// ID is a server-assigned delivery token, rendered as the SSE "id:" field.
	ID string
	// Event is the event name, rendered as the SSE "event:" field.
	Event string
	// Data is the payload: a string is rendered verbatim, anything else is
	// JSON-encoded to a single line. Nil omits the data field entirely.
	Data any
	// Time records when the message was published.
	Time time.Time
}

// Encode renders the message as one SSE frame: optional id line, event line,
// one "data:" line per physical payload line, terminated by a blank line.
// This framing is the wire contract; compatible EventSource clients depend
// on it exactly.
func (m Message) Encode() string {
	var b strings.Builder

	if m.ID != "" {
		b.WriteString("id: ")
		b.WriteString(m.ID)
		b.WriteString("\n")
	}
	if m.Event != "" {
		b.WriteString("event: ")
		b.WriteString(m.Event)
		b.WriteString("\n")
	}
	if m.Data != nil {
		var text string
		switch v := m.Data.(type) {
		case string:
			text = v
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				// Payloads are produced server-side; an unencodable one is a
				// programming error. Degrade to an empty object rather than
				// corrupting the frame.
				encoded = []byte("{}")
			}
			text = string(encoded)
		}
		for _, line := range strings.Split(text, "\n") {
			b.WriteString("data: ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
