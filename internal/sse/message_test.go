// SPDX-License-Identifier: MIT

package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageEncodeStructuredPayload(t *testing.T) {
	m := Message{
		ID:    "7",
		Event: "caption.updated",
		Data:  map[string]string{"base_name": "003"},
	}
	assert.Equal(t, "id: 7\nevent: caption.updated\ndata: {\"base_name\":\"003\"}\n\n", m.Encode())
}

func TestMessageEncodeMultilineText(t *testing.T) {
	m := Message{Event: "caption.generate.success", Data: "first line\nsecond line"}

	// Every physical payload line must be individually framed.
	assert.Equal(t, "event: caption.generate.success\ndata: first line\ndata: second line\n\n", m.Encode())
}

func TestMessageEncodeOmitsEmptyFields(t *testing.T) {
	m := Message{Event: "keepalive"}
	assert.Equal(t, "event: keepalive\n\n", m.Encode())
}

func TestMessageEncodeTerminatedByBlankLine(t *testing.T) {
	for _, m := range []Message{
		{Event: "connected", Data: "x"},
		{ID: "1", Event: "a"},
	} {
		encoded := m.Encode()
		assert.True(t, len(encoded) >= 2 && encoded[len(encoded)-2:] == "\n\n")
	}

	// A message with no fields degrades to the bare terminator.
	assert.Equal(t, "\n", Message{}.Encode())
}
