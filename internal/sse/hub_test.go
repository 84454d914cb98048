// SPDX-License-Identifier: MIT

package sse

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(sub *Subscriber) []Message {
	var out []Message
	for {
		select {
		case m := <-sub.Queue():
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestPublishFIFOPerSubscriber(t *testing.T) {
	h := NewHub(0)
	sub := h.Register("a")
	require.NoError(t, h.Subscribe("a", Wildcard))

	for i := 0; i < 20; i++ {
		h.Publish("import.progress", fmt.Sprintf("msg-%d", i))
	}

	msgs := drain(sub)
	require.Len(t, msgs, 20)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), m.Data)
	}
}

func TestRegisterSameIDReplacesPrevious(t *testing.T) {
	h := NewHub(0)
	first := h.Register("dup")
	require.NoError(t, h.Subscribe("dup", "import.start"))
	require.Equal(t, 1, h.Count())

	second := h.Register("dup")
	assert.Equal(t, 1, h.Count(), "count must not grow on identity collision")

	// The old queue is closed so its session loop terminates.
	_, open := <-first.Queue()
	assert.False(t, open)

	// The replacement starts with a clean subscription slate.
	h.Publish("import.start", "hello")
	assert.Empty(t, drain(second))

	require.NoError(t, h.Subscribe("dup", Wildcard))
	h.Publish("import.start", "hello")
	assert.Len(t, drain(second), 1)
}

func TestPublishUnionOfEventAndWildcard(t *testing.T) {
	h := NewHub(0)
	byName := h.Register("by-name")
	byWildcard := h.Register("by-wildcard")
	other := h.Register("other")

	require.NoError(t, h.Subscribe("by-name", "file.deleted"))
	require.NoError(t, h.Subscribe("by-wildcard", Wildcard))
	require.NoError(t, h.Subscribe("other", "caption.updated"))

	h.Publish("file.deleted", "payload")

	assert.Len(t, drain(byName), 1)
	assert.Len(t, drain(byWildcard), 1)
	assert.Empty(t, drain(other))
}

func TestPublishExcludes(t *testing.T) {
	h := NewHub(0)
	a := h.Register("a")
	b := h.Register("b")
	require.NoError(t, h.Subscribe("a", Wildcard))
	require.NoError(t, h.Subscribe("b", Wildcard))

	h.Publish("workspace.cleared", nil, "a")

	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
}

func TestSubscribeUnknownSubscriber(t *testing.T) {
	h := NewHub(0)
	err := h.Subscribe("ghost", Wildcard)
	assert.ErrorIs(t, err, ErrUnknownSubscriber)
}

func TestSendUnknownSubscriberIsNoOp(t *testing.T) {
	h := NewHub(0)
	assert.NotPanics(t, func() { h.Send("ghost", "connected", nil) })
}

func TestDeregisterPurgesSubscriptions(t *testing.T) {
	h := NewHub(0)
	h.Register("a")
	require.NoError(t, h.Subscribe("a", "import.start"))
	require.NoError(t, h.Subscribe("a", Wildcard))

	h.Deregister("a")
	assert.Equal(t, 0, h.Count())

	// Re-registering under the same id must not inherit stale subscriptions.
	sub := h.Register("a")
	h.Publish("import.start", "x")
	assert.Empty(t, drain(sub))
}

func TestDeregisterUnknownIsNoOp(t *testing.T) {
	h := NewHub(0)
	assert.NotPanics(t, func() { h.Deregister("ghost") })
}

func TestSaturatedQueueDropsNewestWithoutBlocking(t *testing.T) {
	h := NewHub(3)
	sub := h.Register("slow")
	require.NoError(t, h.Subscribe("slow", Wildcard))

	for i := 0; i < 10; i++ {
		h.Publish("import.progress", i) // must never block
	}

	msgs := drain(sub)
	require.Len(t, msgs, 3)
	// Newest-drop: the first three survive, the rest were discarded.
	for i, m := range msgs {
		assert.Equal(t, i, m.Data)
	}
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	h := NewHub(1)
	slow := h.Register("slow")
	fast := h.Register("fast")
	require.NoError(t, h.Subscribe("slow", Wildcard))
	require.NoError(t, h.Subscribe("fast", Wildcard))

	h.Publish("process.progress", 1)
	require.Len(t, drain(fast), 1)

	// slow is now saturated; fast keeps its capacity.
	h.Publish("process.progress", 2)

	assert.Len(t, drain(slow), 1, "saturated queue keeps only the oldest message")
	msgs := drain(fast)
	require.Len(t, msgs, 1)
	assert.Equal(t, 2, msgs[0].Data)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(0)
	sub := h.Register("a")
	require.NoError(t, h.Subscribe("a", "caption.updated"))

	h.Publish("caption.updated", "one")
	h.Unsubscribe("a", "caption.updated")
	h.Publish("caption.updated", "two")

	msgs := drain(sub)
	require.Len(t, msgs, 1)
	assert.Equal(t, "one", msgs[0].Data)
}

func TestMessageIDsAreMonotonic(t *testing.T) {
	h := NewHub(0)
	sub := h.Register("a")
	require.NoError(t, h.Subscribe("a", Wildcard))

	h.Publish("a.b", nil)
	h.Publish("a.b", nil)
	msgs := drain(sub)
	require.Len(t, msgs, 2)
	first, err := strconv.ParseUint(msgs[0].ID, 10, 64)
	require.NoError(t, err)
	second, err := strconv.ParseUint(msgs[1].ID, 10, 64)
	require.NoError(t, err)
	assert.Less(t, first, second)
}

func TestReleaseIsScopedToTheInstance(t *testing.T) {
	h := NewHub(0)
	old := h.Register("a")
	replacement := h.Register("a")

	// Releasing the replaced subscriber must not tear down the new owner.
	h.Release(old)
	require.Equal(t, 1, h.Count())

	h.Send("a", "x", nil)
	select {
	case msg := <-replacement.Queue():
		assert.Equal(t, "x", msg.Event)
	default:
		t.Fatal("replacement lost its registration")
	}

	// Releasing the current owner works like Deregister.
	h.Release(replacement)
	assert.Equal(t, 0, h.Count())

	// Repeated release of a gone subscriber is a no-op.
	h.Release(replacement)
	assert.Equal(t, 0, h.Count())
}

func TestRegisterStampsConnectionTime(t *testing.T) {
	h := NewHub(0)
	before := time.Now()
	sub := h.Register("a")
	after := time.Now()

	at := sub.ConnectedAt()
	assert.False(t, at.Before(before))
	assert.False(t, at.After(after))
}
