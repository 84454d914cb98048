// SPDX-License-Identifier: MIT

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgcapt/imgcapt/internal/workflow"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, _ any, _ ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPublisher) first() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[0]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWatcherBroadcastsOnCreate(t *testing.T) {
	dir := t.TempDir()
	pub := &recordingPublisher{}
	w := New(pub, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watch a moment to attach before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.png"), []byte("pixels"), 0o640))

	waitFor(t, func() bool { return pub.count() >= 1 })
	assert.Equal(t, workflow.EventWorkspaceChanged, pub.first())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	pub := &recordingPublisher{}
	w := New(pub, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "001.png"), []byte("pixels"), 0o640))
	}
	waitFor(t, func() bool { return pub.count() >= 1 })

	// The burst collapses into a single broadcast.
	time.Sleep(2 * debounce)
	assert.Equal(t, 1, pub.count())
}

func TestWatcherIgnoresScratchFiles(t *testing.T) {
	dir := t.TempDir()
	pub := &recordingPublisher{}
	w := New(pub, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draft.tmp"), []byte("x"), 0o640))

	time.Sleep(2 * debounce)
	assert.Equal(t, 0, pub.count())
}

func TestWatcherMissingDirectory(t *testing.T) {
	pub := &recordingPublisher{}
	w := New(pub, filepath.Join(t.TempDir(), "absent"))
	err := w.Run(context.Background())
	require.Error(t, err)
}
