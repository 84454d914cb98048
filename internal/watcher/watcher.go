// SPDX-License-Identifier: MIT

// Package watcher notifies stream subscribers when the workspace directories
// change on disk outside the API, so connected UIs can refresh their listing.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/workflow"
)

// debounce collapses bursts of filesystem events (an atomic replace fires
// create+rename) into a single broadcast.
const debounce = 250 * time.Millisecond

type changedPayload struct {
	Dir       string    `json:"dir"`
	Timestamp time.Time `json:"timestamp"`
}

// Watcher broadcasts workspace.changed when files in the watched directories
// are created, removed, or rewritten.
type Watcher struct {
	dirs      []string
	publisher workflow.Publisher
}

// New prepares a watcher over dirs. The directories must already exist.
func New(publisher workflow.Publisher, dirs ...string) *Watcher {
	return &Watcher{dirs: dirs, publisher: publisher}
}

// Run watches until ctx is cancelled. It returns ctx.Err() on cancellation
// and a non-nil error only when the underlying watcher cannot be set up or
// its event stream dies.
func (w *Watcher) Run(ctx context.Context) error {
	logger := log.WithComponent("watcher")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}
	logger.Info().Str("event", "watcher.started").Strs("dirs", w.dirs).Msg("watching workspace")

	var pending string
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if !relevant(event) {
				continue
			}
			pending = filepath.Dir(event.Name)
			timer.Reset(debounce)
		case <-timer.C:
			w.publisher.Publish(workflow.EventWorkspaceChanged, changedPayload{
				Dir:       filepath.Base(pending),
				Timestamp: time.Now(),
			})
			logger.Debug().Str("event", "watcher.changed").Str("dir", pending).Msg("workspace changed")
		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}

// relevant filters out permission-only events and editor/atomic-write
// scratch files.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	return true
}
