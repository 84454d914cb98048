// SPDX-License-Identifier: MIT

// Package workflow implements the import, caption-generation, and processing
// stages. Each stage publishes an ordered lifecycle of events (start,
// optional progress, exactly one terminal success or error) to the broadcast
// hub while performing its side effects.
package workflow

import (
	"context"
	"io"
	"time"
)

// Publisher fans an event out to live subscribers. Publishing is best-effort
// and must never fail the stage that triggered it.
type Publisher interface {
	Publish(event string, data any, exclude ...string)
}

// Library is the slice of the workspace store the stages depend on.
type Library interface {
	ClearRaw() (int, error)
	SaveRawImage(name string, r io.Reader) error
	NextBaseName() (string, error)
	SaveSetImage(base string, r io.Reader) error
	UpdateCaption(base, caption string) error
}

// Captioner generates captions via the external model service.
type Captioner interface {
	Ping(ctx context.Context) error
	Caption(ctx context.Context, image []byte, prompt string) (string, error)
}

// Deps holds the collaborators shared by all stages.
type Deps struct {
	Publisher Publisher
	Library   Library
	Captioner Captioner
	// Clock allows tests to pin payload timestamps; defaults to time.Now.
	Clock func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}
