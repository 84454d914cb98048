// SPDX-License-Identifier: MIT

package workflow

import (
	"context"
	"fmt"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/metrics"
	"github.com/imgcapt/imgcapt/internal/vocab"
)

const captionPreviewLen = 100

// GenerateCaption runs the caption stage for one image: probe the model
// service, generate, normalize vocabulary. Lifecycle events are broadcast
// and the terminal error event fires before a failure is returned; callers
// match ollama.ErrUnavailable to distinguish "model down" from other
// failures.
func (d Deps) GenerateCaption(ctx context.Context, filename string, image []byte) (caption string, err error) {
	logger := log.WithComponentFromContext(ctx, "workflow")
	defer func() {
		if err != nil {
			metrics.IncStageFailure("caption")
			d.Publisher.Publish(EventCaptionError, StageError{
				Filename:  filename,
				Error:     err.Error(),
				Timestamp: d.now(),
			})
		}
	}()

	d.Publisher.Publish(EventCaptionStart, CaptionStart{
		Filename:  filename,
		FileSize:  len(image),
		Timestamp: d.now(),
	})

	if err = d.Captioner.Ping(ctx); err != nil {
		metrics.IncCaption("unavailable")
		return "", fmt.Errorf("caption %s: %w", filename, err)
	}

	d.Publisher.Publish(EventCaptionProcessing, CaptionProcessing{
		Filename: filename,
		Message:  fmt.Sprintf("Sending %s to the captioning model...", filename),
	})

	caption, err = d.Captioner.Caption(ctx, image, "")
	if err != nil {
		metrics.IncCaption("error")
		return "", fmt.Errorf("caption %s: %w", filename, err)
	}
	caption = vocab.Normalize(caption)

	d.Publisher.Publish(EventCaptionSuccess, CaptionSuccess{
		Filename:       filename,
		CaptionPreview: preview(caption),
		CaptionLength:  len(caption),
		Timestamp:      d.now(),
	})
	metrics.IncCaption("success")
	logger.Info().
		Str("event", "caption.generated").
		Str("filename", filename).
		Int("length", len(caption)).
		Msg("caption generated")
	return caption, nil
}

func preview(caption string) string {
	if len(caption) <= captionPreviewLen {
		return caption
	}
	return caption[:captionPreviewLen] + "..."
}
