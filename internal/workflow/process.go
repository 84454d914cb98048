// SPDX-License-Identifier: MIT

package workflow

import (
	"bytes"
	"context"
	"fmt"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/metrics"
)

// Process commits one captioned image into the processed set: the next free
// base name is claimed, the image and caption are written as a NNN.png/NNN.txt
// pair, and file.processed is the terminal event carrying the new name.
func (d Deps) Process(ctx context.Context, filename string, image []byte, caption string) (outputName string, err error) {
	logger := log.WithComponentFromContext(ctx, "workflow")
	defer func() {
		if err != nil {
			metrics.IncStageFailure("process")
			d.Publisher.Publish(EventProcessError, StageError{
				Filename:  filename,
				Error:     err.Error(),
				Timestamp: d.now(),
			})
		}
	}()

	d.Publisher.Publish(EventProcessStart, ProcessStart{
		Filename:  filename,
		Timestamp: d.now(),
	})

	if err = ctx.Err(); err != nil {
		return "", err
	}

	base, err := d.Library.NextBaseName()
	if err != nil {
		return "", fmt.Errorf("process %s: %w", filename, err)
	}

	d.Publisher.Publish(EventProcessProgress, ProcessProgress{
		Progress: 50,
		Message:  "Saving cropped image...",
	})
	if err = d.Library.SaveSetImage(base, bytes.NewReader(image)); err != nil {
		return "", fmt.Errorf("process %s: %w", filename, err)
	}

	d.Publisher.Publish(EventProcessProgress, ProcessProgress{
		Progress: 75,
		Message:  "Writing caption file...",
	})
	if err = d.Library.UpdateCaption(base, caption); err != nil {
		return "", fmt.Errorf("process %s: %w", filename, err)
	}

	outputName = base + ".png"
	d.Publisher.Publish(EventFileProcessed, FileProcessed{
		OriginalFilename: filename,
		OutputFilename:   outputName,
		Timestamp:        d.now(),
	})
	metrics.IncProcessed()
	logger.Info().
		Str("event", "process.committed").
		Str("filename", filename).
		Str("output", outputName).
		Msg("image processed")
	return outputName, nil
}
