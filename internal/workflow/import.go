// SPDX-License-Identifier: MIT

package workflow

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/metrics"
	"github.com/imgcapt/imgcapt/internal/store"
)

// ImportFile is one uploaded file offered to the import stage.
type ImportFile struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ImportResult summarises a finished import run.
type ImportResult struct {
	Imported int `json:"imported_count"`
	Skipped  int `json:"skipped_count"`
}

// isImageUpload accepts files by declared content type, falling back to the
// file extension for clients that do not declare one. The generic
// application/octet-stream counts as undeclared: multipart writers stamp it
// on every part regardless of the file.
func isImageUpload(f ImportFile) bool {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return strings.HasPrefix(f.ContentType, "image/")
	}
	return store.IsImage(f.Name)
}

// Import replaces the raw area with the uploaded image files. The whole
// lifecycle is broadcast: start, clearing, found, per-file progress, and a
// terminal complete or error event. The terminal error event fires before
// the failure is returned to the caller.
func (d Deps) Import(ctx context.Context, sourceFolder string, files []ImportFile) (result *ImportResult, err error) {
	logger := log.WithComponentFromContext(ctx, "workflow")
	defer func() {
		if err != nil {
			metrics.IncStageFailure("import")
			d.Publisher.Publish(EventImportError, StageError{Error: err.Error(), Timestamp: d.now()})
		}
	}()

	d.Publisher.Publish(EventImportStart, ImportStart{
		SourceFolder: sourceFolder,
		TotalFiles:   len(files),
		Timestamp:    d.now(),
	})

	d.Publisher.Publish(EventImportClearing, map[string]string{"message": "Clearing workspace..."})
	if _, err = d.Library.ClearRaw(); err != nil {
		return nil, fmt.Errorf("clear workspace: %w", err)
	}

	images := 0
	for _, f := range files {
		if isImageUpload(f) {
			images++
		}
	}
	d.Publisher.Publish(EventImportFound, ImportFound{
		TotalFiles: len(files),
		ImageFiles: images,
		Message:    fmt.Sprintf("Processing %d uploaded files...", len(files)),
	})

	res := &ImportResult{}
	for _, f := range files {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if !isImageUpload(f) {
			res.Skipped++
			continue
		}
		if err = d.saveUpload(f); err != nil {
			return nil, fmt.Errorf("import %s: %w", f.Name, err)
		}
		res.Imported++
		d.Publisher.Publish(EventImportProgress, ImportProgress{
			Filename: f.Name,
			Current:  res.Imported,
			Total:    len(files),
			Percent:  res.Imported * 100 / len(files),
		})
	}

	d.Publisher.Publish(EventImportComplete, ImportComplete{
		ImportedCount: res.Imported,
		SkippedCount:  res.Skipped,
		Message:       fmt.Sprintf("Import complete: %d images added to workspace", res.Imported),
		Timestamp:     d.now(),
	})
	metrics.AddImported(res.Imported)
	logger.Info().
		Str("event", "import.complete").
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("import finished")
	return res, nil
}

func (d Deps) saveUpload(f ImportFile) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return d.Library.SaveRawImage(f.Name, rc)
}
