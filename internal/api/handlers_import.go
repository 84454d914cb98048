// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/imgcapt/imgcapt/internal/workflow"
)

// handleImport ingests a multipart upload into the raw area. The whole
// lifecycle streams to subscribers; the JSON acknowledgement carries the
// final counts.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.API.MaxUploadBytes); err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, errors.New("no files in upload"))
		return
	}
	sourceFolder := r.FormValue("source_folder")

	files := make([]workflow.ImportFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, importFile(fh))
	}

	result, err := s.flow.Import(r.Context(), sourceFolder, files)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"imported_count": result.Imported,
		"skipped_count":  result.Skipped,
	})
}

func importFile(fh *multipart.FileHeader) workflow.ImportFile {
	return workflow.ImportFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
