// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/imgcapt/imgcapt/internal/ollama"
)

// handleCaption generates a caption for one uploaded image. 503 signals that
// the model service is down, distinct from a failed generation.
func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	image, filename, err := s.readUploadedImage(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}

	caption, err := s.flow.GenerateCaption(r.Context(), filename, image)
	if err != nil {
		if errors.Is(err, ollama.ErrUnavailable) {
			writeServiceUnavailable(w, err)
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"caption": caption,
	})
}

// readUploadedImage pulls one multipart file field into memory, bounded by
// the configured upload ceiling.
func (s *Server) readUploadedImage(r *http.Request, field string) ([]byte, string, error) {
	if err := r.ParseMultipartForm(s.cfg.API.MaxUploadBytes); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", errors.New("missing file in upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.API.MaxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}
