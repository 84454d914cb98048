// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
)

// handleProcess commits one cropped image and its caption into the next
// numbered processed set.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	image, filename, err := s.readUploadedImage(r, "file")
	if err != nil {
		writeError(w, err)
		return
	}
	caption := r.FormValue("caption")
	if caption == "" {
		writeError(w, errors.New("missing caption"))
		return
	}
	if original := r.FormValue("original_filename"); original != "" {
		filename = original
	}

	outputName, err := s.flow.Process(r.Context(), filename, image, caption)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "success",
		"output_filename": outputName,
	})
}
