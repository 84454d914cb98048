// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imgcapt/imgcapt/internal/store"
	"github.com/imgcapt/imgcapt/internal/workflow"
)

// handleListRawImages lists the raw area, sorted by name.
func (s *Server) handleListRawImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.store.RawImages()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"images": images,
		"count":  len(images),
	})
}

// handleGetRawImage serves one raw image file.
func (s *Server) handleGetRawImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	path, err := s.store.RawImagePath(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

// handleDeleteRawImage deletes one raw image and broadcasts file.deleted.
func (s *Server) handleDeleteRawImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := s.store.DeleteRawImage(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeError(w, err)
		return
	}
	s.hub.Publish(workflow.EventFileDeleted, map[string]any{
		"filename":  name,
		"timestamp": time.Now(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "filename": name})
}

// handleClearWorkspace empties the raw area and broadcasts the outcome.
func (s *Server) handleClearWorkspace(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.ClearRaw()
	if err != nil {
		s.hub.Publish(workflow.EventWorkspaceError, workflow.StageError{
			Error:     err.Error(),
			Timestamp: time.Now(),
		})
		writeInternalError(w, err)
		return
	}
	s.hub.Publish(workflow.EventWorkspaceCleared, map[string]any{
		"deleted_count": count,
		"timestamp":     time.Now(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "deleted_count": count})
}
