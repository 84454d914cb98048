// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/imgcapt/imgcapt/internal/store"
	"github.com/imgcapt/imgcapt/internal/workflow"
)

// handleListSets lists the processed sets with their captions.
func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.store.Sets()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sets":  sets,
		"count": len(sets),
	})
}

// handleGetSetImage serves a processed set's image.
func (s *Server) handleGetSetImage(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	path, err := s.store.SetImagePath(base)
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

// handleGetCaption reads a processed set's caption.
func (s *Server) handleGetCaption(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	caption, err := s.store.Caption(base)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"base_name": base, "caption": caption})
}

type updateCaptionRequest struct {
	Caption string `json:"caption"`
}

// handleUpdateCaption overwrites a caption atomically and broadcasts
// caption.updated.
func (s *Server) handleUpdateCaption(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")

	var req updateCaptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	if req.Caption == "" {
		writeError(w, errors.New("missing caption"))
		return
	}

	// The image is the anchor of a set; captions only exist alongside one.
	if _, err := s.store.SetImagePath(base); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeError(w, err)
		return
	}
	if err := s.store.UpdateCaption(base, req.Caption); err != nil {
		writeInternalError(w, err)
		return
	}
	s.hub.Publish(workflow.EventCaptionUpdated, map[string]any{
		"base_name": base,
		"caption":   req.Caption,
		"timestamp": time.Now(),
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "base_name": base})
}

// handleDeleteSet removes a processed pair and broadcasts processed.deleted.
func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	removed, err := s.store.DeleteSet(base)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeInternalError(w, err)
		return
	}
	s.hub.Publish(workflow.EventProcessedDeleted, map[string]any{
		"base_name":     base,
		"removed_files": removed,
		"timestamp":     time.Now(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "removed_files": removed})
}
