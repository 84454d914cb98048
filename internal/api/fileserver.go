// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/imgcapt/imgcapt/internal/log"
)

// mountFrontend serves the static frontend from the configured directory.
// Unknown paths fall back to index.html so client-side routing works;
// traversal sequences are rejected before touching the filesystem.
func (s *Server) mountFrontend(r chi.Router) {
	root := s.cfg.FrontendDir
	index := filepath.Join(root, "index.html")

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		logger := log.WithComponentFromContext(req.Context(), "api")

		path := strings.TrimPrefix(req.URL.Path, "/")
		if strings.Contains(path, "..") || strings.ContainsRune(path, 0) {
			logger.Warn().
				Str("event", "frontend.denied").
				Str("path", req.URL.Path).
				Msg("rejected traversal sequence")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if path == "" {
			http.ServeFile(w, req, index)
			return
		}

		full := filepath.Join(root, filepath.Clean(path))
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			http.ServeFile(w, req, index)
			return
		}
		http.ServeFile(w, req, full)
	})
}
