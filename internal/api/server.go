// SPDX-License-Identifier: MIT

// Package api exposes the HTTP surface: workspace CRUD, the workflow
// endpoints, the SSE event stream, health probes, and the static frontend.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/imgcapt/imgcapt/internal/api/middleware"
	"github.com/imgcapt/imgcapt/internal/config"
	"github.com/imgcapt/imgcapt/internal/health"
	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/ollama"
	"github.com/imgcapt/imgcapt/internal/sse"
	"github.com/imgcapt/imgcapt/internal/store"
	"github.com/imgcapt/imgcapt/internal/workflow"
)

// Server wires the collaborators behind the HTTP handlers.
type Server struct {
	cfg     config.Config
	hub     *sse.Hub
	store   *store.Store
	ollama  *ollama.Client
	flow    workflow.Deps
	health  *health.Manager
	version string
	logger  zerolog.Logger
}

// New assembles a server from its collaborators. The workflow deps publish
// through the hub and write through the store.
func New(cfg config.Config, hub *sse.Hub, st *store.Store, oc *ollama.Client, hm *health.Manager, version string) *Server {
	return &Server{
		cfg:    cfg,
		hub:    hub,
		store:  st,
		ollama: oc,
		flow: workflow.Deps{
			Publisher: hub,
			Library:   st,
			Captioner: oc,
		},
		health:  hm,
		version: version,
		logger:  log.WithComponent("api"),
	}
}

// Routes builds the chi router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: s.cfg.API.AllowedOrigins,
		EnableMetrics:  true,
		EnableLogging:  true,
		RateLimitRPM:   s.cfg.API.RateLimitRPM,
	})

	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleEvents)

		r.Post("/import", s.handleImport)
		r.Post("/caption", s.handleCaption)
		r.Post("/process", s.handleProcess)

		r.Route("/raw-images", func(r chi.Router) {
			r.Get("/", s.handleListRawImages)
			r.Delete("/", s.handleClearWorkspace)
			r.Get("/{filename}", s.handleGetRawImage)
			r.Delete("/{filename}", s.handleDeleteRawImage)
		})

		r.Route("/processed-sets", func(r chi.Router) {
			r.Get("/", s.handleListSets)
			r.Route("/{base}", func(r chi.Router) {
				r.Delete("/", s.handleDeleteSet)
				r.Get("/image", s.handleGetSetImage)
				r.Get("/caption", s.handleGetCaption)
				r.Put("/caption", s.handleUpdateCaption)
			})
		})
	})

	if s.cfg.FrontendDir != "" {
		s.mountFrontend(r)
	}
	return r
}
