// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/imgcapt/imgcapt/internal/api"
	"github.com/imgcapt/imgcapt/internal/config"
	"github.com/imgcapt/imgcapt/internal/health"
	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/ollama"
	"github.com/imgcapt/imgcapt/internal/sse"
	"github.com/imgcapt/imgcapt/internal/store"
	"github.com/imgcapt/imgcapt/internal/watcher"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	log.Configure(log.Config{
		Level:   "info",
		Service: "imgcapt",
		Version: version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}
	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: "imgcapt",
		Version: version,
	})

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.Listen).
		Msg("starting imgcapt")
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
	logger.Info().Msgf("→ Model: %s @ %s", cfg.Ollama.Model, cfg.Ollama.BaseURL)

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "store.open_failed").
			Str("data_dir", cfg.DataDir).
			Msg("failed to open workspace")
	}

	oc := ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model, ollama.Options{
		Timeout:      cfg.Ollama.Timeout,
		ProbeTimeout: cfg.Ollama.ProbeTimeout,
	})
	if err := oc.Ping(ctx); err != nil {
		// The workspace API works without the model; captioning answers 503.
		logger.Warn().
			Err(err).
			Str("event", "ollama.unreachable").
			Msg("captioning model service not reachable at startup")
	}

	hub := sse.NewHub(cfg.Stream.QueueSize)

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewDirChecker("workspace", cfg.DataDir))
	hm.RegisterChecker(health.NewModelChecker("ollama", oc))

	server := api.New(cfg, hub, st, oc, hm, version)
	// Route net/http internals (TLS handshake noise, bad requests) through
	// the structured logger instead of the default stderr writer.
	srvLogger := log.Base().With().Str("component", "http").Logger()
	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          stdlog.New(srvLogger, "", 0),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Workspace watcher is best-effort; the API works without it.
	w := watcher.New(hub, st.RawDir(), st.ProcessedDir())
	g.Go(func() error {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Str("event", "watcher.failed").Msg("workspace watcher stopped")
		}
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("event", "http.listening").Str("addr", cfg.Listen).Msg("serving HTTP")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Str("event", "shutdown.begin").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
	}
	logger.Info().Str("event", "shutdown.complete").Msg("goodbye")
}
