// SPDX-License-Identifier: MIT

// Command recaption regenerates the caption of every processed set. The
// previous caption of each set is kept as a BKUP_-prefixed file so a run can
// be reviewed and rolled back by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/imgcapt/imgcapt/internal/config"
	"github.com/imgcapt/imgcapt/internal/log"
	"github.com/imgcapt/imgcapt/internal/ollama"
	"github.com/imgcapt/imgcapt/internal/store"
	"github.com/imgcapt/imgcapt/internal/workflow"
)

var version = "v1.0.0"

type discardPublisher struct{}

func (discardPublisher) Publish(string, any, ...string) {}

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	rpm := flag.Int("rpm", 12, "maximum caption requests per minute")
	dryRun := flag.Bool("dry-run", false, "generate captions without writing them")
	flag.Parse()

	log.Configure(log.Config{
		Level:   "info",
		Service: "imgcapt-recaption",
		Version: version,
	})
	logger := log.WithComponent("recaption")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "store.open_failed").Msg("failed to open workspace")
	}

	oc := ollama.New(cfg.Ollama.BaseURL, cfg.Ollama.Model, ollama.Options{
		Timeout:      cfg.Ollama.Timeout,
		ProbeTimeout: cfg.Ollama.ProbeTimeout,
	})

	models, err := oc.Models(ctx)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "ollama.unreachable").Msg("model service not reachable")
	}
	if !contains(models, cfg.Ollama.Model) {
		logger.Fatal().
			Str("event", "ollama.model_missing").
			Str("model", cfg.Ollama.Model).
			Strs("available", models).
			Msg("configured model is not installed")
	}

	sets, err := st.Sets()
	if err != nil {
		logger.Fatal().Err(err).Str("event", "sets.list_failed").Msg("failed to list processed sets")
	}
	if len(sets) == 0 {
		logger.Info().Msg("no processed sets found, nothing to do")
		return
	}
	logger.Info().
		Int("sets", len(sets)).
		Int("rpm", *rpm).
		Bool("dry_run", *dryRun).
		Msg("starting batch re-caption")

	flow := workflow.Deps{
		Publisher: discardPublisher{},
		Library:   st,
		Captioner: oc,
	}
	limiter := rate.NewLimiter(rate.Limit(float64(*rpm)/60.0), 1)

	done, failed := 0, 0
	for _, set := range sets {
		if err := limiter.Wait(ctx); err != nil {
			logger.Warn().Err(err).Msg("interrupted, stopping")
			break
		}

		path, err := st.SetImagePath(set.BaseName)
		if err != nil {
			logger.Warn().Err(err).Str("base", set.BaseName).Msg("skipping set without image")
			failed++
			continue
		}
		image, err := os.ReadFile(path) // #nosec G304 -- path confined by the store
		if err != nil {
			logger.Warn().Err(err).Str("base", set.BaseName).Msg("failed to read image")
			failed++
			continue
		}

		// GenerateCaption applies vocabulary normalization before returning.
		caption, err := flow.GenerateCaption(ctx, set.ImageFile, image)
		if err != nil {
			logger.Warn().Err(err).Str("base", set.BaseName).Msg("caption generation failed")
			failed++
			continue
		}

		if *dryRun {
			fmt.Printf("%s: %s\n", set.BaseName, caption)
			done++
			continue
		}

		backedUp, err := st.BackupCaption(set.BaseName)
		if err != nil {
			logger.Warn().Err(err).Str("base", set.BaseName).Msg("failed to back up caption")
			failed++
			continue
		}
		if err := st.UpdateCaption(set.BaseName, caption); err != nil {
			logger.Warn().Err(err).Str("base", set.BaseName).Msg("failed to write caption")
			failed++
			continue
		}
		logger.Info().
			Str("event", "recaption.updated").
			Str("base", set.BaseName).
			Bool("backed_up", backedUp).
			Int("length", len(caption)).
			Msg("caption regenerated")
		done++
	}

	logger.Info().
		Str("event", "recaption.complete").
		Int("updated", done).
		Int("failed", failed).
		Int("total", len(sets)).
		Msg("batch re-caption finished")
	if failed > 0 {
		os.Exit(1)
	}
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
