// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package main is the entry point for the Playafinder server.
//
// Playafinder answers free-text queries ("where can I dance on Thursday
// night?") against a festival event corpus. Events are matched semantically
// through precomputed embeddings, filtered by the weekday and time-of-day
// intent found in the query, optionally reordered by an LLM, and returned
// ranked.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered from defaults, config.yaml, env vars
//  2. Logging: zerolog, JSON by default
//  3. Corpus: events.json + embeddings.json loaded into an immutable
//     in-memory snapshot; a load failure at startup is fatal
//  4. Clients: embedding provider and optional reranker, each behind a
//     circuit breaker
//  5. Supervisor tree: HTTP server plus the corpus reload triggers
//
// # Corpus reloads
//
// The corpus can be refreshed without restarting:
//   - SIGHUP always triggers a reload
//   - DATA_RELOAD_INTERVAL enables a periodic reload
//   - REFRESH_NATS_ENABLED subscribes to collector notifications
//
// A failed reload logs the error and keeps serving the previous snapshot.
//
// # Signal handling
//
// SIGINT and SIGTERM shut the tree down gracefully: the HTTP server stops
// accepting connections and in-flight requests get 10 seconds to finish.
//
// # Example
//
//	export EMBEDDING_API_KEY=sk-...
//	export EVENTS_PATH=/data/events.json
//	export EMBEDDINGS_PATH=/data/embeddings.json
//	./playafinder
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duskrow/playafinder/internal/api"
	"github.com/duskrow/playafinder/internal/config"
	"github.com/duskrow/playafinder/internal/corpus"
	"github.com/duskrow/playafinder/internal/embedding"
	"github.com/duskrow/playafinder/internal/logging"
	"github.com/duskrow/playafinder/internal/recommend"
	"github.com/duskrow/playafinder/internal/rerank"
	"github.com/duskrow/playafinder/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config is not available yet; the default logger has to do.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("events_path", cfg.Data.EventsPath).
		Str("embeddings_path", cfg.Data.EmbeddingsPath).
		Str("embedding_model", cfg.Embedding.Model).
		Bool("rerank_enabled", cfg.Rerank.Enabled).
		Msg("Starting Playafinder")

	// Load the corpus once. No snapshot means no service.
	loaderCfg := corpus.LoaderConfig{
		EventsPath:     cfg.Data.EventsPath,
		EmbeddingsPath: cfg.Data.EmbeddingsPath,
	}
	snapshot, err := corpus.Load(loaderCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load event corpus")
	}
	store := corpus.NewStore(snapshot)
	logging.Info().Int("events", snapshot.Len()).Msg("Event corpus loaded")

	embedder := embedding.NewClient(embedding.ClientConfig{
		URL:        cfg.Embedding.URL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Timeout:    cfg.Embedding.Timeout,
		MaxRetries: cfg.Embedding.MaxRetries,
	})

	var reranker rerank.Reranker
	if cfg.Rerank.Enabled {
		reranker = rerank.NewClient(rerank.ClientConfig{
			URL:        cfg.Rerank.URL,
			APIKey:     cfg.Rerank.APIKey,
			Model:      cfg.Rerank.Model,
			Timeout:    cfg.Rerank.Timeout,
			MaxRetries: cfg.Rerank.MaxRetries,
		})
	}

	engine, err := recommend.NewEngine(&recommend.Config{
		DefaultResults:  cfg.Recommend.DefaultResults,
		MaxResults:      cfg.Recommend.MaxResults,
		OverfetchFactor: cfg.Recommend.OverfetchFactor,
		RerankEnabled:   cfg.Rerank.Enabled,
		RerankTopN:      cfg.Rerank.TopN,
	}, store, embedder, reranker, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	handler := api.NewHandler(engine, cfg)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	reload := func() error { return corpus.Reload(store, loaderCfg) }
	tree.AddDataService(supervisor.NewReloadService(reload, cfg.Data.ReloadInterval, logging.Logger()))
	if cfg.Refresh.NATSEnabled {
		tree.AddDataService(supervisor.NewRefreshSubscriber(
			cfg.Refresh.NATSURL, cfg.Refresh.Subject, reload, logging.Logger()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("Shutdown complete")
}
