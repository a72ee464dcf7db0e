// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package main implements embedgen, the offline tool that precomputes event
// embeddings. It reads events.json, builds the canonical text for each
// event (title, type, camp, description, plus weekday and time-of-day
// summaries), embeds every text through the provider under a rate limit,
// L2-normalizes the vectors, and writes embeddings.json aligned by index
// with the input.
//
// The server never embeds corpus events itself; it only embeds queries.
// Run embedgen whenever the event feed changes, then signal the server to
// reload (SIGHUP or a NATS refresh notification).
//
//	export EMBEDDING_API_KEY=sk-...
//	embedgen -events events.json -out embeddings.json -rps 4
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/duskrow/playafinder/internal/embedding"
	"github.com/duskrow/playafinder/internal/logging"
	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/vectorindex"
)

func main() {
	eventsPath := flag.String("events", "events.json", "path to the event corpus")
	outPath := flag.String("out", "embeddings.json", "path to write the embeddings")
	model := flag.String("model", "text-embedding-3-large", "embedding model")
	rps := flag.Float64("rps", 4, "embedding requests per second")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Init(logging.Config{Level: *logLevel, Format: "console"})

	apiKey := os.Getenv("EMBEDDING_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		logging.Fatal().Msg("EMBEDDING_API_KEY (or OPENAI_API_KEY) is required")
	}

	events, err := readEvents(*eventsPath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", *eventsPath).Msg("Failed to read events")
	}
	logging.Info().Int("events", len(events)).Str("model", *model).Msg("Embedding corpus")

	client := embedding.NewClient(embedding.ClientConfig{
		APIKey: apiKey,
		Model:  *model,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	vectors, err := embedAll(ctx, client, events, *rps)
	if err != nil {
		logging.Fatal().Err(err).Msg("Embedding run failed")
	}

	if err := writeEmbeddings(*outPath, vectors); err != nil {
		logging.Fatal().Err(err).Str("path", *outPath).Msg("Failed to write embeddings")
	}
	logging.Info().Int("vectors", len(vectors)).Str("path", *outPath).Msg("Embeddings written")
}

func readEvents(path string) ([]models.Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// embedAll embeds every event text under the rate limit. Vectors are
// normalized here so the server can use raw dot products.
func embedAll(ctx context.Context, client *embedding.Client, events []models.Event, rps float64) ([][]float32, error) {
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	vectors := make([][]float32, 0, len(events))

	start := time.Now()
	for i := range events {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		vec, err := client.Embed(ctx, embedding.BuildEventText(&events[i]))
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vectorindex.Normalize(vec))

		if (i+1)%100 == 0 {
			logging.Info().
				Int("done", i+1).
				Int("total", len(events)).
				Dur("elapsed", time.Since(start)).
				Msg("Progress")
		}
	}

	return vectors, nil
}

func writeEmbeddings(path string, vectors [][]float32) error {
	data, err := json.Marshal(vectors)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
