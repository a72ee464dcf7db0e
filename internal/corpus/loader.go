// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package corpus

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/duskrow/playafinder/internal/logging"
	"github.com/duskrow/playafinder/internal/metrics"
	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/vectorindex"
)

// LoaderConfig names the corpus input files.
type LoaderConfig struct {
	// EventsPath is the events JSON file written by the offline collector.
	EventsPath string

	// EmbeddingsPath is the embedding vectors JSON file written by
	// cmd/embedgen, index-aligned with the events file.
	EmbeddingsPath string
}

// Load reads the corpus files, validates alignment, and builds a complete
// snapshot. Any error here is fatal at startup: serving against a corrupt or
// misaligned index is worse than not serving.
func Load(cfg LoaderConfig) (*Snapshot, error) {
	events, err := loadEvents(cfg.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	vectors, err := loadEmbeddings(cfg.EmbeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	// The embedding at position i must describe the event at position i.
	// A length mismatch means the files are from different corpus builds.
	if len(events) != len(vectors) {
		return nil, fmt.Errorf("corpus mismatch: %d events but %d embeddings", len(events), len(vectors))
	}

	// The index's inner product is only a cosine similarity over unit
	// vectors, so normalize even if the batch job already did.
	for i := range vectors {
		vectors[i] = vectorindex.Normalize(vectors[i])
	}

	index, err := vectorindex.New(vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	snap := NewSnapshot(events, index)

	metrics.CorpusEvents.Set(float64(snap.Len()))
	metrics.CorpusLoadedAt.Set(float64(snap.LoadedAt().Unix()))
	logging.Info().
		Int("events", snap.Len()).
		Int("dimension", index.Dim()).
		Str("events_path", cfg.EventsPath).
		Msg("Corpus snapshot loaded")

	return snap, nil
}

// Reload builds a fresh snapshot and swaps it into the store. In-flight
// queries continue against the snapshot they started with.
func Reload(store *Store, cfg LoaderConfig) error {
	snap, err := Load(cfg)
	if err != nil {
		metrics.CorpusReloadsTotal.WithLabelValues("error").Inc()
		return err
	}

	old := store.Swap(snap)
	metrics.CorpusReloadsTotal.WithLabelValues("success").Inc()
	logging.Info().
		Int("events", snap.Len()).
		Int("previous_events", old.Len()).
		Msg("Corpus snapshot swapped")
	return nil
}

func loadEvents(path string) ([]models.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i := range events {
		if events[i].ID == "" {
			return nil, fmt.Errorf("event %d has no id", i)
		}
	}
	return events, nil
}

func loadEmbeddings(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var vectors [][]float32
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return vectors, nil
}
