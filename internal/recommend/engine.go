// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package recommend composes the recommendation pipeline:
//
//	parse query -> embed -> vector search -> temporal filter -> [rerank] -> dedupe & cap
//
// The engine owns the partial-failure policy: an embedding-provider failure
// aborts the request (no results are possible without a query vector), while
// any rerank failure degrades silently to the pre-rerank ordering. The
// corpus snapshot is read through the store once per request, so a reload
// mid-request cannot mix two corpus generations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/duskrow/playafinder/internal/corpus"
	"github.com/duskrow/playafinder/internal/embedding"
	"github.com/duskrow/playafinder/internal/metrics"
	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/rerank"
	"github.com/duskrow/playafinder/internal/temporal"
)

// ErrEmptyQuery indicates a blank or whitespace-only query. It maps to a
// user-facing validation error, not a service failure.
var ErrEmptyQuery = errors.New("query must not be empty")

// StageError marks a failure in a mandatory pipeline stage. The stage name
// gives the HTTP layer and logs enough context to attribute the failure.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Request is one recommendation query.
type Request struct {
	// Query is the free-text input.
	Query string

	// MaxResults bounds the result count; zero selects the configured
	// default and values above the configured maximum are clamped.
	MaxResults int
}

// Engine runs the recommendation pipeline. It is stateless per request and
// safe for concurrent use: all shared data lives in the immutable corpus
// snapshot.
type Engine struct {
	config   *Config
	store    *corpus.Store
	embedder embedding.Provider
	reranker rerank.Reranker
	logger   zerolog.Logger
}

// NewEngine creates an engine. The reranker may be nil; it is only used
// when the config enables reranking.
func NewEngine(cfg *Config, store *corpus.Store, embedder embedding.Provider, reranker rerank.Reranker, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, errors.New("corpus store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedding provider is required")
	}
	if cfg.RerankEnabled && reranker == nil {
		return nil, errors.New("rerank enabled but no reranker configured")
	}

	return &Engine{
		config:   cfg,
		store:    store,
		embedder: embedder,
		reranker: reranker,
		logger:   logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// GetEvent looks up a single event by ID in the active snapshot.
func (e *Engine) GetEvent(id string) (models.Event, bool) {
	return e.store.Snapshot().EventByID(id)
}

// CorpusSize returns the number of events in the active snapshot.
func (e *Engine) CorpusSize() int {
	return e.store.Snapshot().Len()
}

// Recommend runs the full pipeline for one query.
//
// Errors:
//   - ErrEmptyQuery for blank input
//   - *StageError{"embed"} when the embedding provider fails (retryable)
//
// An empty corpus is not an error; it yields an empty event list.
func (e *Engine) Recommend(ctx context.Context, req Request) (*models.RecommendationResponse, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		metrics.RecommendRequestsTotal.WithLabelValues("validation_error").Inc()
		return nil, ErrEmptyQuery
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = e.config.DefaultResults
	}
	if maxResults > e.config.MaxResults {
		maxResults = e.config.MaxResults
	}

	intent := temporal.ParseIntent(query)

	// Embed the raw query. This is the one upstream call without a soft-fail
	// path: no vector, no results.
	embedStart := time.Now()
	vector, err := e.embedder.Embed(ctx, query)
	metrics.ObserveStage("embed", time.Since(embedStart))
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("embed_error").Inc()
		return nil, &StageError{Stage: "embed", Err: err}
	}

	// Over-fetch so the later stages have enough material to discard from.
	snap := e.store.Snapshot()
	fetchK := maxResults * e.config.OverfetchFactor
	if e.config.RerankEnabled && e.config.RerankTopN > fetchK {
		fetchK = e.config.RerankTopN
	}

	searchStart := time.Now()
	hits := snap.Index().Search(vector, fetchK)
	metrics.ObserveStage("search", time.Since(searchStart))

	candidates := make([]models.Event, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, snap.EventAt(h.Index))
	}

	filterStart := time.Now()
	filtered := temporal.Filter(candidates, intent)
	metrics.ObserveStage("filter", time.Since(filterStart))

	rationale := ""
	if e.config.RerankEnabled && len(filtered) > 0 {
		filtered, rationale = e.rerankCandidates(ctx, query, filtered)
	}

	results := Dedupe(filtered)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	if results == nil {
		results = []models.Event{}
	}

	elapsed := time.Since(start)
	metrics.RecommendRequestsTotal.WithLabelValues("success").Inc()
	metrics.RecommendResultCount.Observe(float64(len(results)))

	e.logger.Debug().
		Str("query", query).
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Bool("weekday_intent", intent.HasWeekday()).
		Bool("bucket_intent", intent.HasBucket()).
		Dur("elapsed", elapsed).
		Msg("Recommendation pipeline completed")

	return &models.RecommendationResponse{
		Events:           results,
		Query:            req.Query,
		ProcessingTimeMS: float64(elapsed.Microseconds()) / 1000.0,
		Rationale:        rationale,
	}, nil
}

// rerankCandidates applies the optional rerank pass to the top-N window.
// Fail-soft by design: any error, timeout, or malformed model output falls
// back to the incoming ordering with no rationale, and the error is never
// surfaced to the caller.
func (e *Engine) rerankCandidates(ctx context.Context, query string, candidates []models.Event) ([]models.Event, string) {
	window := candidates
	if len(window) > e.config.RerankTopN {
		window = window[:e.config.RerankTopN]
	}

	rerankStart := time.Now()
	result, err := e.reranker.Rerank(ctx, query, window)
	metrics.ObserveStage("rerank", time.Since(rerankStart))
	if err != nil {
		metrics.RerankFallbacksTotal.Inc()
		e.logger.Warn().Err(err).Msg("Rerank failed, falling back to vector ordering")
		return candidates, ""
	}

	reordered := applyOrder(window, result.Order)
	// Candidates beyond the rerank window keep their relative position.
	reordered = append(reordered, candidates[len(window):]...)
	return reordered, result.Rationale
}

// applyOrder reorders window by the model's preferred ID sequence while
// preserving event identity: unknown IDs are ignored and window members the
// model omitted are appended in their original rank.
func applyOrder(window []models.Event, order []string) []models.Event {
	byID := make(map[string]int, len(window))
	for i, ev := range window {
		if _, exists := byID[ev.ID]; !exists {
			byID[ev.ID] = i
		}
	}

	out := make([]models.Event, 0, len(window))
	taken := make(map[string]bool, len(window))
	for _, id := range order {
		if i, ok := byID[id]; ok && !taken[id] {
			out = append(out, window[i])
			taken[id] = true
		}
	}
	for _, ev := range window {
		if !taken[ev.ID] {
			out = append(out, ev)
			taken[ev.ID] = true
		}
	}
	return out
}

// Dedupe removes duplicate event IDs, first occurrence wins, preserving
// order. It is idempotent: applying it to its own output is a no-op.
func Dedupe(events []models.Event) []models.Event {
	if len(events) == 0 {
		return events
	}

	seen := make(map[string]bool, len(events))
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	return out
}
