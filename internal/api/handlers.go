// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package api provides the HTTP surface: the recommendation and event
// endpoints, health probes, and the Prometheus metrics endpoint, routed
// with Chi.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/duskrow/playafinder/internal/config"
	"github.com/duskrow/playafinder/internal/logging"
	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/recommend"
)

// Handler carries the dependencies for all API handlers.
type Handler struct {
	engine    *recommend.Engine
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(engine *recommend.Engine, cfg *config.Config) *Handler {
	return &Handler{
		engine:    engine,
		config:    cfg,
		startTime: time.Now(),
	}
}

// Recommend handles POST /api/v1/recommend. The request body carries the
// free-text query and an optional max_results; the response contains the
// ranked events plus pipeline timing.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "Request body must be valid JSON", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, http.StatusBadRequest, apiErr)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		Query:      req.Query,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		h.respondRecommendError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: resp.ProcessingTimeMS,
		},
	})
}

// respondRecommendError maps pipeline errors onto the API error taxonomy.
func (h *Handler) respondRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, recommend.ErrEmptyQuery) {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "Query must not be empty", nil)
		return
	}

	var stageErr *recommend.StageError
	if errors.As(err, &stageErr) {
		logging.Ctx(r.Context()).Error().
			Err(stageErr.Err).
			Str("stage", stageErr.Stage).
			Msg("Recommendation pipeline stage failed")
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeServiceUnavailable,
			"The recommendation service is temporarily unavailable, please retry", nil)
		return
	}

	respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Internal server error", err)
}

// GetEvent handles GET /api/v1/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "Event ID is required", nil)
		return
	}

	event, ok := h.engine.GetEvent(id)
	if !ok {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "Event not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     event,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive handles GET /healthz/live: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status": "alive",
			"uptime": time.Since(h.startTime).String(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /healthz/ready: the corpus is loaded and the
// service can answer queries. An empty corpus is still ready; it answers
// with empty result sets.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":        "ready",
			"corpus_events": h.engine.CorpusSize(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
