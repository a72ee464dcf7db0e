// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duskrow/playafinder/internal/middleware"
)

// NewRouter wires the full HTTP surface. The middleware order matters:
// request IDs come first so every later log line carries them, and the
// rate limiter sits inside the API route group so health probes and
// metrics scrapes are never throttled.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.Security.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(
			h.config.Security.RateLimitReqs,
			h.config.Security.RateLimitWindow,
		))
		r.Use(middleware.PrometheusMetrics)

		r.Post("/recommend", h.Recommend)
		r.Get("/events/{id}", h.GetEvent)
	})

	return r
}
