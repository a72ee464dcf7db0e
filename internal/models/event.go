// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package models defines the data structures shared across Playafinder:
// the event corpus records produced by the offline collector and the
// request/response types of the HTTP API.
package models

// EventTime represents a single event occurrence with date and time span.
//
// Dates and times are kept as strings to mirror the source JSON exactly.
// An occurrence whose end precedes its start wraps past midnight.
type EventTime struct {
	// Date in MM/DD/YYYY format.
	Date string `json:"date"`

	// StartTime in HH:MM 24-hour format.
	StartTime string `json:"start_time"`

	// EndTime in HH:MM 24-hour format.
	EndTime string `json:"end_time"`
}

// Event is an immutable corpus record matching the structure the offline
// collector writes to events.json. Events may recur across multiple calendar
// occurrences (Times).
type Event struct {
	// ID is the stable unique identifier assigned by the collector.
	ID string `json:"id"`

	// Title is the event name. May be empty in older corpus snapshots.
	Title string `json:"title,omitempty"`

	// Times lists every calendar occurrence of the event.
	Times []EventTime `json:"times"`

	// Type is the event category (e.g. "Music/Party", "Class/Workshop").
	Type string `json:"type"`

	// Camp is the hosting camp name.
	Camp string `json:"camp"`

	// CampURL links to the camp's listing when known.
	CampURL string `json:"campurl,omitempty"`

	// Location is the human-readable placement string.
	Location string `json:"location"`

	// Description is the free-text event description.
	Description string `json:"description"`

	// Latitude and Longitude are resolved from the camp placement when the
	// collector could geocode it; both are omitted otherwise.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// RecommendationRequest is the request body for POST /api/v1/recommend.
type RecommendationRequest struct {
	// Query is the free-text query to match events against.
	Query string `json:"query" validate:"required"`

	// MaxResults bounds the number of returned events. Zero selects the
	// configured default.
	MaxResults int `json:"max_results" validate:"min=0,max=50"`
}

// RecommendationResponse is the response body for POST /api/v1/recommend.
type RecommendationResponse struct {
	// Events is the ranked, deduplicated result list (best match first).
	Events []Event `json:"events"`

	// Query echoes the request query.
	Query string `json:"query"`

	// ProcessingTimeMS is the end-to-end pipeline time in milliseconds.
	ProcessingTimeMS float64 `json:"processing_time_ms"`

	// Rationale is a short explanation produced by the reranker, when
	// reranking is enabled and succeeded. Omitted otherwise.
	Rationale string `json:"rationale,omitempty"`
}
