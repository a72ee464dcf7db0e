// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package recommend

import (
	"fmt"
)

// Config contains the tunable knobs of the recommendation pipeline.
// The over-fetch factor and rerank window are deliberately configuration,
// not constants: they trade recall against upstream cost and have no single
// correct value.
type Config struct {
	// DefaultResults is used when a request does not specify max_results.
	DefaultResults int `json:"default_results" koanf:"default_results"`

	// MaxResults is the hard cap on results per request.
	MaxResults int `json:"max_results" koanf:"max_results"`

	// OverfetchFactor multiplies the requested result count for the index
	// probe so filtering, deduplication, and reranking have enough material.
	OverfetchFactor int `json:"overfetch_factor" koanf:"overfetch_factor"`

	// RerankEnabled turns the LLM reranking pass on.
	RerankEnabled bool `json:"rerank_enabled" koanf:"rerank_enabled"`

	// RerankTopN bounds the candidate window sent to the rerank model.
	RerankTopN int `json:"rerank_top_n" koanf:"rerank_top_n"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultResults:  5,
		MaxResults:      50,
		OverfetchFactor: 4,
		RerankEnabled:   false,
		RerankTopN:      50,
	}
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.DefaultResults < 1 {
		return fmt.Errorf("default_results must be >= 1, got %d", c.DefaultResults)
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("max_results must be >= 1, got %d", c.MaxResults)
	}
	if c.DefaultResults > c.MaxResults {
		return fmt.Errorf("default_results %d exceeds max_results %d", c.DefaultResults, c.MaxResults)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be >= 1, got %d", c.OverfetchFactor)
	}
	if c.RerankTopN < 1 {
		return fmt.Errorf("rerank_top_n must be >= 1, got %d", c.RerankTopN)
	}
	return nil
}
