// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package config defines the application configuration and loads it with
// Koanf v2 from three layers, in increasing precedence: built-in defaults,
// an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Data      DataConfig      `koanf:"data"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Rerank    RerankConfig    `koanf:"rerank"`
	Recommend RecommendConfig `koanf:"recommend"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	// Level: trace, debug, info, warn, error, fatal, panic.
	Level string `koanf:"level"`
	// Format: json or console.
	Format string `koanf:"format"`
	// Caller includes file:line in every log entry.
	Caller bool `koanf:"caller"`
}

// DataConfig locates the event corpus and its precomputed embeddings, and
// controls periodic reloads.
type DataConfig struct {
	EventsPath     string `koanf:"events_path"`
	EmbeddingsPath string `koanf:"embeddings_path"`
	// ReloadInterval enables periodic corpus reloads when > 0. SIGHUP
	// always triggers a reload regardless of this setting.
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// EmbeddingConfig configures the query embedding provider.
type EmbeddingConfig struct {
	URL        string        `koanf:"url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
}

// RerankConfig configures the optional LLM rerank pass.
type RerankConfig struct {
	Enabled    bool          `koanf:"enabled"`
	URL        string        `koanf:"url"`
	APIKey     string        `koanf:"api_key"`
	Model      string        `koanf:"model"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	// TopN bounds the candidate window sent to the model.
	TopN int `koanf:"top_n"`
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	DefaultResults  int `koanf:"default_results"`
	MaxResults      int `koanf:"max_results"`
	OverfetchFactor int `koanf:"overfetch_factor"`
}

// RefreshConfig configures the external corpus-refresh trigger. When NATS
// is enabled, a message on the subject causes a corpus reload.
type RefreshConfig struct {
	NATSEnabled bool   `koanf:"nats_enabled"`
	NATSURL     string `koanf:"nats_url"`
	Subject     string `koanf:"subject"`
}

// SecurityConfig configures the request-facing protections.
type SecurityConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Validate checks cross-field consistency. It runs once at startup; a
// failure here is fatal.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Data.EventsPath == "" {
		return fmt.Errorf("data.events_path is required")
	}
	if c.Data.EmbeddingsPath == "" {
		return fmt.Errorf("data.embeddings_path is required")
	}
	if c.Data.ReloadInterval < 0 {
		return fmt.Errorf("data.reload_interval must not be negative, got %s", c.Data.ReloadInterval)
	}

	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Embedding.MaxRetries < 1 {
		return fmt.Errorf("embedding.max_retries must be at least 1, got %d", c.Embedding.MaxRetries)
	}

	if c.Rerank.Enabled {
		if c.Rerank.APIKey == "" {
			return fmt.Errorf("rerank.api_key is required when rerank is enabled")
		}
		if c.Rerank.TopN < 1 {
			return fmt.Errorf("rerank.top_n must be at least 1, got %d", c.Rerank.TopN)
		}
	}

	if c.Recommend.DefaultResults < 1 {
		return fmt.Errorf("recommend.default_results must be at least 1, got %d", c.Recommend.DefaultResults)
	}
	if c.Recommend.MaxResults < c.Recommend.DefaultResults {
		return fmt.Errorf("recommend.max_results (%d) must be >= default_results (%d)",
			c.Recommend.MaxResults, c.Recommend.DefaultResults)
	}
	if c.Recommend.OverfetchFactor < 1 {
		return fmt.Errorf("recommend.overfetch_factor must be at least 1, got %d", c.Recommend.OverfetchFactor)
	}

	if c.Refresh.NATSEnabled {
		if c.Refresh.NATSURL == "" {
			return fmt.Errorf("refresh.nats_url is required when refresh.nats_enabled is true")
		}
		if c.Refresh.Subject == "" {
			return fmt.Errorf("refresh.subject is required when refresh.nats_enabled is true")
		}
	}

	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
	}

	return nil
}

// Addr returns the host:port the HTTP server binds.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
