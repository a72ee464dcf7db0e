// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playafinder/config.yaml",
	"/etc/playafinder/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults filled in. These are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Data: DataConfig{
			EventsPath:     "/data/events.json",
			EmbeddingsPath: "/data/embeddings.json",
			ReloadInterval: 0, // periodic reload off; SIGHUP still works
		},
		Embedding: EmbeddingConfig{
			URL:        "https://api.openai.com/v1/embeddings",
			APIKey:     "",
			Model:      "text-embedding-3-large",
			Timeout:    60 * time.Second,
			MaxRetries: 5,
		},
		Rerank: RerankConfig{
			Enabled:    false, // opt-in: adds an LLM round-trip per request
			URL:        "https://api.openai.com/v1/chat/completions",
			APIKey:     "",
			Model:      "gpt-4o-mini",
			Timeout:    30 * time.Second,
			MaxRetries: 2,
			TopN:       50,
		},
		Recommend: RecommendConfig{
			DefaultResults:  5,
			MaxResults:      50,
			OverfetchFactor: 4,
		},
		Refresh: RefreshConfig{
			NATSEnabled: false,
			NATSURL:     "nats://127.0.0.1:4222",
			Subject:     "playafinder.corpus.refreshed",
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
	}
}

// Load builds the configuration from the three layers:
//  1. built-in defaults
//  2. optional YAML config file
//  3. environment variables (highest priority)
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// EMBEDDING_API_KEY -> embedding.api_key, HTTP_PORT -> server.port, etc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Both providers usually share one account key.
	if cfg.Rerank.APIKey == "" {
		cfg.Rerank.APIKey = cfg.Embedding.APIKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for known
// slice fields. Env vars come in as strings; YAML values are already slices
// and pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so stray environment
// variables cannot pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Data
		"events_path":          "data.events_path",
		"embeddings_path":      "data.embeddings_path",
		"data_reload_interval": "data.reload_interval",

		// Embedding provider
		"embedding_url":         "embedding.url",
		"embedding_api_key":     "embedding.api_key",
		"embedding_model":       "embedding.model",
		"embedding_timeout":     "embedding.timeout",
		"embedding_max_retries": "embedding.max_retries",
		// OPENAI_API_KEY is the conventional name; it feeds both providers
		// unless a more specific variable overrides it.
		"openai_api_key": "embedding.api_key",

		// Rerank provider
		"rerank_enabled":     "rerank.enabled",
		"rerank_url":         "rerank.url",
		"rerank_api_key":     "rerank.api_key",
		"rerank_model":       "rerank.model",
		"rerank_timeout":     "rerank.timeout",
		"rerank_max_retries": "rerank.max_retries",
		"rerank_top_n":       "rerank.top_n",

		// Recommendation pipeline
		"recommend_default_results":  "recommend.default_results",
		"recommend_max_results":      "recommend.max_results",
		"recommend_overfetch_factor": "recommend.overfetch_factor",

		// Corpus refresh trigger
		"refresh_nats_enabled": "refresh.nats_enabled",
		"refresh_nats_url":     "refresh.nats_url",
		"refresh_subject":      "refresh.subject",

		// Security
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"cors_origins":        "security.cors_origins",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
