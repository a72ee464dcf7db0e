// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/duskrow/playafinder/internal/logging"
	"github.com/duskrow/playafinder/internal/metrics"
)

// Provider produces an embedding vector for arbitrary text. It is satisfied
// by *Client and by test fakes.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ClientConfig configures the embeddings HTTP client.
type ClientConfig struct {
	// URL is the embeddings endpoint (OpenAI-compatible).
	URL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts before giving up.
	MaxRetries int

	// InitialBackoff is the delay before the second attempt; it doubles per
	// retry and is capped at 30s.
	InitialBackoff time.Duration
}

// Client calls an OpenAI-compatible embeddings endpoint. Calls retry with
// exponential backoff and are wrapped in a circuit breaker so a dead
// provider sheds load quickly instead of queueing timeouts.
type Client struct {
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]float32]
	cfg        ClientConfig
}

// NewClient creates an embeddings client.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 5 requests
func NewClient(cfg ClientConfig) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://api.openai.com/v1/embeddings"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-large"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         newBreaker("embedding-provider"),
		cfg:        cfg,
	}
}

// newBreaker builds a circuit breaker with state metrics wired in.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]float32] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// embeddingRequest is the provider wire format.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed produces an embedding vector for the given text. Transient failures
// are retried with exponential backoff; the context deadline is honored
// between attempts. The returned vector is NOT normalized; callers decide
// whether normalization is needed.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	backoff := c.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > 30*time.Second {
				backoff = 30 * time.Second
			}
		}

		vec, err := c.cb.Execute(func() ([]float32, error) {
			return c.embedOnce(ctx, text)
		})
		if err == nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues("success").Inc()
			return vec, nil
		}

		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.EmbeddingRequestsTotal.WithLabelValues("rejected").Inc()
			// No point retrying while the breaker is open.
			return nil, fmt.Errorf("embedding provider unavailable: %w", err)
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Int("attempt", attempt+1).Msg("Embedding call failed")
	}

	return nil, fmt.Errorf("embedding provider failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// embedOnce performs a single HTTP attempt.
func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post embeddings: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fmt.Errorf("embeddings endpoint returned status %d", resp.StatusCode)
	}

	var payload embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Data) == 0 || len(payload.Data[0].Embedding) == 0 {
		return nil, errors.New("embeddings response contained no vector")
	}

	return payload.Data[0].Embedding, nil
}
