// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package rerank reorders a bounded candidate window using an external chat
// model and produces a short rationale for the match.
//
// The package only performs the model call. The fail-soft policy — falling
// back to the pre-rerank ordering on ANY failure — lives in the
// recommendation engine, which is the component that owns the ordering.
package rerank

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/duskrow/playafinder/internal/logging"
	"github.com/duskrow/playafinder/internal/metrics"
	"github.com/duskrow/playafinder/internal/models"
)

// Reranker reorders candidates for a query. Implemented by *Client and by
// test fakes.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []models.Event) (*Result, error)
}

// Result is the model's preferred ordering plus a short rationale.
type Result struct {
	// Order lists candidate IDs from best to worst match. It may be a
	// subset of the input; the engine restores identity.
	Order []string

	// Rationale is a one-to-two sentence explanation of the match.
	Rationale string
}

// ClientConfig configures the rerank HTTP client.
type ClientConfig struct {
	// URL is the chat-completions endpoint (OpenAI-compatible).
	URL string

	// APIKey is sent as a bearer token.
	APIKey string

	// Model is the chat model identifier.
	Model string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts before giving up.
	MaxRetries int

	// InitialBackoff is the delay before the second attempt, doubling per
	// retry, capped at 30s.
	InitialBackoff time.Duration
}

// descriptionLimit truncates candidate descriptions in the prompt to keep it
// compact; 240 characters is enough for the model to judge relevance.
const descriptionLimit = 240

const systemPrompt = "You are a helpful assistant that re-ranks festival event candidates. " +
	"Given a user query and a list of events, respond with a JSON object containing " +
	"\"order\": the event ids sorted from best to worst match, and " +
	"\"rationale\": one or two sentences explaining why the top events fit the query. " +
	"Respond with JSON only."

// Client calls an OpenAI-compatible chat-completions endpoint and parses the
// strict-JSON reordering it requests from the model.
type Client struct {
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*Result]
	cfg        ClientConfig
}

// NewClient creates a rerank client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.URL == "" {
		cfg.URL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues("rerank-provider").Set(0)

	cb := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "rerank-provider",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
		cfg:        cfg,
	}
}

// promptCandidate is the compact candidate representation sent to the model.
type promptCandidate struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Camp        string `json:"camp"`
	Description string `json:"description"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// modelOutput is the strict JSON shape requested from the model.
type modelOutput struct {
	Order     []string `json:"order"`
	Rationale string   `json:"rationale"`
}

// Rerank asks the model to reorder the candidates for the query. Errors are
// returned to the caller; the engine decides how to degrade.
func (c *Client) Rerank(ctx context.Context, query string, candidates []models.Event) (*Result, error) {
	if len(candidates) == 0 {
		return &Result{}, nil
	}

	compact := make([]promptCandidate, len(candidates))
	for i, ev := range candidates {
		desc := truncateRunes(ev.Description, descriptionLimit)
		compact[i] = promptCandidate{
			ID:          ev.ID,
			Title:       ev.Title,
			Type:        ev.Type,
			Camp:        ev.Camp,
			Description: desc,
		}
	}

	userContent, err := json.Marshal(map[string]interface{}{
		"query":      query,
		"candidates": compact,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

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

		result, err := c.cb.Execute(func() (*Result, error) {
			return c.rerankOnce(ctx, string(userContent))
		})
		if err == nil {
			metrics.RerankRequestsTotal.WithLabelValues("success").Inc()
			return result, nil
		}

		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RerankRequestsTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("rerank provider unavailable: %w", err)
		}
		metrics.RerankRequestsTotal.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Int("attempt", attempt+1).Msg("Rerank call failed")
	}

	return nil, fmt.Errorf("rerank provider failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// rerankOnce performs a single HTTP attempt and validates the model output.
func (c *Client) rerankOnce(ctx context.Context, userContent string) (*Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature: 0.0,
	})
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
		return nil, fmt.Errorf("post chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fmt.Errorf("chat endpoint returned status %d", resp.StatusCode)
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return nil, errors.New("chat response contained no choices")
	}

	content := strings.TrimSpace(payload.Choices[0].Message.Content)
	content = stripCodeFence(content)

	var out modelOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if len(out.Order) == 0 {
		return nil, errors.New("model output contained no ordering")
	}

	return &Result{
		Order:     out.Order,
		Rationale: TrimRationale(out.Rationale),
	}, nil
}

// truncateRunes shortens s to at most limit bytes without splitting a
// multi-byte rune, so the truncated text stays valid UTF-8 in the prompt.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// stripCodeFence removes a surrounding markdown code fence, which chat
// models sometimes add despite JSON-only instructions.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// TrimRationale bounds a rationale to at most two sentences and ensures it
// ends with a period.
func TrimRationale(rationale string) string {
	flat := strings.Join(strings.Fields(rationale), " ")
	if flat == "" {
		return ""
	}

	var sentences []string
	for _, s := range strings.Split(flat, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
		if len(sentences) == 2 {
			break
		}
	}
	if len(sentences) == 0 {
		return ""
	}
	return strings.Join(sentences, ". ") + "."
}
