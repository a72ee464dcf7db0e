// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/duskrow/playafinder/internal/corpus"
	"github.com/duskrow/playafinder/internal/models"
	"github.com/duskrow/playafinder/internal/rerank"
	"github.com/duskrow/playafinder/internal/vectorindex"
)

// fakeEmbedder returns a fixed vector or a fixed error.
type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeReranker returns a canned result or error and records its input.
type fakeReranker struct {
	result *rerank.Result
	err    error
	calls  int
	gotIDs []string
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, candidates []models.Event) (*rerank.Result, error) {
	f.calls++
	f.gotIDs = f.gotIDs[:0]
	for _, ev := range candidates {
		f.gotIDs = append(f.gotIDs, ev.ID)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// testCorpus builds a store whose events are ordered by similarity to the
// query vector {1, 0}: event i has vector angle increasing with i, so a
// search for {1, 0} returns events in ID order ev-0, ev-1, ...
func testCorpus(t *testing.T, n int) *corpus.Store {
	t.Helper()

	events := make([]models.Event, n)
	vectors := make([][]float32, n)
	for i := range events {
		events[i] = models.Event{
			ID:    eventID(i),
			Title: "Event " + eventID(i),
			Times: []models.EventTime{
				{Date: "08/28/2025", StartTime: "22:00", EndTime: "23:30"},
			},
		}
		// Decreasing first component keeps the similarity order strict.
		vectors[i] = vectorindex.Normalize([]float32{float32(n - i), 1})
	}

	index, err := vectorindex.New(vectors)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return corpus.NewStore(corpus.NewSnapshot(events, index))
}

func eventID(i int) string {
	return "ev-" + string(rune('a'+i))
}

func newTestEngine(t *testing.T, cfg *Config, store *corpus.Store, emb *fakeEmbedder, rr *fakeReranker) *Engine {
	t.Helper()

	var reranker rerank.Reranker
	if rr != nil {
		reranker = rr
	}
	eng, err := NewEngine(cfg, store, emb, reranker, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return eng
}

func TestRecommendRanksBySimilarity(t *testing.T) {
	store := testCorpus(t, 6)
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	eng := newTestEngine(t, nil, store, emb, nil)

	resp, err := eng.Recommend(context.Background(), Request{Query: "deep house", MaxResults: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	want := []string{"ev-a", "ev-b", "ev-c"}
	if len(resp.Events) != len(want) {
		t.Fatalf("got %d events, want %d", len(resp.Events), len(want))
	}
	for i, id := range want {
		if resp.Events[i].ID != id {
			t.Errorf("event[%d] = %q, want %q", i, resp.Events[i].ID, id)
		}
	}
	if resp.ProcessingTimeMS < 0 {
		t.Errorf("ProcessingTimeMS = %v, want >= 0", resp.ProcessingTimeMS)
	}
	if resp.Query != "deep house" {
		t.Errorf("Query = %q, want original query echoed", resp.Query)
	}
}

func TestRecommendEmptyQuery(t *testing.T) {
	store := testCorpus(t, 2)
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	eng := newTestEngine(t, nil, store, emb, nil)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := eng.Recommend(context.Background(), Request{Query: query})
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Recommend(%q) error = %v, want ErrEmptyQuery", query, err)
		}
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for empty queries, want 0", emb.calls)
	}
}

func TestRecommendEmbedFailure(t *testing.T) {
	store := testCorpus(t, 2)
	upstream := errors.New("provider unavailable")
	eng := newTestEngine(t, nil, store, &fakeEmbedder{err: upstream}, nil)

	_, err := eng.Recommend(context.Background(), Request{Query: "music"})
	if err == nil {
		t.Fatal("Recommend() error = nil, want stage error")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if stageErr.Stage != "embed" {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, "embed")
	}
	if !errors.Is(err, upstream) {
		t.Error("stage error does not wrap the provider error")
	}
}

func TestRecommendEmptyCorpus(t *testing.T) {
	index, err := vectorindex.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	store := corpus.NewStore(corpus.NewSnapshot(nil, index))
	eng := newTestEngine(t, nil, store, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	resp, err := eng.Recommend(context.Background(), Request{Query: "anything"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Events == nil {
		t.Error("Events is nil, want empty slice")
	}
	if len(resp.Events) != 0 {
		t.Errorf("got %d events from empty corpus, want 0", len(resp.Events))
	}
}

func TestRecommendMaxResultsBounds(t *testing.T) {
	store := testCorpus(t, 10)
	emb := &fakeEmbedder{vector: []float32{1, 0}}

	cfg := DefaultConfig()
	cfg.DefaultResults = 4
	cfg.MaxResults = 6
	eng := newTestEngine(t, cfg, store, emb, nil)

	tests := []struct {
		name       string
		maxResults int
		want       int
	}{
		{"zero uses default", 0, 4},
		{"negative uses default", -3, 4},
		{"explicit within bounds", 2, 2},
		{"above maximum is clamped", 50, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := eng.Recommend(context.Background(), Request{Query: "q", MaxResults: tt.maxResults})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(resp.Events) != tt.want {
				t.Errorf("got %d events, want %d", len(resp.Events), tt.want)
			}
		})
	}
}

func TestRecommendTemporalFilter(t *testing.T) {
	// ev-a is the best vector match but runs Thursday morning; ev-b runs
	// Thursday night. A "thursday night" query must prefer ev-b.
	events := []models.Event{
		{ID: "ev-a", Times: []models.EventTime{{Date: "08/28/2025", StartTime: "09:00", EndTime: "11:00"}}},
		{ID: "ev-b", Times: []models.EventTime{{Date: "08/28/2025", StartTime: "22:00", EndTime: "23:30"}}},
	}
	vectors := [][]float32{
		vectorindex.Normalize([]float32{2, 1}),
		vectorindex.Normalize([]float32{1, 1}),
	}
	index, err := vectorindex.New(vectors)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	store := corpus.NewStore(corpus.NewSnapshot(events, index))
	eng := newTestEngine(t, nil, store, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	resp, err := eng.Recommend(context.Background(), Request{Query: "dancing thursday night", MaxResults: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Events) == 0 || resp.Events[0].ID != "ev-b" {
		t.Fatalf("first event = %v, want ev-b promoted by temporal filter", resp.Events)
	}
}

func TestRecommendRerankReorders(t *testing.T) {
	store := testCorpus(t, 4)
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	rr := &fakeReranker{result: &rerank.Result{
		Order:     []string{"ev-c", "ev-a"},
		Rationale: "Matched the vibe.",
	}}

	cfg := DefaultConfig()
	cfg.RerankEnabled = true
	eng := newTestEngine(t, cfg, store, emb, rr)

	resp, err := eng.Recommend(context.Background(), Request{Query: "q", MaxResults: 4})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rr.calls != 1 {
		t.Fatalf("reranker called %d times, want 1", rr.calls)
	}

	// Model order first, then omitted candidates in original rank.
	want := []string{"ev-c", "ev-a", "ev-b", "ev-d"}
	for i, id := range want {
		if resp.Events[i].ID != id {
			t.Errorf("event[%d] = %q, want %q", i, resp.Events[i].ID, id)
		}
	}
	if resp.Rationale != "Matched the vibe." {
		t.Errorf("Rationale = %q, want model rationale", resp.Rationale)
	}
}

func TestRecommendRerankFailSoft(t *testing.T) {
	store := testCorpus(t, 3)
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	rr := &fakeReranker{err: context.DeadlineExceeded}

	cfg := DefaultConfig()
	cfg.RerankEnabled = true
	eng := newTestEngine(t, cfg, store, emb, rr)

	resp, err := eng.Recommend(context.Background(), Request{Query: "q", MaxResults: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v, want fail-soft fallback", err)
	}

	want := []string{"ev-a", "ev-b", "ev-c"}
	for i, id := range want {
		if resp.Events[i].ID != id {
			t.Errorf("event[%d] = %q, want vector order %q", i, resp.Events[i].ID, id)
		}
	}
	if resp.Rationale != "" {
		t.Errorf("Rationale = %q, want empty after rerank failure", resp.Rationale)
	}
}

func TestRecommendRerankIgnoresUnknownIDs(t *testing.T) {
	store := testCorpus(t, 3)
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	rr := &fakeReranker{result: &rerank.Result{
		Order: []string{"ev-zzz", "ev-b", "ev-b"},
	}}

	cfg := DefaultConfig()
	cfg.RerankEnabled = true
	eng := newTestEngine(t, cfg, store, emb, rr)

	resp, err := eng.Recommend(context.Background(), Request{Query: "q", MaxResults: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	want := []string{"ev-b", "ev-a", "ev-c"}
	for i, id := range want {
		if resp.Events[i].ID != id {
			t.Errorf("event[%d] = %q, want %q", i, resp.Events[i].ID, id)
		}
	}
}

func TestRecommendRerankWindow(t *testing.T) {
	store := testCorpus(t, 8)
	emb := &fakeEmbedder{vector: []float32{1, 0}}
	rr := &fakeReranker{result: &rerank.Result{}}

	cfg := DefaultConfig()
	cfg.RerankEnabled = true
	cfg.RerankTopN = 5
	eng := newTestEngine(t, cfg, store, emb, rr)

	if _, err := eng.Recommend(context.Background(), Request{Query: "q", MaxResults: 8}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(rr.gotIDs) != 5 {
		t.Errorf("reranker saw %d candidates, want window of 5", len(rr.gotIDs))
	}
}

func TestGetEvent(t *testing.T) {
	store := testCorpus(t, 3)
	eng := newTestEngine(t, nil, store, &fakeEmbedder{vector: []float32{1, 0}}, nil)

	ev, ok := eng.GetEvent("ev-b")
	if !ok {
		t.Fatal("GetEvent(ev-b) not found")
	}
	if ev.ID != "ev-b" {
		t.Errorf("ID = %q, want ev-b", ev.ID)
	}

	if _, ok := eng.GetEvent("missing"); ok {
		t.Error("GetEvent(missing) found, want not found")
	}
}

func TestDedupe(t *testing.T) {
	events := []models.Event{
		{ID: "a", Title: "first a"},
		{ID: "b"},
		{ID: "a", Title: "second a"},
		{ID: "c"},
		{ID: "b"},
	}

	got := Dedupe(events)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("event[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
	if got[0].Title != "first a" {
		t.Errorf("Title = %q, want first occurrence kept", got[0].Title)
	}

	// Idempotent: deduping the output changes nothing.
	again := Dedupe(got)
	if len(again) != len(got) {
		t.Errorf("second Dedupe changed length: %d != %d", len(again), len(got))
	}
}
