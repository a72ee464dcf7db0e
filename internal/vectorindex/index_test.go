// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

package vectorindex

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
		wantErr bool
		wantDim int
	}{
		{"empty corpus", nil, false, 0},
		{"single vector", [][]float32{{1, 0}}, false, 2},
		{"uniform dimensions", [][]float32{{1, 0, 0}, {0, 1, 0}}, false, 3},
		{"ragged dimensions", [][]float32{{1, 0}, {0, 1, 0}}, true, 0},
		{"empty vector row", [][]float32{{1, 0}, {}}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := New(tt.vectors)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if idx.Dim() != tt.wantDim {
				t.Errorf("Dim() = %d, want %d", idx.Dim(), tt.wantDim)
			}
			if idx.Len() != len(tt.vectors) {
				t.Errorf("Len() = %d, want %d", idx.Len(), len(tt.vectors))
			}
		})
	}
}

func TestSearchRanking(t *testing.T) {
	// 0 east, 1 north, 2 northeast, 3 west.
	idx, err := New([][]float32{
		{1, 0},
		{0, 1},
		{0.70710678, 0.70710678},
		{-1, 0},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	hits := idx.Search([]float32{1, 0}, 3)
	if len(hits) != 3 {
		t.Fatalf("Search returned %d hits, want 3", len(hits))
	}

	wantOrder := []int{0, 2, 1}
	for i, want := range wantOrder {
		if hits[i].Index != want {
			t.Errorf("hit[%d].Index = %d, want %d", i, hits[i].Index, want)
		}
	}

	if math.Abs(float64(hits[0].Score)-1.0) > 1e-6 {
		t.Errorf("identical vector score = %f, want 1.0", hits[0].Score)
	}
	for _, h := range hits {
		if h.Score < -1.0001 || h.Score > 1.0001 {
			t.Errorf("score %f outside [-1, 1]", h.Score)
		}
	}
}

func TestSearchTiesStableByCorpusOrder(t *testing.T) {
	// Three identical vectors: ties must resolve in corpus order.
	idx, err := New([][]float32{{0, 1}, {0, 1}, {0, 1}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	hits := idx.Search([]float32{0, 1}, 3)
	for i, h := range hits {
		if h.Index != i {
			t.Errorf("tie order: hit[%d].Index = %d, want %d", i, h.Index, i)
		}
	}
}

func TestSearchEdgeCases(t *testing.T) {
	idx, err := New([][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Run("empty index", func(t *testing.T) {
		empty, _ := New(nil)
		if hits := empty.Search([]float32{1, 0}, 5); hits != nil {
			t.Errorf("empty index returned %v, want nil", hits)
		}
	})

	t.Run("k exceeds corpus", func(t *testing.T) {
		if hits := idx.Search([]float32{1, 0}, 10); len(hits) != 2 {
			t.Errorf("got %d hits, want 2", len(hits))
		}
	})

	t.Run("non-positive k", func(t *testing.T) {
		if hits := idx.Search([]float32{1, 0}, 0); hits != nil {
			t.Errorf("k=0 returned %v, want nil", hits)
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		if hits := idx.Search([]float32{1, 0, 0}, 1); hits != nil {
			t.Errorf("mismatched query returned %v, want nil", hits)
		}
	})

	t.Run("unnormalized query is normalized", func(t *testing.T) {
		hits := idx.Search([]float32{10, 0}, 1)
		if len(hits) != 1 || hits[0].Index != 0 {
			t.Fatalf("hits = %v, want index 0", hits)
		}
		if math.Abs(float64(hits[0].Score)-1.0) > 1e-6 {
			t.Errorf("score = %f, want 1.0 after query normalization", hits[0].Score)
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("unit length output", func(t *testing.T) {
		out := Normalize([]float32{3, 4})
		var sum float64
		for _, x := range out {
			sum += float64(x) * float64(x)
		}
		if math.Abs(sum-1.0) > 1e-6 {
			t.Errorf("norm^2 = %f, want 1.0", sum)
		}
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		out := Normalize([]float32{0, 0, 0})
		for _, x := range out {
			if x != 0 {
				t.Errorf("zero vector changed: %v", out)
			}
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		in := []float32{3, 4}
		Normalize(in)
		if in[0] != 3 || in[1] != 4 {
			t.Errorf("input mutated: %v", in)
		}
	})
}
