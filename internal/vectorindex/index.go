// Playafinder - Festival Event Semantic Recommendation
// Copyright 2026 D. Rowe (duskrow)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/duskrow/playafinder

// Package vectorindex implements exact nearest-neighbor search over
// L2-normalized embedding vectors.
//
// Because all stored vectors and the query are unit length, cosine
// similarity reduces to the inner product, so a search is a single linear
// scan with a bounded partial sort. For a multi-thousand-event corpus this
// completes in well under a millisecond, which keeps the index probe far
// inside the interactive latency budget without an approximate structure.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
)

// Hit is a single search result: the corpus position of a vector and its
// cosine similarity to the query.
type Hit struct {
	// Index is the position of the matched vector in the corpus ordering.
	Index int

	// Score is the inner product with the normalized query, in [-1, 1].
	Score float32
}

// Index is an immutable flat inner-product index. It is safe for unlimited
// concurrent readers once built.
type Index struct {
	vectors [][]float32
	dim     int
}

// New builds an index over the given vectors. Vectors must share one
// dimension; they are expected to be L2-normalized already (the corpus
// loader guarantees this). An empty slice yields a valid, empty index.
func New(vectors [][]float32) (*Index, error) {
	idx := &Index{vectors: vectors}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("vector %d is empty", i)
		}
		if idx.dim == 0 {
			idx.dim = len(v)
		}
		if len(v) != idx.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), idx.dim)
		}
	}

	return idx, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	return len(idx.vectors)
}

// Dim returns the vector dimension, or 0 for an empty index.
func (idx *Index) Dim() int {
	return idx.dim
}

// Search returns the k vectors with the highest inner product against the
// query, best first. Ties are broken by corpus order so results are stable
// across runs. The query is normalized internally; a zero query is searched
// as-is. An empty index or non-positive k returns an empty result, never an
// error.
func (idx *Index) Search(query []float32, k int) []Hit {
	if len(idx.vectors) == 0 || k <= 0 {
		return nil
	}
	if len(query) != idx.dim {
		return nil
	}
	if k > len(idx.vectors) {
		k = len(idx.vectors)
	}

	q := Normalize(query)

	hits := make([]Hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = Hit{Index: i, Score: dot(q, v)}
	}

	// Stable ordering: score descending, corpus order ascending on ties.
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Index < hits[b].Index
	})

	return hits[:k]
}

// Normalize returns an L2-normalized copy of v. A zero vector is returned
// unchanged, matching the norm guard the offline embedding job applies.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
