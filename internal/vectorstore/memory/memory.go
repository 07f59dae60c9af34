// Package memory is a brute-force in-memory chunk store. It is the
// reference implementation of the store contract and the default for
// tests and small corpora.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"hybridqa/internal/domain"
	"hybridqa/internal/vectorstore"
)

// Store keeps chunks and vectors in memory, searching by exact cosine
// similarity over all records.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.ChunkRecord
	index     map[string]int // doc_id#chunk_index -> records position
}

func New() *Store {
	return &Store{index: make(map[string]int)}
}

func key(c domain.ChunkRecord) string {
	return fmt.Sprintf("%s#%d", c.DocID, c.ChunkIndex)
}

// Upsert inserts or replaces chunks. The first upsert fixes the store
// dimension; later vectors must match it.
func (s *Store) Upsert(ctx context.Context, chunks []domain.ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return errors.New("chunk has no embedding")
		}
		if s.dimension == 0 {
			s.dimension = len(c.Embedding)
		}
		if len(c.Embedding) != s.dimension {
			return fmt.Errorf("vector dimension %d does not match store dimension %d", len(c.Embedding), s.dimension)
		}
		if pos, ok := s.index[key(c)]; ok {
			s.records[pos] = c
			continue
		}
		s.index[key(c)] = len(s.records)
		s.records = append(s.records, c)
	}
	return nil
}

// Search returns the k nearest chunks by cosine similarity, ties broken
// by (DocID, ChunkIndex) ascending.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return nil, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension %d does not match store dimension %d", len(vector), s.dimension)
	}
	if k <= 0 {
		k = 5
	}

	scored := make([]domain.ScoredChunk, len(s.records))
	for i, r := range s.records {
		scored[i] = domain.ScoredChunk{Chunk: r, Score: cosine(vector, r.Embedding)}
	}
	sort.Slice(scored, func(i, j int) bool { return vectorstore.Less(scored[i], scored[j]) })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
