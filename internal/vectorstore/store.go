// Package vectorstore defines the chunk store contract shared by all
// backends: persistence of embedded chunks and cosine similarity search.
package vectorstore

import (
	"context"

	"hybridqa/internal/domain"
)

// Store is implemented by every chunk store backend. Search follows the
// domain.Searcher contract: nearest first by cosine similarity, ties
// broken by (DocID, ChunkIndex) ascending. Vectors are expected to be
// L2-normalized at ingestion and at query time.
type Store interface {
	domain.Searcher

	// Upsert inserts or replaces chunks keyed by (DocID, ChunkIndex).
	Upsert(ctx context.Context, chunks []domain.ChunkRecord) error
}

// Less orders retrieval results deterministically: score descending,
// then DocID, then ChunkIndex ascending. Shared by backends that sort
// client-side.
func Less(a, b domain.ScoredChunk) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Chunk.DocID != b.Chunk.DocID {
		return a.Chunk.DocID < b.Chunk.DocID
	}
	return a.Chunk.ChunkIndex < b.Chunk.ChunkIndex
}
