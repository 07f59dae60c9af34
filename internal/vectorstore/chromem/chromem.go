// Package chromem backs the chunk store with chromem-go, an embedded
// vector database with gob persistence. Cosine similarity, no external
// service.
package chromem

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"hybridqa/internal/domain"
	"hybridqa/internal/vectorstore"
)

// Store wraps a chromem collection. Vectors are supplied by the caller
// on both sides, so the collection's embedding function is only used if
// chromem ever needs to embed on its own behalf.
type Store struct {
	db   *chromem.DB
	col  *chromem.Collection
	path string
}

// New opens (or creates) the collection. If path names an existing gob
// export it is imported first; Upsert re-exports after every write.
func New(path, collection string, embedder domain.Embedder) (*Store, error) {
	db := chromem.NewDB()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := db.Import(path, ""); err != nil {
				return nil, fmt.Errorf("importing chunk store %s: %w", path, err)
			}
		}
	}
	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	col := db.GetCollection(collection, embedFn)
	if col == nil {
		var err error
		col, err = db.CreateCollection(collection, nil, embedFn)
		if err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}
	return &Store{db: db, col: col, path: path}, nil
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.ChunkRecord) error {
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s#%d", c.DocID, c.ChunkIndex),
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				"doc_id":      c.DocID,
				"filename":    c.Filename,
				"chunk_index": strconv.Itoa(c.ChunkIndex),
			},
		}
	}
	if err := s.col.AddDocuments(ctx, docs, 4); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	if s.path != "" {
		if err := s.db.Export(s.path, false, ""); err != nil {
			return fmt.Errorf("persisting chunk store: %w", err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	if count := s.col.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}
	results, err := s.col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	out := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		idx, _ := strconv.Atoi(r.Metadata["chunk_index"])
		out = append(out, domain.ScoredChunk{
			Chunk: domain.ChunkRecord{
				DocID:      r.Metadata["doc_id"],
				Filename:   r.Metadata["filename"],
				ChunkIndex: idx,
				Content:    r.Content,
			},
			Score: float64(r.Similarity),
		})
	}
	// chromem orders by similarity only; apply the deterministic tie-break
	sort.SliceStable(out, func(i, j int) bool { return vectorstore.Less(out[i], out[j]) })
	return out, nil
}
