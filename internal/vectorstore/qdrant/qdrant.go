// Package qdrant is a minimal REST client backing the chunk store with a
// Qdrant collection. The collection is created with cosine distance,
// matching how chunks are embedded at ingestion.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"sort"
	"time"

	"hybridqa/internal/domain"
	"hybridqa/internal/vectorstore"
)

// Config contains connection details for a Qdrant instance.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store talks to Qdrant over its REST API.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

func New(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection with cosine distance if it does not exist.
func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		points[i] = map[string]any{
			"id":     pointID(c),
			"vector": c.Embedding,
			"payload": map[string]any{
				"doc_id":      c.DocID,
				"filename":    c.Filename,
				"chunk_index": c.ChunkIndex,
				"content":     c.Content,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.ChunkRecord{}
		if v, ok := r.Payload["doc_id"].(string); ok {
			chunk.DocID = v
		}
		if v, ok := r.Payload["filename"].(string); ok {
			chunk.Filename = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			chunk.ChunkIndex = int(v)
		}
		if v, ok := r.Payload["content"].(string); ok {
			chunk.Content = v
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	// Qdrant does not guarantee an order among equal scores
	sort.SliceStable(out, func(i, j int) bool { return vectorstore.Less(out[i], out[j]) })
	return out, nil
}

// pointID derives a stable numeric point id from (doc_id, chunk_index);
// Qdrant only accepts unsigned integers or UUIDs as ids.
func pointID(c domain.ChunkRecord) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s#%d", c.DocID, c.ChunkIndex)
	return h.Sum64()
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
