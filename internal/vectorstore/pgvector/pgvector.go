// Package pgvector backs the chunk store with PostgreSQL and the pgvector
// extension. Search uses the cosine distance operator with an explicit
// (doc_id, chunk_index) tie-break in the ORDER BY.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	pgv "github.com/pgvector/pgvector-go"

	"hybridqa/internal/domain"
)

// Store keeps chunks in a pgvector-enabled table.
type Store struct {
	conn  *pgx.Conn
	table string
}

// New connects and provisions the extension, the chunk table and an
// ivfflat index for the given embedding dimension.
func New(ctx context.Context, dsn, table string, dimension int) (*Store, error) {
	if table == "" {
		table = "doc_chunks"
	}
	if dimension <= 0 {
		dimension = 1536
	}
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return nil, fmt.Errorf("creating vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		doc_id text NOT NULL,
		filename text NOT NULL,
		chunk_index int NOT NULL,
		content text NOT NULL,
		embedding vector(%d) NOT NULL,
		PRIMARY KEY (doc_id, chunk_index))`, table, dimension)
	if _, err := conn.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("creating chunk table: %w", err)
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat(embedding)", table, table)
	if _, err := conn.Exec(ctx, idx); err != nil {
		return nil, fmt.Errorf("creating embedding index: %w", err)
	}
	return &Store{conn: conn, table: table}, nil
}

func (s *Store) Upsert(ctx context.Context, chunks []domain.ChunkRecord) error {
	sql := fmt.Sprintf(`INSERT INTO %s (doc_id, filename, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doc_id, chunk_index)
		DO UPDATE SET filename = $2, content = $4, embedding = $5`, s.table)
	for _, c := range chunks {
		_, err := s.conn.Exec(ctx, sql, c.DocID, c.Filename, c.ChunkIndex, c.Content, pgv.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("upserting chunk %s#%d: %w", c.DocID, c.ChunkIndex, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	// <=> is cosine distance; similarity = 1 - distance
	sql := fmt.Sprintf(`SELECT doc_id, filename, chunk_index, content,
		1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1, doc_id, chunk_index
		LIMIT $2`, s.table)
	rows, err := s.conn.Query(ctx, sql, pgv.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredChunk
	for rows.Next() {
		var c domain.ChunkRecord
		var score float64
		if err := rows.Scan(&c.DocID, &c.Filename, &c.ChunkIndex, &c.Content, &score); err != nil {
			return nil, err
		}
		out = append(out, domain.ScoredChunk{Chunk: c, Score: score})
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}
