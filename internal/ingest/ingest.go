// Package ingest loads plain-text documents, chunks them, embeds each
// chunk and upserts the records into the chunk store. It runs as a
// one-shot pipeline ahead of query time; the query path treats the store
// as read-only.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hybridqa/internal/domain"
	"hybridqa/internal/vectorstore"
)

// Pipeline embeds and stores document chunks.
type Pipeline struct {
	embedder domain.Embedder
	store    vectorstore.Store
	chunker  *sentenceChunker
	log      *slog.Logger
}

func New(embedder domain.Embedder, store vectorstore.Store, sentencesPerChunk, overlapSentences int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		embedder: embedder,
		store:    store,
		chunker:  newSentenceChunker(sentencesPerChunk, overlapSentences),
		log:      log.With("component", "ingest"),
	}
}

// IngestFiles processes the given paths (globs allowed). Only .txt and
// .md files are taken; extraction from binary formats happens upstream.
// Returns the number of chunks stored.
func (p *Pipeline) IngestFiles(ctx context.Context, paths []string) (int, error) {
	var files []string
	for _, pattern := range paths {
		matches, _ := filepath.Glob(pattern)
		if matches == nil {
			matches = []string{pattern}
		}
		for _, m := range matches {
			switch strings.ToLower(filepath.Ext(m)) {
			case ".txt", ".md":
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no .txt or .md documents found")
	}

	total := 0
	for _, path := range files {
		n, err := p.ingestFile(ctx, path)
		if err != nil {
			return total, fmt.Errorf("ingesting %s: %w", path, err)
		}
		total += n
	}
	p.log.Info("ingestion finished", "files", len(files), "chunks", total)
	return total, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	texts := p.chunker.split(string(data))
	if len(texts) == 0 {
		p.log.Warn("document is empty, skipping", "file", path)
		return 0, nil
	}

	docID := hashString(path)
	filename := filepath.Base(path)
	records := make([]domain.ChunkRecord, len(texts))
	for i, text := range texts {
		vec, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return 0, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		records[i] = domain.ChunkRecord{
			DocID:      docID,
			Filename:   filename,
			ChunkIndex: i,
			Content:    text,
			Embedding:  vec,
		}
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		return 0, fmt.Errorf("storing chunks: %w", err)
	}
	p.log.Debug("document ingested", "file", filename, "chunks", len(records))
	return len(records), nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
