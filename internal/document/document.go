// Package document answers questions from indexed document chunks: it
// embeds the question, retrieves the nearest chunks and asks the
// completion service to synthesize an answer grounded in them.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hybridqa/internal/domain"
)

const groundingSystemPrompt = "You are a helpful assistant that answers questions based on the provided " +
	"document context. Use only the information from the supplied context. If the answer is not in the " +
	"context, say you don't have that information. Do not mention chunks, files or the context structure " +
	"in your answer."

// Adapter performs retrieval-augmented answering over the chunk store.
type Adapter struct {
	embedder  domain.Embedder
	searcher  domain.Searcher
	completer domain.Completer
	log       *slog.Logger
}

func New(embedder domain.Embedder, searcher domain.Searcher, completer domain.Completer, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		log:       log.With("component", "document"),
	}
}

// Answer retrieves the k nearest chunks and synthesizes a grounded
// answer. Zero retrieved chunks surface as *domain.RetrievalError before
// any completion call; a failed completion after successful retrieval
// surfaces as *domain.GenerationError.
func (a *Adapter) Answer(ctx context.Context, question string, k int) (*domain.DocumentResult, error) {
	if k <= 0 {
		k = 5
	}
	vector, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	results, err := a.searcher.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.RetrievalError{K: k}
	}
	a.log.Debug("chunks retrieved", "count", len(results))

	answer, err := a.completer.Complete(ctx, groundingSystemPrompt, buildPrompt(question, results))
	if err != nil {
		return nil, &domain.GenerationError{Stage: "answer", Err: fmt.Errorf("grounded completion: %w", err)}
	}

	sources := make([]domain.SourceRef, len(results))
	for i, r := range results {
		sources[i] = domain.SourceRef{
			DocID:      r.Chunk.DocID,
			Filename:   r.Chunk.Filename,
			ChunkIndex: r.Chunk.ChunkIndex,
			Score:      r.Score,
		}
	}
	return &domain.DocumentResult{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

// buildPrompt assembles the grounding prompt: each chunk tagged with its
// source, then the question.
func buildPrompt(question string, results []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Context from documents:\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "[source: %s#%d]\n%s\n\n", r.Chunk.Filename, r.Chunk.ChunkIndex, r.Chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
