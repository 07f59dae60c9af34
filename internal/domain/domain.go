// Package domain holds the core types and capability interfaces shared by
// the classifier, the answering adapters and the orchestrator.
package domain

import "context"

// Route identifies which backend(s) should answer a question.
type Route string

const (
	RouteStructured Route = "STRUCTURED"
	RouteDocument   Route = "DOCUMENT"
	RouteBoth       Route = "BOTH"
)

// Valid reports whether r is one of the three known routes.
func (r Route) Valid() bool {
	switch r {
	case RouteStructured, RouteDocument, RouteBoth:
		return true
	}
	return false
}

// Classification is the routing decision produced once per question.
type Classification struct {
	Route      Route   `json:"route"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// ChunkRecord is one indexed segment of a source document. Records are
// created at ingestion time and read-only afterwards; (DocID, ChunkIndex)
// identifies a chunk within a document.
type ChunkRecord struct {
	DocID      string
	Filename   string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// ScoredChunk is a retrieved chunk with its similarity to the query vector.
type ScoredChunk struct {
	Chunk ChunkRecord
	Score float64
}

// SourceRef points at a chunk that was included in a grounding prompt.
type SourceRef struct {
	DocID      string  `json:"doc_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// StructuredResult is the outcome of one structured-data answering call.
type StructuredResult struct {
	GeneratedSQL string           `json:"generated_sql"`
	Columns      []string         `json:"columns"`
	Rows         []map[string]any `json:"rows"`
}

// DocumentResult is the outcome of one document retrieval call. Sources
// lists exactly the chunks that went into the grounding prompt, in
// retrieval order.
type DocumentResult struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

// CombinedResponse is the final answer object returned to callers.
// Structured is set for STRUCTURED and BOTH routes, Document for DOCUMENT
// and BOTH; a side that failed on a BOTH route stays nil and the failure
// is noted in FinalAnswer.
type CombinedResponse struct {
	Classification Classification    `json:"classification"`
	Structured     *StructuredResult `json:"structured,omitempty"`
	Document       *DocumentResult   `json:"document,omitempty"`
	FinalAnswer    string            `json:"final_answer"`
}

// Embedder converts text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates text from a system instruction and user content.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Executor runs a read-only SQL query against the warehouse and returns
// the result set as ordered columns and rows.
type Executor interface {
	Execute(ctx context.Context, query string) (columns []string, rows []map[string]any, err error)
}

// Searcher returns the k chunks nearest to the query vector, nearest
// first. Equal-distance ties resolve by (DocID, ChunkIndex) ascending.
// The similarity metric is cosine and must match the one used when the
// chunks were embedded at ingestion.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
}
