package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"hybridqa/internal/classifier"
	"hybridqa/internal/domain"
)

type fixedClassifier struct {
	cls domain.Classification
}

func (f fixedClassifier) Classify(ctx context.Context, question string) domain.Classification {
	return f.cls
}

// offlineCompleter always fails, which pushes the real classifier onto
// its keyword fallback.
type offlineCompleter struct{}

func (offlineCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("completion unavailable")
}

type fakeStructured struct {
	result *domain.StructuredResult
	err    error
	calls  int
}

func (f *fakeStructured) Answer(ctx context.Context, question string) (*domain.StructuredResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeDocument struct {
	result *domain.DocumentResult
	err    error
	calls  int
	lastK  int
}

func (f *fakeDocument) Answer(ctx context.Context, question string, k int) (*domain.DocumentResult, error) {
	f.calls++
	f.lastK = k
	return f.result, f.err
}

func structuredResult() *domain.StructuredResult {
	return &domain.StructuredResult{
		GeneratedSQL: "SELECT region, SUM(amount) AS total FROM sales GROUP BY region",
		Columns:      []string{"region", "total"},
		Rows: []map[string]any{
			{"region": "EMEA", "total": 1200},
			{"region": "APAC", "total": 900},
		},
	}
}

func documentResult() *domain.DocumentResult {
	return &domain.DocumentResult{
		Answer:  "The warranty policy covers two years of repairs.",
		Sources: []domain.SourceRef{{DocID: "d1", Filename: "policy.md", ChunkIndex: 0, Score: 0.88}},
	}
}

func TestProcessStructuredRoute(t *testing.T) {
	cls := classifier.New(offlineCompleter{}, nil)
	fs := &fakeStructured{result: structuredResult()}
	fd := &fakeDocument{result: documentResult()}
	o := New(cls, fs, fd, 0, nil)

	resp, err := o.Process(context.Background(), "What was the total revenue by region last quarter?")

	assert.NilError(t, err)
	assert.Equal(t, resp.Classification.Route, domain.RouteStructured)
	assert.Equal(t, fs.calls, 1)
	assert.Equal(t, fd.calls, 0)
	assert.Assert(t, resp.Structured != nil)
	assert.Assert(t, resp.Document == nil)
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "EMEA"))
}

func TestProcessDocumentRoute(t *testing.T) {
	cls := classifier.New(offlineCompleter{}, nil)
	fs := &fakeStructured{result: structuredResult()}
	fd := &fakeDocument{result: documentResult()}
	o := New(cls, fs, fd, 0, nil)

	resp, err := o.Process(context.Background(), "What does the warranty policy say about repairs?")

	assert.NilError(t, err)
	assert.Equal(t, resp.Classification.Route, domain.RouteDocument)
	assert.Equal(t, fs.calls, 0)
	assert.Equal(t, fd.calls, 1)
	assert.Equal(t, fd.lastK, DefaultTopK)
	assert.Equal(t, resp.FinalAnswer, documentResult().Answer)
}

func TestProcessBothRouteRunsBothAdapters(t *testing.T) {
	cls := classifier.New(offlineCompleter{}, nil)
	fs := &fakeStructured{result: structuredResult()}
	fd := &fakeDocument{result: documentResult()}
	o := New(cls, fs, fd, 0, nil)

	resp, err := o.Process(context.Background(), "Compare the reported revenue with what the annual report says about growth")

	assert.NilError(t, err)
	assert.Equal(t, resp.Classification.Route, domain.RouteBoth)
	assert.Equal(t, fs.calls, 1)
	assert.Equal(t, fd.calls, 1)
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "## Analytics Results"))
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "## Document Answer"))
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "---"))
}

func TestProcessSingleRouteFailurePropagates(t *testing.T) {
	fc := fixedClassifier{cls: domain.Classification{Route: domain.RouteStructured, Confidence: 0.9}}
	fs := &fakeStructured{err: &domain.ExecutionError{SQL: "SELECT 1", Err: errors.New("connection refused")}}
	o := New(fc, fs, &fakeDocument{}, 0, nil)

	_, err := o.Process(context.Background(), "how many orders")

	var ee *domain.ExecutionError
	assert.Assert(t, errors.As(err, &ee))
}

func TestProcessBothAbsorbsStructuredFailure(t *testing.T) {
	fc := fixedClassifier{cls: domain.Classification{Route: domain.RouteBoth, Confidence: 0.8}}
	fs := &fakeStructured{err: errors.New("warehouse down")}
	fd := &fakeDocument{result: documentResult()}
	o := New(fc, fs, fd, 0, nil)

	resp, err := o.Process(context.Background(), "anything hybrid")

	assert.NilError(t, err)
	assert.Assert(t, resp.Structured == nil)
	assert.Assert(t, resp.Document != nil)
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "Analytics query failed: warehouse down"))
	assert.Assert(t, strings.Contains(resp.FinalAnswer, documentResult().Answer))
}

func TestProcessBothAbsorbsDocumentFailure(t *testing.T) {
	fc := fixedClassifier{cls: domain.Classification{Route: domain.RouteBoth, Confidence: 0.8}}
	fs := &fakeStructured{result: structuredResult()}
	fd := &fakeDocument{err: &domain.RetrievalError{K: 5}}
	o := New(fc, fs, fd, 0, nil)

	resp, err := o.Process(context.Background(), "anything hybrid")

	assert.NilError(t, err)
	assert.Assert(t, resp.Structured != nil)
	assert.Assert(t, resp.Document == nil)
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "Document query failed:"))
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "EMEA"))
}

func TestProcessKOverridesChunkCount(t *testing.T) {
	fc := fixedClassifier{cls: domain.Classification{Route: domain.RouteDocument, Confidence: 0.9}}
	fd := &fakeDocument{result: documentResult()}
	o := New(fc, &fakeStructured{}, fd, 7, nil)

	_, err := o.ProcessK(context.Background(), "question", 3)
	assert.NilError(t, err)
	assert.Equal(t, fd.lastK, 3)

	_, err = o.ProcessK(context.Background(), "question", 0)
	assert.NilError(t, err)
	assert.Equal(t, fd.lastK, 7)
}

func TestCombineRendersEmptyResultSet(t *testing.T) {
	cls := domain.Classification{Route: domain.RouteStructured, Confidence: 0.9}
	resp := Combine(cls, &domain.StructuredResult{GeneratedSQL: "SELECT 1 WHERE 1=0", Columns: []string{"x"}}, nil, nil, nil)
	assert.Equal(t, resp.FinalAnswer, "Query completed but returned no results.")
}

func TestCombineTruncatesLongResultSets(t *testing.T) {
	rows := make([]map[string]any, 25)
	for i := range rows {
		rows[i] = map[string]any{"n": i}
	}
	cls := domain.Classification{Route: domain.RouteStructured, Confidence: 0.9}
	resp := Combine(cls, &domain.StructuredResult{Columns: []string{"n"}, Rows: rows}, nil, nil, nil)
	assert.Assert(t, strings.Contains(resp.FinalAnswer, "... and 5 more row(s)"))
}
