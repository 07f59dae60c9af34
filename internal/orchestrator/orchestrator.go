// Package orchestrator composes the classifier, the two answering
// adapters and the response combiner. Process is the only operation the
// rest of the system calls.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"hybridqa/internal/domain"
)

// DefaultTopK is the number of chunks retrieved per document query when
// the caller does not override it.
const DefaultTopK = 5

// Classifier produces a routing decision for a question.
type Classifier interface {
	Classify(ctx context.Context, question string) domain.Classification
}

// StructuredAnswerer answers a question against the warehouse.
type StructuredAnswerer interface {
	Answer(ctx context.Context, question string) (*domain.StructuredResult, error)
}

// DocumentAnswerer answers a question from indexed document chunks.
type DocumentAnswerer interface {
	Answer(ctx context.Context, question string, k int) (*domain.DocumentResult, error)
}

// Orchestrator routes questions and merges adapter results. It is
// stateless across calls; concurrent Process calls are independent.
type Orchestrator struct {
	classifier Classifier
	structured StructuredAnswerer
	document   DocumentAnswerer
	topK       int
	log        *slog.Logger
}

func New(classifier Classifier, structured StructuredAnswerer, document DocumentAnswerer, topK int, log *slog.Logger) *Orchestrator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		classifier: classifier,
		structured: structured,
		document:   document,
		topK:       topK,
		log:        log.With("component", "orchestrator"),
	}
}

// Process classifies the question, dispatches the indicated adapter(s)
// and combines the results. It uses the configured chunk count.
func (o *Orchestrator) Process(ctx context.Context, question string) (*domain.CombinedResponse, error) {
	return o.ProcessK(ctx, question, o.topK)
}

// ProcessK is Process with a caller-supplied chunk count for the
// document path. On a single-route failure the adapter's error
// propagates; on a BOTH route a failing side is absorbed into the
// combined response so the succeeding side is still delivered.
func (o *Orchestrator) ProcessK(ctx context.Context, question string, k int) (*domain.CombinedResponse, error) {
	if k <= 0 {
		k = o.topK
	}
	cls := o.classifier.Classify(ctx, question)
	o.log.Info("question routed", "route", cls.Route, "confidence", cls.Confidence)

	switch cls.Route {
	case domain.RouteStructured:
		sr, err := o.structured.Answer(ctx, question)
		if err != nil {
			return nil, err
		}
		return Combine(cls, sr, nil, nil, nil), nil

	case domain.RouteDocument:
		dr, err := o.document.Answer(ctx, question, k)
		if err != nil {
			return nil, err
		}
		return Combine(cls, nil, dr, nil, nil), nil

	default: // BOTH: independent calls, run concurrently
		var (
			sr   *domain.StructuredResult
			dr   *domain.DocumentResult
			serr error
			derr error
			wg   sync.WaitGroup
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			sr, serr = o.structured.Answer(ctx, question)
		}()
		go func() {
			defer wg.Done()
			dr, derr = o.document.Answer(ctx, question, k)
		}()
		wg.Wait()
		if serr != nil {
			o.log.Warn("structured side of hybrid query failed", "error", serr)
		}
		if derr != nil {
			o.log.Warn("document side of hybrid query failed", "error", derr)
		}
		return Combine(cls, sr, dr, serr, derr), nil
	}
}
