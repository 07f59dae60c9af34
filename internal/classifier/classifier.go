// Package classifier decides which backend(s) should answer a question.
// It first asks the completion service for a routing decision and falls
// back to a deterministic keyword rule when the call or its parsing fails,
// so Classify never fails outward.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"hybridqa/internal/domain"
)

const (
	// fallbackConfidence is reported whenever the keyword rule decided
	// the route instead of the model.
	fallbackConfidence = 0.5

	// emptyConfidence is reported for empty or whitespace-only questions,
	// which are routed to DOCUMENT without consulting the model.
	emptyConfidence = 0.2
)

const routingSystemPrompt = "You are a query routing assistant. Respond only with valid JSON."

const routingPrompt = `Analyze the user's question and determine which system should handle it.

Available systems:
1. STRUCTURED - analytical questions about relational data (orders, customers, products, payments, revenue, aggregations).
2. DOCUMENT - questions about indexed documents, reports, filings, transcripts and other unstructured content.
3. BOTH - hybrid questions that need structured data and document content together.

Respond ONLY with a JSON object in this exact format:
{"route": "STRUCTURED" | "DOCUMENT" | "BOTH", "reasoning": "one sentence", "confidence": 0.0-1.0}

User question: %s`

// analyticsKeywords marks questions about the relational warehouse.
var analyticsKeywords = []string{
	"customer", "customers", "order", "orders", "product", "products",
	"payment", "payments", "revenue", "sales", "total", "sum", "count",
	"average", "top", "highest", "lowest", "aggregate", "database", "table",
}

// documentKeywords marks questions about indexed documents.
var documentKeywords = []string{
	"report", "reports", "document", "documents", "pdf", "sustainability",
	"earnings", "transcript", "filing", "filings", "statement", "findings",
	"mentioned", "says", "say",
}

// documentPhrases are multi-word markers checked by substring.
var documentPhrases = []string{
	"according to", "in the document", "in the report",
}

// Classifier routes questions to the structured, document or hybrid path.
type Classifier struct {
	completer domain.Completer
	log       *slog.Logger
}

func New(completer domain.Completer, log *slog.Logger) *Classifier {
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{completer: completer, log: log.With("component", "classifier")}
}

// Classify produces a routing decision for the question. It has no side
// effects beyond the outbound completion request and never returns an
// error: model failures degrade to the keyword fallback.
func (c *Classifier) Classify(ctx context.Context, question string) domain.Classification {
	if strings.TrimSpace(question) == "" {
		return domain.Classification{
			Route:      domain.RouteDocument,
			Reasoning:  "empty question, defaulting to document search",
			Confidence: emptyConfidence,
		}
	}

	cls, err := c.classifyModel(ctx, question)
	if err != nil {
		c.log.Warn("routing model unavailable, using keyword fallback", "error", err)
		return fallbackClassify(question)
	}
	return cls
}

func (c *Classifier) classifyModel(ctx context.Context, question string) (domain.Classification, error) {
	raw, err := c.completer.Complete(ctx, routingSystemPrompt, fmt.Sprintf(routingPrompt, question))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("routing completion: %w", err)
	}
	return parseDecision(raw)
}

// parseDecision extracts the routing JSON from a model response. Models
// sometimes wrap the object in markdown fences or surrounding prose, so
// fences are stripped and the first balanced JSON object is taken.
func parseDecision(raw string) (domain.Classification, error) {
	content := strings.TrimSpace(raw)
	if i := strings.Index(content, "```json"); i >= 0 {
		content = content[i+len("```json"):]
	} else if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+len("```"):]
	}
	if i := strings.Index(content, "```"); i >= 0 {
		content = content[:i]
	}
	content = strings.TrimSpace(content)
	if m := extractJSONObject(content); m != "" {
		content = m
	}

	var decision struct {
		Route      string   `json:"route"`
		Reasoning  string   `json:"reasoning"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &decision); err != nil {
		return domain.Classification{}, fmt.Errorf("parsing routing decision: %w", err)
	}
	route := domain.Route(strings.ToUpper(strings.TrimSpace(decision.Route)))
	if !route.Valid() {
		return domain.Classification{}, fmt.Errorf("unknown route %q", decision.Route)
	}
	if decision.Confidence == nil {
		return domain.Classification{}, errors.New("routing decision missing confidence")
	}
	if *decision.Confidence < 0 || *decision.Confidence > 1 {
		return domain.Classification{}, fmt.Errorf("confidence %v outside [0,1]", *decision.Confidence)
	}
	return domain.Classification{
		Route:      route,
		Reasoning:  decision.Reasoning,
		Confidence: *decision.Confidence,
	}, nil
}

// extractJSONObject returns the first balanced JSON object in s, or ""
// if none closes. Brace depth is tracked outside string literals so
// nested objects and braces inside field values are kept intact.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// fallbackClassify applies the deterministic keyword rule: only analytics
// terms select STRUCTURED, only document terms select DOCUMENT, and both
// or neither select BOTH (over-answering beats under-answering).
func fallbackClassify(question string) domain.Classification {
	words := tokenize(question)
	lower := strings.ToLower(question)

	analytics := matchesAny(words, analyticsKeywords)
	document := matchesAny(words, documentKeywords)
	for _, p := range documentPhrases {
		if strings.Contains(lower, p) {
			document = true
			break
		}
	}

	var route domain.Route
	var reasoning string
	switch {
	case analytics && !document:
		route = domain.RouteStructured
		reasoning = "fallback: question contains analytics keywords"
	case document && !analytics:
		route = domain.RouteDocument
		reasoning = "fallback: question contains document keywords"
	default:
		route = domain.RouteBoth
		reasoning = "fallback: ambiguous question, answering from both systems"
	}
	return domain.Classification{Route: route, Reasoning: reasoning, Confidence: fallbackConfidence}
}

var wordRe = regexp.MustCompile(`\p{L}+`)

func tokenize(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func matchesAny(words map[string]struct{}, keywords []string) bool {
	for _, k := range keywords {
		if _, ok := words[k]; ok {
			return true
		}
	}
	return false
}
