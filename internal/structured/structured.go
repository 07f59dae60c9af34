// Package structured answers analytical questions by generating SQL from
// the question plus warehouse schema context and executing it read-only.
package structured

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hybridqa/internal/domain"
	"hybridqa/internal/schema"
)

const sqlSystemPrompt = "You are a SQL expert. Generate a single valid read-only SQL query. " +
	"Reply with ONLY the SQL SELECT query. No explanations, no markdown, just SQL."

// Adapter turns natural-language questions into executed SQL result sets.
type Adapter struct {
	completer domain.Completer
	executor  domain.Executor
	schema    *schema.Schema
	log       *slog.Logger
}

func New(completer domain.Completer, executor domain.Executor, sc *schema.Schema, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		completer: completer,
		executor:  executor,
		schema:    sc,
		log:       log.With("component", "structured"),
	}
}

// Answer generates SQL for the question, validates it as a single
// read-only statement and executes it. Generation problems surface as
// *domain.GenerationError without touching the warehouse; execution
// failures surface as *domain.ExecutionError and are not retried.
func (a *Adapter) Answer(ctx context.Context, question string) (*domain.StructuredResult, error) {
	prompt := a.buildPrompt(question)

	raw, err := a.completer.Complete(ctx, sqlSystemPrompt, prompt)
	if err != nil {
		return nil, &domain.GenerationError{Stage: "sql", Err: fmt.Errorf("sql completion: %w", err)}
	}
	query := cleanSQL(raw)
	if query == "" {
		return nil, &domain.GenerationError{Stage: "sql", Err: errors.New("model returned no SQL")}
	}
	if err := validateReadOnly(query); err != nil {
		return nil, &domain.GenerationError{Stage: "sql", Err: err}
	}
	a.log.Debug("executing generated sql", "sql", query)

	columns, rows, err := a.executor.Execute(ctx, query)
	if err != nil {
		return nil, &domain.ExecutionError{SQL: query, Err: err}
	}
	a.log.Info("structured answer produced", "rows", len(rows))
	return &domain.StructuredResult{
		GeneratedSQL: query,
		Columns:      columns,
		Rows:         rows,
	}, nil
}

func (a *Adapter) buildPrompt(question string) string {
	return a.schema.PromptContext() +
		"\nQuestion: " + question +
		"\nGenerate ONLY the SQL SELECT query. No explanations, no markdown, just SQL."
}
