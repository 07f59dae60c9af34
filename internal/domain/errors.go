package domain

import "fmt"

// GenerationError reports that the completion service could not produce
// usable output: no SQL came back, the generated SQL was rejected before
// execution, or answer synthesis failed after retrieval.
type GenerationError struct {
	Stage string // "sql" or "answer"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ExecutionError reports that the warehouse rejected or failed to run the
// generated SQL. The error is not retried here.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sql execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// RetrievalError reports that similarity search returned zero chunks, so
// no grounding prompt could be built.
type RetrievalError struct {
	K int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("similarity search returned no chunks (k=%d)", e.K)
}
