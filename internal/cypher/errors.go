package cypher

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentity indicates a create-only operation hit an existing id.
	ErrDuplicateIdentity = errors.New("duplicate identity")

	// ErrMissingLabels indicates a row arrived without a labels field. An
	// unlabeled row is a data-integrity violation, never silently defaulted.
	ErrMissingLabels = errors.New("row has no labels")

	// ErrUnknownQuery indicates a query name has no registered statement.
	ErrUnknownQuery = errors.New("unknown query name")
)

// QueryExecutionError reports a backend failure (connectivity, syntax,
// timeout). Writes that fail this way are never partially applied.
type QueryExecutionError struct {
	Purpose string
	Query   string
	Timeout bool
	Err     error
}

func (e *QueryExecutionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("query %q (%s) timed out: %v", e.Query, e.Purpose, e.Err)
	}
	return fmt.Sprintf("query %q (%s) failed: %v", e.Query, e.Purpose, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// UnmappableRowError reports a row whose label set matches no known kind.
type UnmappableRowError struct {
	Labels []string
}

func (e *UnmappableRowError) Error() string {
	return fmt.Sprintf("no mapping for label set %v", e.Labels)
}

// PreconditionError reports a violated precondition, such as a vector index
// that has not been created yet. Distinct from an empty result.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }
