// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a referenced run or paper does not exist.
// Callers match it with errors.Is.
var ErrNotFound = errors.New("not found")

// ExternalServiceError wraps a failure from a collaborator: the retrieval
// gateway, the extraction/synthesis model, or the embedding producer. The
// orchestrator never retries these; they fail the run.
type ExternalServiceError struct {
	// Service names the collaborator, e.g. "openalex", "llm", "embedding".
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// CacheReadError wraps a storage failure during a retrieval-cache lookup.
// A cache-layer failure is a hard error for retrieval, not a forced miss.
type CacheReadError struct {
	Err error
}

func (e *CacheReadError) Error() string {
	return fmt.Sprintf("retrieval cache read: %v", e.Err)
}

func (e *CacheReadError) Unwrap() error { return e.Err }

// StatusPersistError reports the fatal corner where a run failed and the
// attempt to persist the failed status itself failed. The run is left
// inconsistent and must be reconciled manually.
type StatusPersistError struct {
	RunID int64

	// Cause is the error that triggered the failure transition.
	Cause error

	// PersistErr is the error from the status write.
	PersistErr error
}

func (e *StatusPersistError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("run %d: persisting final status: %v", e.RunID, e.PersistErr)
	}
	return fmt.Sprintf("run %d: persisting failed status: %v (run failure was: %v)",
		e.RunID, e.PersistErr, e.Cause)
}

func (e *StatusPersistError) Unwrap() error { return e.PersistErr }
