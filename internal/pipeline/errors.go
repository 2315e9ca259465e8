// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/pdiddy/clause-engine/internal/export"
	"github.com/pdiddy/clause-engine/internal/source"
)

// Run-level error kinds. Only input and sink unavailability abort work;
// every other data problem is carried in the Result.
var (
	ErrInputUnavailable = source.ErrInputUnavailable
	ErrSinkUnavailable  = export.ErrSinkUnavailable

	// ErrNoHeadersFound marks a document in which no clause header was
	// recognised. It is reported through Result.Err, never returned as a
	// failure.
	ErrNoHeadersFound = errors.New("no clause headers found")

	// ErrDuplicateDocument marks a ref listed more than once in a batch.
	// The first occurrence runs; the repeats fail.
	ErrDuplicateDocument = errors.New("document listed more than once")
)

// DocumentError ties a fatal error to the document it aborted.
type DocumentError struct {
	DocID string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.DocID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
