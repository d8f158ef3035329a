package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. UnsupportedFormat and
// Download abort the whole document; Validation is surfaced before any
// state is created.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDownload          = errors.New("download failed")
	ErrValidation        = errors.New("missing required fields")
	ErrNotFound          = errors.New("not found")
)

// ExtractionError wraps a parse or model-response failure without masking
// the cause. Fatal for a chunk; fatal for the document only when raised
// during page extraction.
type ExtractionError struct {
	Op  string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
