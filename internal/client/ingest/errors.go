package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid ingestion request")
	ErrMissingJobID   = errors.New("server did not return a job id")
)

// IngestError is a failed submission. Reason is the message shown to the
// user; Err carries the cause for errors.Is.
type IngestError struct {
	Reason string
	Err    error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("submission failed: %s", e.Reason)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}
