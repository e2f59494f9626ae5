package share

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("share password required or incorrect")
	ErrNotFound           = errors.New("share not found")
	ErrServerError        = errors.New("share service error")
	ErrPreviewUnavailable = errors.New("preview is not available for this file type")
)

// AccessKind classifies a failed share access.
type AccessKind int

const (
	Unauthorized AccessKind = iota + 1
	NotFound
	ServerError
)

func (k AccessKind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not found"
	case ServerError:
		return "server error"
	}
	return fmt.Sprintf("AccessKind(%d)", int(k))
}

// AccessError is a failed share retrieval or lookup.
type AccessError struct {
	Kind   AccessKind
	Reason string
	Err    error
}

func (e *AccessError) Error() string {
	if e.Reason == "" {
		return "share access: " + e.Kind.String()
	}
	return fmt.Sprintf("share access: %s: %s", e.Kind, e.Reason)
}

// Unwrap exposes the kind's sentinel and the underlying cause.
func (e *AccessError) Unwrap() []error {
	var sentinel error
	switch e.Kind {
	case Unauthorized:
		sentinel = ErrUnauthorized
	case NotFound:
		sentinel = ErrNotFound
	default:
		sentinel = ErrServerError
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}
