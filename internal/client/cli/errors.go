package cli

import (
	"errors"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/ingest"
	"github.com/dmitrijs2005/gophdisk/internal/client/jobs"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/client/share"
)

// usageError carries a usage hint for a malformed command line.
type usageError struct {
	usage string
}

func (e *usageError) Error() string { return "usage: " + e.usage }

func usage(u string) error { return &usageError{usage: u} }

// describeError turns a command failure into the line shown to the user.
func describeError(err error) string {
	var ue *usageError
	if errors.As(err, &ue) {
		return "Usage: " + ue.usage
	}

	var ae *share.AccessError
	if errors.As(err, &ae) {
		switch ae.Kind {
		case share.Unauthorized:
			return "Access denied: this share needs a valid password"
		case share.NotFound:
			return "Share not found"
		default:
			if ae.Reason != "" {
				return "Share service error: " + ae.Reason
			}
			return "Share service error"
		}
	}

	if errors.Is(err, share.ErrPreviewUnavailable) {
		return "Preview is not available for this file type"
	}

	var ie *ingest.IngestError
	if errors.As(err, &ie) {
		return "Submission failed: " + ie.Reason
	}

	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		return "No such download"
	case errors.Is(err, resource.ErrReleased):
		return "The file view was already closed"
	case errors.Is(err, client.ErrUnauthorized):
		return "Session expired or invalid, please login again"
	case errors.Is(err, client.ErrUnavailable):
		return "Server is unreachable, try again later"
	case errors.Is(err, client.ErrNotFound):
		return "Not found"
	}
	return "Error: " + err.Error()
}
