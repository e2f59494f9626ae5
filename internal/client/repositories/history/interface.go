package history

import (
	"context"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
)

// Repository stores history entries.
type Repository interface {
	// Append stores e. It never rewrites an existing entry.
	Append(ctx context.Context, e *models.HistoryEntry) error

	// ListBySession returns the session's entries, newest first. A
	// non-positive limit means no limit.
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.HistoryEntry, error)
}
