package history

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
)

// MemoryRepository keeps history in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(_ context.Context, e *models.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *MemoryRepository) ListBySession(_ context.Context, sessionID string, limit int) ([]models.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.HistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].SessionID != sessionID {
			continue
		}
		out = append(out, r.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
