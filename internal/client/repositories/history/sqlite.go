package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, e *models.HistoryEntry) error {
	query := `INSERT INTO history (id, session_id, filename, kind, status, error, job_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.SessionID, e.Filename, string(e.Kind), string(e.Status), e.Error, e.JobID, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.HistoryEntry, error) {
	query := `SELECT id, session_id, filename, kind, status, error, job_id, created_at
		FROM history WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select history: %w", err)
	}
	defer rows.Close()

	var result []models.HistoryEntry
	for rows.Next() {
		var (
			item      models.HistoryEntry
			kind      string
			status    string
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Filename, &kind, &status, &item.Error, &item.JobID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		item.Kind = models.IngestKind(kind)
		item.Status = models.HistoryStatus(status)
		item.CreatedAt = time.Unix(0, createdAt).UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return result, nil
}
