package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdisk/internal/dbx"
)

// SQLiteRepository keeps the session in the metadata table. Bind it to a
// transaction with dbx.WithTx when the token and username must change
// together.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Session(ctx context.Context) (*Session, error) {
	token, err := r.get(ctx, keyToken)
	if err != nil || token == nil {
		return nil, err
	}
	username, err := r.get(ctx, keyUsername)
	if err != nil {
		return nil, err
	}
	return &Session{Token: string(token), Username: string(username)}, nil
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, s Session) error {
	if s.Token == "" {
		return errors.New("session without token")
	}
	if err := r.set(ctx, keyToken, []byte(s.Token)); err != nil {
		return err
	}
	return r.set(ctx, keyUsername, []byte(s.Username))
}

// ClearSession removes the token and username in one statement. Clearing
// an empty store is not an error.
func (r *SQLiteRepository) ClearSession(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?)`, keyToken, keyUsername)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store session %s: %w", key, err)
	}
	return nil
}
