package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "dbx.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB);`)
	require.NoError(t, err)
	return db
}

func keys(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	return n
}

func storePair(ctx context.Context, tx DBTX) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('session.token', 'tok')`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('session.username', 'alice')`)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openDB(t)

	require.NoError(t, WithTx(context.Background(), db, nil, storePair))
	assert.Equal(t, 2, keys(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, storePair(ctx, tx))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, keys(t, db), "neither row may survive")
}

func TestWithTx_ConstraintFailureRollsBackEarlierWrites(t *testing.T) {
	db := openDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := storePair(ctx, tx); err != nil {
			return err
		}
		return storePair(ctx, tx)
	})
	require.Error(t, err)
	assert.Zero(t, keys(t, db))
}

func TestWithTx_FinishedTxIsNotReported(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, tx.(*sql.Tx).Rollback())
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NotContains(t, err.Error(), "rollback")
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db := openDB(t)

	assert.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, storePair(ctx, tx))
			panic("kaput")
		})
	})
	assert.Zero(t, keys(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
	assert.False(t, called)
}
