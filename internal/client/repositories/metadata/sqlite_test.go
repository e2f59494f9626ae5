package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophdisk/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB);`)
	require.NoError(t, err)
	return db
}

func TestSession_SaveReplaceClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	s, err := r.Session(ctx)
	require.NoError(t, err)
	require.Nil(t, s)

	require.NoError(t, r.SaveSession(ctx, Session{Token: "old", Username: "alice"}))
	require.NoError(t, r.SaveSession(ctx, Session{Token: "new", Username: "bob"}))

	s, err = r.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Session{Token: "new", Username: "bob"}, s)

	require.NoError(t, r.ClearSession(ctx))
	require.NoError(t, r.ClearSession(ctx))
	s, err = r.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.Error(t, r.SaveSession(ctx, Session{Username: "carol"}))
}

func TestSession_ClearLeavesOtherKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO metadata(key, value) VALUES ('other', 'x');`)
	require.NoError(t, err)
	require.NoError(t, r.SaveSession(ctx, Session{Token: "t", Username: "u"}))
	require.NoError(t, r.ClearSession(ctx))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSession_SaveIsAtomicInTx(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	require.NoError(t, NewSQLiteRepository(db).SaveSession(ctx, Session{Token: "keep", Username: "alice"}))

	boom := errors.New("boom")
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx).SaveSession(ctx, Session{Token: "lost", Username: "bob"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	s, err := NewSQLiteRepository(db).Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Session{Token: "keep", Username: "alice"}, s)
}

func TestSQLiteRepository_ErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Session(ctx)
	require.ErrorContains(t, err, "failed to read session session.token")
	require.ErrorContains(t, r.SaveSession(ctx, Session{Token: "t"}), "failed to store session session.token")
	require.ErrorContains(t, r.ClearSession(ctx), "failed to clear session")
}
