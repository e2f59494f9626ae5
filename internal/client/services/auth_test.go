package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func storedSession(t *testing.T, db *sql.DB) *metadata.Session {
	t.Helper()
	s, err := metadata.NewSQLiteRepository(db).Session(context.Background())
	require.NoError(t, err)
	return s
}

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestLogin_PersistsSessionAndWipesPassword(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginToken: "tok"}
	svc := NewAuthService(fc, db)

	pw := []byte("pw")
	require.NoError(t, svc.Login(context.Background(), "alice", pw))

	assert.Equal(t, "pw", fc.LastLoginPass)
	assert.Equal(t, []byte{0, 0}, pw)
	assert.Equal(t, &metadata.Session{Token: "tok", Username: "alice"}, storedSession(t, db))
}

func TestLogin_ErrorWrapped(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginErr: &client.APIError{StatusCode: 401, Message: "Invalid credentials"}}
	svc := NewAuthService(fc, db)

	err := svc.Login(context.Background(), "alice", []byte("bad"))
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Contains(t, err.Error(), "login error")
	assert.Nil(t, storedSession(t, db))
}

func TestRestore(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	svc := NewAuthService(fc, db).(*authService)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Restore(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)

	repo := metadata.NewSQLiteRepository(db)
	valid := makeToken(t, now.Add(time.Hour))
	require.NoError(t, repo.SaveSession(ctx, metadata.Session{Token: valid, Username: "alice"}))

	user, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, valid, fc.Token)

	require.NoError(t, repo.SaveSession(ctx, metadata.Session{Token: makeToken(t, now.Add(-time.Minute)), Username: "alice"}))
	_, err = svc.Restore(ctx)
	require.ErrorIs(t, err, client.ErrUnauthorized)
	require.ErrorIs(t, err, common.ErrTokenExpired)
	assert.Nil(t, storedSession(t, db), "expired token is removed")
	assert.Empty(t, fc.Token)

	require.NoError(t, repo.SaveSession(ctx, metadata.Session{Token: "garbage", Username: "alice"}))
	_, err = svc.Restore(ctx)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLogout_AndPing(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginToken: "tok", PingErr: errors.New("down")}
	svc := NewAuthService(fc, db)
	ctx := context.Background()

	require.NoError(t, svc.Login(ctx, "alice", []byte("pw")))
	require.NoError(t, svc.Logout(ctx))
	assert.Nil(t, storedSession(t, db))
	assert.Empty(t, fc.Token)

	require.EqualError(t, svc.Ping(ctx), "down")
}
