// Package services contains application services for the gophdisk client.
// This file defines the authentication service: login, session restore from
// the locally stored token, logout and a liveness probe.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/dbx"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the session token.
//   - Restore: reinstall a stored token if it has not expired.
//   - Logout: forget the stored session.
//   - Ping: check server liveness.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and
// the local metadata table.
type authService struct {
	client client.Client
	db     *sql.DB
	now    func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db, now: time.Now}
}

// Login exchanges credentials for a token and stores it with the username
// in a single transaction. password is wiped.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	defer common.WipeByteArray(password)

	token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SaveSession(ctx, metadata.Session{Token: token, Username: username})
	})
	if err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	return nil
}

// Restore installs the stored token on the client and returns the stored
// username. It returns client.ErrUnauthorized when there is no usable token;
// an expired token is removed.
func (a *authService) Restore(ctx context.Context) (string, error) {
	sess, err := metadata.NewSQLiteRepository(a.db).Session(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", client.ErrUnauthorized
	}

	if err := checkExpiry(sess.Token, a.now()); err != nil {
		if clearErr := a.Logout(ctx); clearErr != nil {
			return "", clearErr
		}
		return "", fmt.Errorf("%w: %w", client.ErrUnauthorized, err)
	}

	a.client.SetToken(sess.Token)
	return sess.Username, nil
}

// checkExpiry inspects the exp claim without verifying the signature; the
// server remains the authority on validity.
func checkExpiry(token string, now time.Time) error {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return errors.Join(common.ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return common.ErrTokenExpired
	}
	return nil
}

// Logout drops the stored session and the client's token.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetToken("")
	if err := metadata.NewSQLiteRepository(a.db).ClearSession(ctx); err != nil {
		return fmt.Errorf("session clearing error: %w", err)
	}
	return nil
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
