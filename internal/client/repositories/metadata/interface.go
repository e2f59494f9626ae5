// Package metadata persists the login that survives between CLI runs: the
// bearer token and the name it was issued to. Both live as rows of the
// local metadata key/value table.
package metadata

import (
	"context"
)

const (
	keyToken    = "session.token"
	keyUsername = "session.username"
)

// Session is a stored login.
type Session struct {
	Token    string
	Username string
}

// Repository stores at most one session. Session returns (nil, nil) when no
// token is stored.
type Repository interface {
	Session(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s Session) error
	ClearSession(ctx context.Context) error
}
