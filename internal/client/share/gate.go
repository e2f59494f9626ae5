// Package share retrieves files published under a share code, optionally
// behind a password.
package share

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
)

// API is the part of the storage API the gate needs.
type API interface {
	ShareInfo(ctx context.Context, code string) (*models.ShareSession, error)
	ShareContent(ctx context.Context, code string, password []byte, mode models.RetrievalMode) (*models.Payload, error)
}

// Gate mediates access to shared files. It never prompts: collecting a
// password when HasPassword is set is the caller's job.
type Gate struct {
	api API
	log logging.Logger
}

func NewGate(api API, log logging.Logger) *Gate {
	return &Gate{api: api, log: log.With("component", "share")}
}

// FetchInfo returns the unauthenticated metadata of a share.
func (g *Gate) FetchInfo(ctx context.Context, code string) (*models.ShareSession, error) {
	if code == "" {
		return nil, &AccessError{Kind: NotFound, Reason: "empty share code"}
	}
	s, err := g.api.ShareInfo(ctx, code)
	if err != nil {
		return nil, g.mapError(ctx, code, err)
	}
	return s, nil
}

// Retrieve fetches the shared content. password may be nil and is wiped
// before Retrieve returns. Preview is refused locally for files that are
// neither video nor text.
func (g *Gate) Retrieve(ctx context.Context, code string, password []byte, mode models.RetrievalMode) (*models.Payload, error) {
	defer common.WipeByteArray(password)

	if mode == models.ModePreview {
		info, err := g.FetchInfo(ctx, code)
		if err != nil {
			return nil, err
		}
		if !models.Classify(info.Filename).Previewable() {
			return nil, ErrPreviewUnavailable
		}
	}

	p, err := g.api.ShareContent(ctx, code, password, mode)
	if err != nil {
		return nil, g.mapError(ctx, code, err)
	}
	return p, nil
}

func (g *Gate) mapError(ctx context.Context, code string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	reason := ""
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		reason = apiErr.Message
	}

	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return &AccessError{Kind: Unauthorized, Reason: reason, Err: err}
	case errors.Is(err, client.ErrNotFound):
		return &AccessError{Kind: NotFound, Reason: reason, Err: err}
	default:
		g.log.Warn(ctx, "share access failed", "code", code, "error", err)
		if reason == "" {
			reason = err.Error()
		}
		return &AccessError{Kind: ServerError, Reason: reason, Err: err}
	}
}
