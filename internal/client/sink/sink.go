// Package sink persists downloaded payload handles, either into a local
// directory or into an S3-compatible bucket.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/filex"
)

// Sink stores the contents of a handle and returns where it went.
type Sink interface {
	Save(ctx context.Context, h *resource.Handle) (string, error)
}

// LocalSink writes into a directory without overwriting existing files.
type LocalSink struct {
	dir string
}

// NewLocalSink creates dir if needed.
func NewLocalSink(dir string) (*LocalSink, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalSink{dir: abs}, nil
}

func (s *LocalSink) Dir() string { return s.dir }

func (s *LocalSink) Save(_ context.Context, h *resource.Handle) (string, error) {
	path, err := filex.UniquePath(s.dir, h.Filename())
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := h.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
