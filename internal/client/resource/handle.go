package resource

import (
	"bytes"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophdisk/internal/common"
)

// Slot names a surface that shows at most one payload at a time.
type Slot string

const (
	SlotPreview  Slot = "preview"
	SlotDownload Slot = "download"
)

// Handle is a revocable reference to an in-memory payload. Its contents
// are wiped on release.
type Handle struct {
	id          string
	slot        Slot
	filename    string
	contentType string

	mu       sync.RWMutex
	data     []byte
	released bool
}

func (h *Handle) ID() string          { return h.id }
func (h *Handle) Slot() Slot          { return h.slot }
func (h *Handle) Filename() string    { return h.filename }
func (h *Handle) ContentType() string { return h.contentType }

// Size is the payload length, zero after release.
func (h *Handle) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.data)
}

// Released reports whether the handle has been revoked.
func (h *Handle) Released() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.released
}

// WriteTo copies the payload to w. It fails with ErrReleased once the
// handle has been revoked.
func (h *Handle) WriteTo(w io.Writer) (int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return 0, ErrReleased
	}
	return bytes.NewReader(h.data).WriteTo(w)
}

// Bytes returns a copy of the payload, or nil after release.
func (h *Handle) Bytes() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.released {
		return nil
	}
	return bytes.Clone(h.data)
}

// revoke wipes the buffer. It returns false if the handle was already
// released.
func (h *Handle) revoke() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return false
	}
	h.released = true
	common.WipeByteArray(h.data)
	h.data = nil
	return true
}
