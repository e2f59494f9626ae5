// Package resource owns in-memory payload buffers handed to preview and
// download surfaces, and guarantees they are revoked when superseded,
// closed or torn down.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophdisk/internal/client/metrics"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/dmitrijs2005/gophdisk/internal/netx"
	"github.com/google/uuid"
)

var (
	ErrClosed   = errors.New("resource manager closed")
	ErrReleased = errors.New("handle released")
	ErrNoBody   = errors.New("payload has no body")
)

// Manager keeps at most one live handle per slot.
type Manager struct {
	maxBytes int64
	log      logging.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	slots  map[Slot]*Handle
	closed bool
}

// NewManager returns a manager that refuses payloads larger than maxBytes.
// A non-positive maxBytes disables the limit.
func NewManager(maxBytes int64, log logging.Logger, m *metrics.Metrics) *Manager {
	if m == nil {
		m = metrics.New()
	}
	return &Manager{
		maxBytes: maxBytes,
		log:      log.With("component", "resource"),
		metrics:  m,
		slots:    make(map[Slot]*Handle),
	}
}

// Acquire reads p into memory, closes its body and installs the result as
// the slot's handle. The slot's previous handle is released before Acquire
// returns. When reading fails the previous handle stays in place.
func (m *Manager) Acquire(ctx context.Context, slot Slot, p *models.Payload) (*Handle, error) {
	if p == nil || p.Body == nil {
		return nil, ErrNoBody
	}
	defer p.Body.Close()

	if m.isClosed() {
		return nil, ErrClosed
	}

	data, err := netx.ReadAllWithLimit(ctxReader{ctx: ctx, r: p.Body}, m.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	h := &Handle{
		id:          uuid.NewString(),
		slot:        slot,
		filename:    p.Filename,
		contentType: p.ContentType,
		data:        data,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		h.revoke()
		return nil, ErrClosed
	}
	prev := m.slots[slot]
	m.slots[slot] = h
	m.metrics.LiveHandles.Inc()
	m.mu.Unlock()

	if prev != nil {
		m.Release(prev)
	}
	m.log.Debug(ctx, "handle acquired", "slot", slot, "handle", h.id, "bytes", len(data))
	return h, nil
}

// Release revokes h. Releasing a handle twice is a no-op.
func (m *Manager) Release(h *Handle) {
	if h == nil || !h.revoke() {
		return
	}
	m.mu.Lock()
	if m.slots[h.slot] == h {
		delete(m.slots, h.slot)
	}
	m.mu.Unlock()

	m.metrics.LiveHandles.Dec()
	m.metrics.Releases.Inc()
}

// ReleaseSlot revokes the slot's current handle, if any.
func (m *Manager) ReleaseSlot(slot Slot) {
	m.Release(m.Current(slot))
}

// Current returns the slot's live handle or nil.
func (m *Manager) Current(slot Slot) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[slot]
}

// Close releases every handle and makes further Acquire calls fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	handles := make([]*Handle, 0, len(m.slots))
	for _, h := range m.slots {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		m.Release(h)
	}
	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ctxReader aborts a long body read when ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
