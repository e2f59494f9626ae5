package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophdisk/internal/client/metrics"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/dmitrijs2005/gophdisk/internal/netx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func payload(name, content string) (*models.Payload, *trackingBody) {
	b := &trackingBody{Reader: strings.NewReader(content)}
	return &models.Payload{Filename: name, ContentType: "text/plain", Body: b}, b
}

func newManager(limit int64) (*Manager, *metrics.Metrics) {
	m := metrics.New()
	return NewManager(limit, logging.Nop(), m), m
}

func TestAcquire_SameSlotReleasesPrevious(t *testing.T) {
	mgr, m := newManager(0)
	ctx := context.Background()

	p1, body1 := payload("a.txt", "first")
	h1, err := mgr.Acquire(ctx, SlotPreview, p1)
	require.NoError(t, err)
	assert.True(t, body1.closed)
	assert.Equal(t, []byte("first"), h1.Bytes())

	p2, _ := payload("b.txt", "second")
	h2, err := mgr.Acquire(ctx, SlotPreview, p2)
	require.NoError(t, err)

	assert.True(t, h1.Released())
	assert.Nil(t, h1.Bytes())
	assert.False(t, h2.Released())
	assert.Same(t, h2, mgr.Current(SlotPreview))
	assert.NotEqual(t, h1.ID(), h2.ID())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveHandles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Releases))
}

func TestAcquire_SlotsAreIndependent(t *testing.T) {
	mgr, m := newManager(0)
	ctx := context.Background()

	pv, _ := payload("a.txt", "a")
	dl, _ := payload("b.bin", "b")
	hp, err := mgr.Acquire(ctx, SlotPreview, pv)
	require.NoError(t, err)
	hd, err := mgr.Acquire(ctx, SlotDownload, dl)
	require.NoError(t, err)

	assert.False(t, hp.Released())
	assert.False(t, hd.Released())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LiveHandles))
}

func TestRelease_IsIdempotent(t *testing.T) {
	mgr, m := newManager(0)
	p, _ := payload("a.txt", "x")
	h, err := mgr.Acquire(context.Background(), SlotPreview, p)
	require.NoError(t, err)

	mgr.Release(h)
	mgr.Release(h)
	mgr.Release(nil)

	assert.Nil(t, mgr.Current(SlotPreview))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Releases))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LiveHandles))

	_, err = h.WriteTo(io.Discard)
	require.ErrorIs(t, err, ErrReleased)
}

func TestRelease_StaleHandleKeepsCurrent(t *testing.T) {
	mgr, _ := newManager(0)
	ctx := context.Background()
	p1, _ := payload("a.txt", "1")
	h1, _ := mgr.Acquire(ctx, SlotPreview, p1)
	p2, _ := payload("b.txt", "2")
	h2, _ := mgr.Acquire(ctx, SlotPreview, p2)

	mgr.Release(h1)
	assert.Same(t, h2, mgr.Current(SlotPreview))
}

func TestAcquire_ReadFailureKeepsPrevious(t *testing.T) {
	mgr, m := newManager(4)
	ctx := context.Background()

	p1, _ := payload("a.txt", "ok")
	h1, err := mgr.Acquire(ctx, SlotPreview, p1)
	require.NoError(t, err)

	body := &trackingBody{Reader: failingReader{}}
	_, err = mgr.Acquire(ctx, SlotPreview, &models.Payload{Filename: "b", Body: body})
	require.Error(t, err)
	assert.True(t, body.closed)

	big, _ := payload("big.bin", "too large")
	_, err = mgr.Acquire(ctx, SlotPreview, big)
	require.True(t, netx.IsResponseTooLarge(err))

	assert.Same(t, h1, mgr.Current(SlotPreview))
	assert.False(t, h1.Released())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Releases))
}

func TestAcquire_CanceledContext(t *testing.T) {
	mgr, _ := newManager(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := payload("a.txt", "x")
	_, err := mgr.Acquire(ctx, SlotPreview, p)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReleaseSlotAndClose(t *testing.T) {
	mgr, m := newManager(0)
	ctx := context.Background()

	p1, _ := payload("a.txt", "a")
	h1, _ := mgr.Acquire(ctx, SlotPreview, p1)
	mgr.ReleaseSlot(SlotPreview)
	assert.True(t, h1.Released())
	mgr.ReleaseSlot(SlotPreview)

	p2, _ := payload("b.txt", "b")
	h2, _ := mgr.Acquire(ctx, SlotDownload, p2)
	require.NoError(t, mgr.Close())
	assert.True(t, h2.Released())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LiveHandles))

	p3, body3 := payload("c.txt", "c")
	_, err := mgr.Acquire(ctx, SlotPreview, p3)
	require.ErrorIs(t, err, ErrClosed)
	assert.True(t, body3.closed)
}

func TestHandle_WriteTo(t *testing.T) {
	mgr, _ := newManager(0)
	p, _ := payload("a.txt", "hello")
	h, err := mgr.Acquire(context.Background(), SlotDownload, p)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "hello", buf.String())
	assert.Equal(t, 5, h.Size())
	assert.Equal(t, "a.txt", h.Filename())
	assert.Equal(t, SlotDownload, h.Slot())
}

func TestAcquire_NoBody(t *testing.T) {
	mgr, _ := newManager(0)
	_, err := mgr.Acquire(context.Background(), SlotPreview, &models.Payload{})
	require.ErrorIs(t, err, ErrNoBody)
}
