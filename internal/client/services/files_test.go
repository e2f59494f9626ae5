package services

import (
	"context"
	"os"
	"testing"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/client/share"
	"github.com/dmitrijs2005/gophdisk/internal/client/sink"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileService(t *testing.T, fc *fakeClient) (FileService, *resource.Manager, *sink.LocalSink) {
	t.Helper()
	mgr := resource.NewManager(0, logging.Nop(), nil)
	s, err := sink.NewLocalSink(t.TempDir())
	require.NoError(t, err)
	return NewFileService(fc, share.NewGate(fc, logging.Nop()), mgr, s), mgr, s
}

func TestFileService_OpenAndSave(t *testing.T) {
	fc := &fakeClient{Contents: map[int64]string{1: "hello", 2: "world"}}
	svc, mgr, _ := newFileService(t, fc)
	ctx := context.Background()

	h1, err := svc.Open(ctx, 1, models.ModePreview)
	require.NoError(t, err)
	h2, err := svc.Open(ctx, 2, models.ModePreview)
	require.NoError(t, err)
	assert.True(t, h1.Released(), "second preview revokes the first")
	assert.Same(t, h2, mgr.Current(resource.SlotPreview))

	path, err := svc.Save(ctx, h2)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "world", string(b))

	svc.Close(models.ModePreview)
	assert.True(t, h2.Released())

	_, err = svc.Open(ctx, 9, models.ModeDownload)
	require.Error(t, err)
}

func TestFileService_PreviewOnlyForVideoAndText(t *testing.T) {
	fc := &fakeClient{
		Files:        []models.StoredFile{{ID: 1, Filename: "archive.zip"}, {ID: 2, Filename: "clip.mp4"}},
		Contents:     map[int64]string{1: "PK", 2: "frames", 3: "blob"},
		ContentNames: map[int64]string{1: "archive.zip", 2: "clip.mp4", 3: "image.iso"},
	}
	svc, mgr, _ := newFileService(t, fc)
	ctx := context.Background()

	h, err := svc.Open(ctx, 1, models.ModePreview)
	require.ErrorIs(t, err, share.ErrPreviewUnavailable)
	assert.Nil(t, h)
	assert.Zero(t, fc.ContentCalls, "listed archive must not be fetched")
	assert.Nil(t, mgr.Current(resource.SlotPreview))

	// Not in the listing: rejected on the served filename, body closed.
	_, err = svc.Open(ctx, 3, models.ModePreview)
	require.ErrorIs(t, err, share.ErrPreviewUnavailable)
	assert.True(t, fc.LastBody.closed)
	assert.Nil(t, mgr.Current(resource.SlotPreview))

	h, err = svc.Open(ctx, 2, models.ModePreview)
	require.NoError(t, err)
	assert.Same(t, h, mgr.Current(resource.SlotPreview))

	// Downloads are not restricted.
	h, err = svc.Open(ctx, 1, models.ModeDownload)
	require.NoError(t, err)
	assert.Equal(t, "archive.zip", h.Filename())
}

func TestFileService_OpenShared(t *testing.T) {
	fc := &fakeClient{
		Shares: map[string]*models.ShareSession{
			"abc123": {Code: "abc123", Filename: "notes.txt", HasPassword: true},
		},
		SharePasswords: map[string]string{"abc123": "secret"},
	}
	svc, _, _ := newFileService(t, fc)
	ctx := context.Background()

	_, err := svc.OpenShared(ctx, "abc123", nil, models.ModeDownload)
	require.ErrorIs(t, err, share.ErrUnauthorized)

	h, err := svc.OpenShared(ctx, "abc123", []byte("secret"), models.ModePreview)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", h.Filename())
	assert.Equal(t, resource.SlotPreview, h.Slot())
	assert.Equal(t, []byte("shared:notes.txt"), h.Bytes())
}

func TestFileService_ShareAndDelete(t *testing.T) {
	fc := &fakeClient{Files: []models.StoredFile{{ID: 3, Filename: "a.txt"}}}
	svc, _, _ := newFileService(t, fc)
	ctx := context.Background()

	files, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)

	pw := []byte("pw")
	g, err := svc.Share(ctx, 3, pw)
	require.NoError(t, err)
	assert.True(t, g.HasPassword)
	assert.Equal(t, "pw", fc.LastSharePass)
	assert.Equal(t, []byte{0, 0}, pw)

	require.NoError(t, svc.Delete(ctx, 3))
	assert.Equal(t, int64(3), fc.DeletedID)
}
