package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/ingest"
	"github.com/dmitrijs2005/gophdisk/internal/client/jobs"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/repositories/history"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/client/share"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCoreAgainstBackend(t *testing.T) {
	ts, st := newTestServer(t)
	_, err := st.AddUser("alice", "pw")
	require.NoError(t, err)
	ctx := context.Background()

	api := client.NewHTTPClient(ts.URL, 5*time.Second)
	require.NoError(t, api.Ping(ctx), "backend without a session is still reachable")
	_, err = api.Login(ctx, "alice", []byte("pw"))
	require.NoError(t, err)

	hist := history.NewMemoryRepository()
	d := ingest.NewDispatcher(api, hist, "session-1", logging.Nop(), nil)

	// ed2k submission becomes a tracked job
	out, err := d.Submit(ctx, models.Ed2kLink{Link: " ed2k://|file|movie.mkv|100|abc|/ "})
	require.NoError(t, err)
	require.NotEmpty(t, out.JobID)
	assert.Equal(t, "movie.mkv", out.Filename)

	tracker := jobs.NewTracker(api, time.Hour, logging.Nop(), nil)
	var progress []int
	tracker.SetUpdateCallback(func(j models.Job) { progress = append(progress, j.Progress) })
	tracker.Register(out.JobID, out.Filename, models.JobKindEd2k)

	st.Advance(60)
	require.NoError(t, tracker.Sync(ctx))
	st.Advance(60)
	require.NoError(t, tracker.Sync(ctx))

	job, ok := tracker.Job(out.JobID)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, []int{60, 100}, progress)
	assert.Empty(t, tracker.Active())

	// rejected submission is reported and recorded
	_, err = d.Submit(ctx, models.TorrentFile{Name: "x.torrent"})
	var ie *ingest.IngestError
	require.ErrorAs(t, err, &ie)

	// local upload is stored synchronously
	local, err := d.Submit(ctx, models.LocalFile{Name: "notes.txt", Data: []byte("hello")})
	require.NoError(t, err)
	require.NotNil(t, local.File)
	assert.Empty(t, local.JobID)

	entries, err := hist.ListBySession(ctx, "session-1", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	files, err := api.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	byName := map[string]models.StoredFile{}
	for _, f := range files {
		byName[f.Filename] = f
	}

	grant, err := api.CreateShare(ctx, byName["movie.mkv"].ID, []byte("s3cret"))
	require.NoError(t, err)
	assert.True(t, grant.HasPassword)
	open, err := api.CreateShare(ctx, byName["notes.txt"].ID, nil)
	require.NoError(t, err)
	assert.False(t, open.HasPassword)

	// shares are reachable without a session
	anon := client.NewHTTPClient(ts.URL, 5*time.Second)
	gate := share.NewGate(anon, logging.Nop())
	res := resource.NewManager(1<<20, logging.Nop(), nil)

	info, err := gate.FetchInfo(ctx, grant.Code)
	require.NoError(t, err)
	assert.Equal(t, "movie.mkv", info.Filename)
	assert.Equal(t, "alice", info.Username)
	assert.True(t, info.HasPassword)

	_, err = gate.Retrieve(ctx, grant.Code, []byte("wrong"), models.ModeDownload)
	assert.ErrorIs(t, err, share.ErrUnauthorized)

	p, err := gate.Retrieve(ctx, grant.Code, []byte("s3cret"), models.ModeDownload)
	require.NoError(t, err)
	h, err := res.Acquire(ctx, resource.SlotDownload, p)
	require.NoError(t, err)
	assert.Equal(t, "movie.mkv", h.Filename())
	assert.Equal(t, "ed2k payload of movie.mkv\n", string(h.Bytes()))

	p, err = gate.Retrieve(ctx, open.Code, nil, models.ModePreview)
	require.NoError(t, err)
	preview, err := res.Acquire(ctx, resource.SlotPreview, p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(preview.Bytes()))

	_, err = gate.FetchInfo(ctx, "zzzzzz")
	assert.ErrorIs(t, err, share.ErrNotFound)

	require.NoError(t, res.Close())
	assert.True(t, h.Released())
	assert.True(t, preview.Released())

	require.NoError(t, api.DeleteFile(ctx, byName["notes.txt"].ID))
	_, err = gate.FetchInfo(ctx, open.Code)
	assert.True(t, errors.Is(err, share.ErrNotFound))
}

func TestClientCoreFailedDownload(t *testing.T) {
	ts, st := newTestServer(t)
	_, err := st.AddUser("bob", "pw")
	require.NoError(t, err)
	ctx := context.Background()

	api := client.NewHTTPClient(ts.URL, 5*time.Second)
	_, err = api.Login(ctx, "bob", []byte("pw"))
	require.NoError(t, err)

	d := ingest.NewDispatcher(api, nil, "s", logging.Nop(), nil)
	out, err := d.Submit(ctx, models.TorrentFile{Name: "fail.bin.torrent", Metadata: []byte("d4:info")})
	require.NoError(t, err)
	assert.Equal(t, "fail.bin", out.Filename)

	tracker := jobs.NewTracker(api, time.Hour, logging.Nop(), nil)
	tracker.Register(out.JobID, out.Filename, models.JobKindTorrent)
	st.Advance(50)
	require.NoError(t, tracker.Sync(ctx))

	job, _ := tracker.Job(out.JobID)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, "no sources available", job.Error)
	assert.Empty(t, tracker.Active())
}
