package sink

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquire(t *testing.T, name, content string) (*resource.Manager, *resource.Handle) {
	t.Helper()
	mgr := resource.NewManager(0, logging.Nop(), nil)
	h, err := mgr.Acquire(context.Background(), resource.SlotDownload, &models.Payload{
		Filename:    name,
		ContentType: "text/plain",
		Body:        io.NopCloser(strings.NewReader(content)),
	})
	require.NoError(t, err)
	return mgr, h
}

func TestLocalSink_SaveDoesNotOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	s, err := NewLocalSink(dir)
	require.NoError(t, err)

	_, h := acquire(t, "report.txt", "one")
	p1, err := s.Save(context.Background(), h)
	require.NoError(t, err)

	_, h2 := acquire(t, "report.txt", "two")
	p2, err := s.Save(context.Background(), h2)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), "report.txt"), p1)
	assert.Equal(t, filepath.Join(s.Dir(), "report (1).txt"), p2)

	b, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
}

func TestLocalSink_ReleasedHandle(t *testing.T) {
	s, err := NewLocalSink(t.TempDir())
	require.NoError(t, err)

	mgr, h := acquire(t, "a.txt", "x")
	mgr.Release(h)

	_, err = s.Save(context.Background(), h)
	require.ErrorIs(t, err, resource.ErrReleased)
	entries, _ := os.ReadDir(s.Dir())
	assert.Empty(t, entries)
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Sink_Save(t *testing.T) {
	fp := &fakePutter{}
	s := newS3Sink(fp, "bucket")
	s.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	_, h := acquire(t, "../evil/name.txt", "payload")
	loc, err := s.Save(context.Background(), h)
	require.NoError(t, err)

	key := *fp.in.Key
	assert.True(t, strings.HasPrefix(key, "downloads/2024/03/09/"), key)
	assert.True(t, strings.HasSuffix(key, "/name.txt"), key)
	assert.Equal(t, "s3://bucket/"+key, loc)
	assert.Equal(t, "payload", fp.body)
	assert.Equal(t, "text/plain", *fp.in.ContentType)
	assert.Equal(t, int64(7), *fp.in.ContentLength)

	fp.err = errors.New("access denied")
	_, err = s.Save(context.Background(), h)
	require.ErrorContains(t, err, "access denied")
}

func TestNewS3Sink_AgainstEndpoint(t *testing.T) {
	var mu sync.Mutex
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		method, path = r.Method, r.URL.Path
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Sink(context.Background(), S3Config{
		Bucket:    "files",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	_, h := acquire(t, "a.txt", "hello")
	_, err = s.Save(context.Background(), h)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasPrefix(path, "/files/downloads/"), path)
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	require.Error(t, err)
}
