package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()

	a.Releases.Inc()
	a.LiveHandles.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Releases))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Releases))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.LiveHandles))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.Submissions.WithLabelValues("ed2k", "success").Inc()
	m.Polls.WithLabelValues("error").Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `gophdisk_ingest_submissions_total{kind="ed2k",result="success"} 1`), text)
	assert.True(t, strings.Contains(text, `gophdisk_jobs_polls_total{result="error"} 2`), text)
}
