// Package ingest turns ingestion requests into upload submissions and
// records every attempt in the history log.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/metrics"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/repositories/history"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/google/uuid"
)

// Uploader posts a normalized upload form.
type Uploader interface {
	Upload(ctx context.Context, form *models.UploadForm) (*models.UploadResponse, error)
}

// Dispatcher submits ingestion requests. It never retries.
type Dispatcher struct {
	uploader  Uploader
	history   history.Repository
	sessionID string
	log       logging.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDispatcher(u Uploader, h history.Repository, sessionID string, log logging.Logger, m *metrics.Metrics) *Dispatcher {
	if m == nil {
		m = metrics.New()
	}
	return &Dispatcher{
		uploader:  u,
		history:   h,
		sessionID: sessionID,
		log:       log.With("component", "ingest"),
		metrics:   m,
		now:       time.Now,
	}
}

// Normalize validates req locally and maps it to its multipart framing.
func Normalize(req models.IngestionRequest) (*models.UploadForm, error) {
	switch r := req.(type) {
	case models.LocalFile:
		if strings.TrimSpace(r.Name) == "" {
			return nil, invalid("file name is empty")
		}
		return &models.UploadForm{FileField: "file", FileName: r.Name, Content: r.Data}, nil
	case models.TorrentFile:
		if len(r.Metadata) == 0 {
			return nil, invalid("torrent file is empty")
		}
		name := r.Name
		if strings.TrimSpace(name) == "" {
			name = "upload.torrent"
		}
		return &models.UploadForm{
			Type:      string(models.JobKindTorrent),
			FileField: "torrent_file",
			FileName:  name,
			Content:   r.Metadata,
		}, nil
	case models.Ed2kLink:
		link := strings.TrimSpace(r.Link)
		if !strings.HasPrefix(link, common.Ed2kScheme) {
			return nil, invalid("ed2k link must start with " + common.Ed2kScheme)
		}
		return &models.UploadForm{Type: string(models.JobKindEd2k), Link: link}, nil
	case nil:
		return nil, invalid("no request")
	default:
		return nil, invalid(fmt.Sprintf("unsupported request %T", req))
	}
}

func invalid(reason string) *IngestError {
	return &IngestError{Reason: reason, Err: ErrInvalidRequest}
}

// Submit posts req and returns the outcome. Torrent and ed2k outcomes carry
// the job id the caller must register with the tracker; local uploads are
// complete on return. Exactly one history entry is appended per call.
func (d *Dispatcher) Submit(ctx context.Context, req models.IngestionRequest) (*models.SubmissionOutcome, error) {
	out, err := d.submit(ctx, req)

	entry := &models.HistoryEntry{
		ID:        uuid.NewString(),
		SessionID: d.sessionID,
		CreatedAt: d.now().UTC(),
	}
	if req != nil {
		entry.Kind = req.Kind()
		entry.Filename = req.DisplayName()
	}
	result := string(models.HistorySuccess)
	if err != nil {
		var ie *IngestError
		if errors.As(err, &ie) {
			entry.Error = ie.Reason
		} else {
			entry.Error = err.Error()
		}
		entry.Status = models.HistoryError
		result = string(models.HistoryError)
		d.log.Warn(ctx, "submission failed", "kind", entry.Kind, "name", entry.Filename, "error", entry.Error)
	} else {
		entry.Status = models.HistorySuccess
		entry.Filename = out.Filename
		entry.JobID = out.JobID
		d.log.Info(ctx, "submission accepted", "kind", entry.Kind, "name", out.Filename, "job", out.JobID)
	}
	d.metrics.Submissions.WithLabelValues(string(entry.Kind), result).Inc()

	if d.history != nil {
		if herr := d.history.Append(ctx, entry); herr != nil {
			d.log.Error(ctx, "history append failed", "error", herr)
		}
	}

	return out, err
}

func (d *Dispatcher) submit(ctx context.Context, req models.IngestionRequest) (*models.SubmissionOutcome, error) {
	form, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	resp, err := d.uploader.Upload(ctx, form)
	if err != nil {
		return nil, &IngestError{Reason: reason(err), Err: err}
	}

	out := &models.SubmissionOutcome{Kind: req.Kind(), Filename: resp.Filename}
	if out.Filename == "" {
		out.Filename = req.DisplayName()
	}

	switch r := req.(type) {
	case models.LocalFile:
		out.File = &models.StoredFile{
			Filename:       out.Filename,
			FileSize:       int64(len(r.Data)),
			OriginalSize:   resp.OriginalSize,
			CompressedSize: resp.CompressedSize,
			CreatedAt:      d.now().UTC(),
		}
	default:
		if resp.DownloadID == "" {
			return nil, &IngestError{Reason: ErrMissingJobID.Error(), Err: ErrMissingJobID}
		}
		out.JobID = resp.DownloadID
	}
	return out, nil
}

// reason prefers the server-provided message.
func reason(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, client.ErrUnavailable) {
		return client.ErrUnavailable.Error()
	}
	return err.Error()
}
