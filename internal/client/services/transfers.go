package services

import (
	"context"

	"github.com/dmitrijs2005/gophdisk/internal/client/ingest"
	"github.com/dmitrijs2005/gophdisk/internal/client/jobs"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/repositories/history"
)

// TransferService submits ingestion requests and hands resulting jobs to
// the tracker.
type TransferService interface {
	Submit(ctx context.Context, req models.IngestionRequest) (*models.SubmissionOutcome, error)
	History(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	Jobs() []models.Job
	Job(ctx context.Context, id string) (models.Job, error)
	Refresh(ctx context.Context) error
	// Reset forgets every tracked job when the session ends.
	Reset()
}

type transferService struct {
	dispatcher *ingest.Dispatcher
	tracker    *jobs.Tracker
	history    history.Repository
	sessionID  string
}

func NewTransferService(d *ingest.Dispatcher, t *jobs.Tracker, h history.Repository, sessionID string) TransferService {
	return &transferService{dispatcher: d, tracker: t, history: h, sessionID: sessionID}
}

// Submit dispatches req. A returned job id is registered with the tracker
// before Submit returns.
func (s *transferService) Submit(ctx context.Context, req models.IngestionRequest) (*models.SubmissionOutcome, error) {
	out, err := s.dispatcher.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if out.JobID != "" {
		s.tracker.Register(out.JobID, out.Filename, models.JobKind(out.Kind))
	}
	return out, nil
}

// History lists this session's submissions, newest first.
func (s *transferService) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return s.history.ListBySession(ctx, s.sessionID, limit)
}

func (s *transferService) Jobs() []models.Job {
	return s.tracker.Jobs()
}

// Refresh forces one poll, whether or not jobs are active.
func (s *transferService) Refresh(ctx context.Context) error {
	return s.tracker.Sync(ctx)
}

// Job fetches the current state of one job from the service.
func (s *transferService) Job(ctx context.Context, id string) (models.Job, error) {
	return s.tracker.Fetch(ctx, id)
}

func (s *transferService) Reset() {
	s.tracker.Reset()
}
