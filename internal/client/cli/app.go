package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/config"
	"github.com/dmitrijs2005/gophdisk/internal/client/ingest"
	"github.com/dmitrijs2005/gophdisk/internal/client/jobs"
	"github.com/dmitrijs2005/gophdisk/internal/client/metrics"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/repositories/history"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/client/services"
	"github.com/dmitrijs2005/gophdisk/internal/client/share"
	"github.com/dmitrijs2005/gophdisk/internal/client/sink"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/google/uuid"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config    *config.Config
	log       logging.Logger
	out       io.Writer
	reader    *bufio.Reader
	db        *sql.DB
	metrics   *metrics.Metrics
	tracker   *jobs.Tracker
	resources *resource.Manager

	authService     services.AuthService
	fileService     services.FileService
	transferService services.TransferService

	mu       sync.RWMutex
	userName string
	mode     Mode
}

// NewApp opens the local database and wires the client core.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	s, err := newSink(ctx, c)
	if err != nil {
		db.Close()
		return nil, err
	}

	m := metrics.New()
	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	sessionID := uuid.NewString()
	hist := history.NewSQLiteRepository(db)

	dispatcher := ingest.NewDispatcher(api, hist, sessionID, log, m)
	tracker := jobs.NewTracker(api, c.PollInterval, log, m)
	tracker.SetPollTimeout(c.RequestTimeout)
	gate := share.NewGate(api, log)
	resources := resource.NewManager(c.MaxPayloadBytes, log, m)

	a := &App{
		config:          c,
		log:             log,
		out:             os.Stdout,
		reader:          bufio.NewReader(os.Stdin),
		db:              db,
		metrics:         m,
		tracker:         tracker,
		resources:       resources,
		authService:     services.NewAuthService(api, db),
		fileService:     services.NewFileService(api, gate, resources, s),
		transferService: services.NewTransferService(dispatcher, tracker, hist, sessionID),
		mode:            ModeOffline,
	}
	tracker.SetUpdateCallback(a.onJobUpdate)
	return a, nil
}

func newSink(ctx context.Context, c *config.Config) (sink.Sink, error) {
	if c.S3Bucket != "" {
		return sink.NewS3Sink(ctx, sink.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
	}
	return sink.NewLocalSink(c.DownloadDir)
}

// Metrics exposes the collectors so the caller can serve them.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userName != ""
}

func (a *App) currentUser() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userName
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

func (a *App) status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.userName == "" {
		return string(a.mode)
	}
	return fmt.Sprintf("%s@%s", a.userName, a.mode)
}

// Run restores a stored session, starts background work and blocks in the
// REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.shutdown()

	pctx, pcancel := context.WithTimeout(ctx, 3*time.Second)
	if err := a.authService.Ping(pctx); err == nil {
		a.setMode(ModeOnline)
	}
	pcancel()

	if name, err := a.authService.Restore(ctx); err == nil {
		a.setUser(name)
		if err := a.transferService.Refresh(ctx); err != nil {
			a.log.Warn(ctx, "initial job sync failed", "error", err)
		}
	}

	a.tracker.Start(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) shutdown() {
	a.tracker.Stop()
	if err := a.resources.Close(); err != nil {
		a.log.Warn(context.Background(), "release resources", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "close database", "error", err)
	}
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// connectivity mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.authService.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) onJobUpdate(j models.Job) {
	switch j.Status {
	case models.JobStatusCompleted:
		printlnFn(fmt.Sprintf("[%s] %s completed", j.ID, j.Filename))
	case models.JobStatusError:
		printlnFn(fmt.Sprintf("[%s] %s failed: %s", j.ID, j.Filename, j.Error))
	default:
		printlnFn(fmt.Sprintf("[%s] %s %s %d%%", j.ID, j.Filename, j.Status, j.Progress))
	}
}
