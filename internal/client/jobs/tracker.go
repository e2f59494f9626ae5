// Package jobs tracks server-side acquisition jobs (torrent and ed2k) and
// polls the service while any of them is still running.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/client/metrics"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultInterval is the poll cadence while the active set is non-empty.
const DefaultInterval = 2 * time.Second

// DefaultPollTimeout bounds one shared listing request.
const DefaultPollTimeout = 30 * time.Second

// Lister fetches the full job listing visible to the session.
type Lister interface {
	ListDownloads(ctx context.Context) ([]models.Snapshot, error)
}

// Fetcher is implemented by listers that can look up a single job.
type Fetcher interface {
	GetDownload(ctx context.Context, id string) (*models.Snapshot, error)
}

// ErrUnknownJob is returned by Fetch for an id the tracker does not know
// after the lookup.
var ErrUnknownJob = errors.New("unknown job")

// Tracker owns the job registry and the active polling set. Only Tracker
// methods mutate them.
type Tracker struct {
	lister      Lister
	interval    time.Duration
	pollTimeout time.Duration
	log         logging.Logger
	metrics     *metrics.Metrics

	mu       sync.Mutex
	jobs     map[string]*models.Job
	order    []string
	active   map[string]struct{}
	onUpdate func(models.Job)
	stopped  bool
	// gen changes on Reset; polls started under an older gen are dropped.
	gen uint64

	// reconcileMu orders reconciliation (and its callbacks) against Stop.
	reconcileMu sync.Mutex

	sf   singleflight.Group
	wake chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewTracker returns an idle tracker. A non-positive interval selects
// DefaultInterval.
func NewTracker(lister Lister, interval time.Duration, log logging.Logger, m *metrics.Metrics) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if m == nil {
		m = metrics.New()
	}
	return &Tracker{
		lister:      lister,
		interval:    interval,
		pollTimeout: DefaultPollTimeout,
		log:         log.With("component", "jobs"),
		metrics:     m,
		jobs:        make(map[string]*models.Job),
		active:      make(map[string]struct{}),
		wake:        make(chan struct{}, 1),
	}
}

// SetPollTimeout bounds each listing request. Non-positive values are
// ignored.
func (t *Tracker) SetPollTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	t.mu.Lock()
	t.pollTimeout = d
	t.mu.Unlock()
}

// SetUpdateCallback installs fn, called after reconciliation for every job
// whose fields changed. fn must not call Reconcile, Sync or Stop.
func (t *Tracker) SetUpdateCallback(fn func(models.Job)) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

// Register starts tracking id as a starting job. Registering a known id is
// a no-op. The scheduler is woken so the first poll is not delayed.
func (t *Tracker) Register(id, filename string, kind models.JobKind) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if _, ok := t.jobs[id]; ok {
		t.mu.Unlock()
		return
	}
	t.jobs[id] = &models.Job{ID: id, Filename: filename, Kind: kind, Status: models.JobStatusStarting}
	t.order = append(t.order, id)
	t.active[id] = struct{}{}
	t.metrics.ActiveJobs.Set(float64(len(t.active)))
	t.mu.Unlock()

	t.log.Debug(context.Background(), "job registered", "job", id, "name", filename)
	t.signal()
}

func (t *Tracker) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Poll performs one listing round trip. Concurrent callers share a single
// outstanding request, which runs detached from any one caller's context
// and is bounded by the poll timeout. Each caller still returns as soon as
// its own ctx is done.
func (t *Tracker) Poll(ctx context.Context) ([]models.Snapshot, error) {
	t.mu.Lock()
	timeout := t.pollTimeout
	t.mu.Unlock()

	ch := t.sf.DoChan("poll", func() (any, error) {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		snaps, err := t.lister.ListDownloads(pctx)
		if err != nil {
			t.metrics.Polls.WithLabelValues("error").Inc()
			return nil, err
		}
		t.metrics.Polls.WithLabelValues("ok").Inc()
		return snaps, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]models.Snapshot), nil
	}
}

// Reconcile applies snapshots to the registry and recomputes the active
// set. Snapshots for locally terminal jobs and backward transitions are
// discarded, progress never decreases, and unknown statuses are skipped.
func (t *Tracker) Reconcile(snapshots []models.Snapshot) {
	t.reconcile(snapshots, 0, false)
}

// generation returns the current registry generation.
func (t *Tracker) generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// reconcile applies snapshots; when checkGen is set, a batch fetched before
// the last Reset is dropped.
func (t *Tracker) reconcile(snapshots []models.Snapshot, gen uint64, checkGen bool) {
	t.reconcileMu.Lock()
	defer t.reconcileMu.Unlock()

	t.mu.Lock()
	if t.stopped || (checkGen && gen != t.gen) {
		t.mu.Unlock()
		return
	}
	var changed []models.Job
	for _, s := range snapshots {
		if job, ok := t.apply(s); ok {
			changed = append(changed, job)
		}
	}
	clear(t.active)
	for id, j := range t.jobs {
		if j.Status.IsActive() {
			t.active[id] = struct{}{}
		}
	}
	t.metrics.ActiveJobs.Set(float64(len(t.active)))
	fn := t.onUpdate
	t.mu.Unlock()

	if fn == nil {
		return
	}
	for _, j := range changed {
		fn(j)
	}
}

// apply merges one snapshot; t.mu must be held.
func (t *Tracker) apply(s models.Snapshot) (models.Job, bool) {
	if !s.Status.Valid() {
		t.log.Warn(context.Background(), "unknown job status ignored", "job", s.ID, "status", s.Status)
		return models.Job{}, false
	}

	cur, seen := t.jobs[s.ID]
	if !seen {
		cur = &models.Job{ID: s.ID, Kind: s.Type, Status: models.JobStatusStarting}
	} else if !cur.Status.CanTransition(s.Status) {
		if !cur.Status.IsTerminal() {
			t.log.Debug(context.Background(), "stale job snapshot discarded", "job", s.ID, "from", cur.Status, "to", s.Status)
		}
		return models.Job{}, false
	}

	next := *cur
	next.Status = s.Status
	if s.Filename != "" {
		next.Filename = s.Filename
	}
	if next.Kind == "" {
		next.Kind = s.Type
	}
	next.Progress = max(cur.Progress, min(max(s.Progress, 0), 100))
	if s.Status == models.JobStatusCompleted {
		next.Progress = 100
	}
	next.Error = ""
	if s.Status == models.JobStatusError {
		next.Error = s.Error
	}

	if !seen {
		t.order = append(t.order, s.ID)
	}
	t.jobs[s.ID] = &next
	if seen && next == *cur {
		return models.Job{}, false
	}
	return next, true
}

// Sync polls once and reconciles, regardless of the active set. It is used
// at session start to pick up jobs submitted earlier.
func (t *Tracker) Sync(ctx context.Context) error {
	gen := t.generation()
	snaps, err := t.Poll(ctx)
	if err != nil {
		return err
	}
	t.reconcile(snaps, gen, true)
	t.signal()
	return nil
}

// Fetch refreshes a single job and returns its reconciled state. Listers
// that cannot look up one job fall back to a full Sync.
func (t *Tracker) Fetch(ctx context.Context, id string) (models.Job, error) {
	f, ok := t.lister.(Fetcher)
	if !ok {
		if err := t.Sync(ctx); err != nil {
			return models.Job{}, err
		}
	} else {
		gen := t.generation()
		s, err := f.GetDownload(ctx, id)
		if err != nil {
			return models.Job{}, err
		}
		t.reconcile([]models.Snapshot{*s}, gen, true)
		t.signal()
	}

	j, ok := t.Job(id)
	if !ok {
		return models.Job{}, ErrUnknownJob
	}
	return j, nil
}

// Jobs returns a copy of every known job in discovery order.
func (t *Tracker) Jobs() []models.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Job, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.jobs[id])
	}
	return out
}

// Job returns the job with the given id.
func (t *Tracker) Job(id string) (models.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

// Active returns the ids of the jobs still being polled, in discovery order.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.active))
	for _, id := range t.order {
		if _, ok := t.active[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (t *Tracker) hasActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active) > 0
}

// Start launches the scheduler goroutine. Calling it more than once has no
// effect.
func (t *Tracker) Start(ctx context.Context) {
	t.startOnce.Do(func() {
		ctx, t.cancel = context.WithCancel(ctx)
		t.done = make(chan struct{})
		go t.run(ctx)
	})
}

// Stop cancels the scheduler, waits for it to exit and drops the registry.
// No reconciliation or callback runs after Stop returns.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		// Prevent a later Start from launching a loop.
		t.startOnce.Do(func() {})
		if t.cancel != nil {
			t.cancel()
			<-t.done
		}

		t.reconcileMu.Lock()
		t.mu.Lock()
		t.stopped = true
		t.jobs = make(map[string]*models.Job)
		t.order = nil
		clear(t.active)
		t.onUpdate = nil
		t.metrics.ActiveJobs.Set(0)
		t.mu.Unlock()
		t.reconcileMu.Unlock()
	})
}

// Reset drops every job and empties the active set, so the scheduler goes
// idle. Unlike Stop the tracker stays usable: the loop keeps running and
// later registrations are polled as usual. Polls already in flight are
// discarded when they return.
func (t *Tracker) Reset() {
	t.reconcileMu.Lock()
	t.mu.Lock()
	t.gen++
	t.jobs = make(map[string]*models.Job)
	t.order = nil
	clear(t.active)
	t.metrics.ActiveJobs.Set(0)
	t.mu.Unlock()
	t.reconcileMu.Unlock()

	t.log.Debug(context.Background(), "job registry reset")
	t.signal()
}

// run is the scheduler. While the active set is empty it blocks without
// issuing requests. When the set becomes non-empty it polls immediately,
// then re-arms the timer only after each poll returns.
func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)

	timer := time.NewTimer(t.interval)
	timer.Stop()
	defer timer.Stop()

	var tick <-chan time.Time
	rearm := func() {
		if t.hasActive() {
			timer.Reset(t.interval)
			tick = timer.C
		} else {
			tick = nil
		}
	}

	for {
		if tick == nil && t.hasActive() {
			t.pollOnce(ctx)
			if ctx.Err() != nil {
				return
			}
			rearm()
		}

		select {
		case <-ctx.Done():
			return
		case <-t.wake:
			if tick != nil && !t.hasActive() {
				timer.Stop()
				tick = nil
			}
		case <-tick:
			if t.hasActive() {
				t.pollOnce(ctx)
				if ctx.Err() != nil {
					return
				}
			}
			rearm()
		}
	}
}

func (t *Tracker) pollOnce(ctx context.Context) {
	gen := t.generation()
	snaps, err := t.Poll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Warn(ctx, "job poll failed", "error", err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	t.reconcile(snaps, gen, true)
}
