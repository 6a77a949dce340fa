package recompute

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"erp/internal/metrics"
	"erp/internal/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options sizes the dispatcher.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Failure is a rebuild that returned an error.
type Failure struct {
	ProjectID uuid.UUID
	Err       error
}

// pendingSet is the merged category request for one queued project.
type pendingSet struct {
	all  bool
	cats map[model.SnapshotCategory]struct{}
}

func newPendingSet(categories []model.SnapshotCategory) *pendingSet {
	s := &pendingSet{cats: map[model.SnapshotCategory]struct{}{}}
	s.merge(categories)
	return s
}

func (s *pendingSet) merge(categories []model.SnapshotCategory) {
	if len(categories) == 0 {
		s.all = true
		return
	}
	for _, c := range categories {
		s.cats[c] = struct{}{}
	}
}

// list returns nil for "all categories", otherwise the set in rebuild order.
func (s *pendingSet) list() []model.SnapshotCategory {
	if s.all {
		return nil
	}
	out := make([]model.SnapshotCategory, 0, len(s.cats))
	for _, c := range model.AllSnapshotCategories {
		if _, ok := s.cats[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Dispatcher runs snapshot rebuilds on a bounded worker pool. Requests for a
// project that is already queued are merged into the queued request, and a
// full queue drops the request instead of blocking the writer.
type Dispatcher struct {
	target   Recomputer
	log      *slog.Logger
	metrics  *metrics.Recorder
	opts     Options
	queue    chan uuid.UUID
	failures chan Failure

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingSet
}

func NewDispatcher(target Recomputer, opts Options, log *slog.Logger, rec *metrics.Recorder) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Dispatcher{
		target:   target,
		log:      log.With("component", "recompute"),
		metrics:  rec,
		opts:     opts,
		queue:    make(chan uuid.UUID, opts.QueueSize),
		failures: make(chan Failure, opts.QueueSize),
		pending:  make(map[uuid.UUID]*pendingSet),
	}
}

// Enqueue implements Trigger.
func (d *Dispatcher) Enqueue(projectID uuid.UUID, categories ...model.SnapshotCategory) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if set, queued := d.pending[projectID]; queued {
		set.merge(categories)
		d.metrics.RecomputeCoalesced()
		return
	}

	select {
	case d.queue <- projectID:
		d.pending[projectID] = newPendingSet(categories)
	default:
		d.metrics.RecomputeDropped()
		d.log.Warn("recompute queue full, request dropped", "project_id", projectID, "categories", categories)
	}
}

// Pending reports how many projects are waiting for a worker.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Dispatcher) take(projectID uuid.UUID) []model.SnapshotCategory {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.pending[projectID]
	if !ok {
		return nil
	}
	delete(d.pending, projectID)
	return set.list()
}

// Run blocks until ctx is cancelled. Rebuilds already in flight get their
// own timeout and are allowed to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}
	g.Go(func() error {
		d.report(gctx)
		return nil
	})

	err := g.Wait()
	if n := d.Pending(); n > 0 {
		d.log.Warn("dispatcher stopped with queued projects", "pending", n)
	}
	return err
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case projectID := <-d.queue:
			d.runOne(ctx, projectID)
		}
	}
}

func (d *Dispatcher) runOne(ctx context.Context, projectID uuid.UUID) {
	categories := d.take(projectID)
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
	defer cancel()

	if err := d.target.Recompute(runCtx, projectID, categories...); err != nil {
		select {
		case d.failures <- Failure{ProjectID: projectID, Err: err}:
		default:
			d.log.Error("snapshot recompute failed", "project_id", projectID, "error", err)
		}
	}
}

func (d *Dispatcher) report(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-d.failures:
			d.log.Error("snapshot recompute failed", "project_id", f.ProjectID, "error", f.Err)
		}
	}
}
