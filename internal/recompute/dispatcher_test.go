package recompute

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"erp/internal/logging"
	"erp/internal/metrics"
	"erp/internal/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	projectID  uuid.UUID
	categories []model.SnapshotCategory
}

type fakeRecomputer struct {
	mu    sync.Mutex
	calls []call
	err   error
	done  chan struct{}
}

func newFakeRecomputer(err error) *fakeRecomputer {
	return &fakeRecomputer{err: err, done: make(chan struct{}, 64)}
}

func (f *fakeRecomputer) Recompute(_ context.Context, projectID uuid.UUID, categories ...model.SnapshotCategory) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{projectID: projectID, categories: categories})
	f.mu.Unlock()
	f.done <- struct{}{}
	return f.err
}

func (f *fakeRecomputer) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func waitCalls(t *testing.T, f *fakeRecomputer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for recompute %d of %d", i+1, n)
		}
	}
}

func TestDispatcher_CoalescesPerProject(t *testing.T) {
	target := newFakeRecomputer(nil)
	rec := metrics.New()
	d := NewDispatcher(target, Options{Workers: 1, QueueSize: 8, Timeout: time.Second}, logging.Discard(), rec)

	p1, p2 := uuid.New(), uuid.New()
	d.Enqueue(p1, model.CategoryFinancial)
	d.Enqueue(p1, model.CategoryProcurement, model.CategoryFinancial)
	d.Enqueue(p2, model.CategoryVariation)
	require.Equal(t, 2, d.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	waitCalls(t, target, 2)
	calls := target.snapshot()
	require.Len(t, calls, 2)

	byProject := map[uuid.UUID][]model.SnapshotCategory{}
	for _, c := range calls {
		byProject[c.projectID] = c.categories
	}
	assert.Equal(t, []model.SnapshotCategory{model.CategoryFinancial, model.CategoryProcurement}, byProject[p1])
	assert.Equal(t, []model.SnapshotCategory{model.CategoryVariation}, byProject[p2])
	assert.Equal(t, 0, d.Pending())
}

func TestDispatcher_EmptyCategoriesMeansAll(t *testing.T) {
	target := newFakeRecomputer(nil)
	d := NewDispatcher(target, Options{Workers: 2, QueueSize: 4}, logging.Discard(), nil)

	p := uuid.New()
	d.Enqueue(p, model.CategoryTask)
	d.Enqueue(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	waitCalls(t, target, 1)
	calls := target.snapshot()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].categories)
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	target := newFakeRecomputer(nil)
	rec := metrics.New()
	d := NewDispatcher(target, Options{Workers: 1, QueueSize: 1}, logging.Discard(), rec)

	d.Enqueue(uuid.New(), model.CategoryFinancial)
	d.Enqueue(uuid.New(), model.CategoryFinancial)

	assert.Equal(t, 1, d.Pending())
	expected := `
# HELP erp_snapshot_recompute_dropped_total Recompute requests dropped because the queue was full.
# TYPE erp_snapshot_recompute_dropped_total counter
erp_snapshot_recompute_dropped_total 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "erp_snapshot_recompute_dropped_total"))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDispatcher_FailuresAreLoggedNotPropagated(t *testing.T) {
	target := newFakeRecomputer(errors.New("carbon table missing"))
	var out syncBuffer
	d := NewDispatcher(target, Options{Workers: 1, QueueSize: 4}, logging.NewWithWriter(&out, "info", "text"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	d.Enqueue(uuid.New(), model.CategoryCarbon)
	waitCalls(t, target, 1)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "carbon table missing")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestNoop(t *testing.T) {
	var trig Trigger = Noop{}
	assert.NotPanics(t, func() { trig.Enqueue(uuid.New(), model.CategoryHS) })
}
