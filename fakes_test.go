package sqlbroker

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/coregx/sqlbroker/model"
)

// fakeStore is an in-memory messenger table shared by every repository it hands out.
type fakeStore struct {
	mu     sync.Mutex
	rows   []model.Message
	nextID int64
	tables []string

	ensureCalls int
	findCalls   int

	ensureErr error
	latestErr error
	insertErr error
	findErr   error
	deleteErr error

	// Set with block; Insert and FindAfter wait on them outside mu.
	insertGate *gate
	findGate   *gate
}

// gate holds an operation until it is opened.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
}

func (g *gate) open() {
	close(g.release)
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) factory() RepositoryFactory {
	return func(_ *sql.DB, table string) MessageRepository {
		s.mu.Lock()
		s.tables = append(s.tables, table)
		s.mu.Unlock()
		return &fakeRepo{store: s}
	}
}

// put stores a raw row as another instance would.
func (s *fakeStore) put(channel, msg string, at time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := model.NewMessage(channel, msg, at)
	m.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, m)
	return m.ID
}

func (s *fakeStore) ids() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.rows))
	for _, row := range s.rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fakeRepo struct {
	store *fakeStore
}

func (r *fakeRepo) EnsureTable(_ context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.ensureCalls++
	return r.store.ensureErr
}

func (r *fakeRepo) LatestID(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.latestErr != nil {
		return NoWatermark, r.store.latestErr
	}
	latest := NoWatermark
	for _, row := range r.store.rows {
		if row.ID > latest {
			latest = row.ID
		}
	}
	return latest, nil
}

func (r *fakeRepo) Insert(_ context.Context, m *model.Message) error {
	r.store.insertGate.wait()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.insertErr != nil {
		return r.store.insertErr
	}
	m.ID = r.store.nextID
	r.store.nextID++
	r.store.rows = append(r.store.rows, *m)
	return nil
}

func (r *fakeRepo) FindAfter(_ context.Context, afterID int64, since time.Time, limit int) ([]model.Message, error) {
	r.store.findGate.wait()

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.findCalls++
	if r.store.findErr != nil {
		return nil, r.store.findErr
	}

	found := make([]model.Message, 0)
	for _, row := range r.store.rows {
		if row.ID > afterID && row.Time.After(since) {
			found = append(found, row)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (r *fakeRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.deleteErr != nil {
		return 0, r.store.deleteErr
	}
	kept := r.store.rows[:0]
	var deleted int64
	for _, row := range r.store.rows {
		if row.Time.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	r.store.rows = kept
	return deleted, nil
}

// fakeSource hands out borrowed nil handles; the fake repositories ignore them.
type fakeSource struct {
	mu         sync.Mutex
	acquireErr error
	stopped    bool
	closeCalls int
	acquired   int
}

func (s *fakeSource) Acquire(_ context.Context) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.acquired++
	return NewLease(nil, false), nil
}

func (s *fakeSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

func (s *fakeSource) closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.stopped = true
	return nil
}

func (s *fakeSource) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = !running
}

// manualScheduler records scheduled tasks; tests invoke them directly.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	run       func(ctx context.Context)
	delay     time.Duration
	period    time.Duration
	cancelled bool
}

func (t *manualTask) Cancel() {
	t.cancelled = true
}

func (s *manualScheduler) Schedule(task func(ctx context.Context), delay, period time.Duration) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTask{run: task, delay: delay, period: period}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *manualScheduler) scheduled() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*manualTask(nil), s.tasks...)
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// received collects handler invocations.
type received struct {
	mu       sync.Mutex
	channels []string
	payloads []string
}

func (r *received) handler(_ context.Context, channel string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	r.payloads = append(r.payloads, string(payload))
	return nil
}

func (r *received) all() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.channels...), append([]string(nil), r.payloads...)
}

// recordingNotifications counts notifications.
type recordingNotifications struct {
	mu         sync.Mutex
	started    []int64
	startFails int
	pollFails  int
	dropped    []int64
}

func (n *recordingNotifications) NotifyStarted(_ context.Context, watermark int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.started = append(n.started, watermark)
	return nil
}

func (n *recordingNotifications) NotifyStartFailed(_ context.Context, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.startFails++
	return nil
}

func (n *recordingNotifications) NotifyPollFailed(_ context.Context, _ int64, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pollFails++
	return nil
}

func (n *recordingNotifications) NotifyMessageDropped(_ context.Context, id int64, _ string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropped = append(n.dropped, id)
	return nil
}
