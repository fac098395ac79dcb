// Package history tracks how often each item is used and which apps were used most recently.
//
// The in-memory counters are the source of truth for the process lifetime; the
// persisted copy is only a cold-start hydration source and is written fire-and-forget.
package history

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/igusev/qlaunch/internal/logger"
	"go.uber.org/zap"
)

// MaxHistory bounds the recency list
const MaxHistory = 20

// Snapshot is the persisted state of a Tracker
type Snapshot struct {
	Counts map[string]int64
	Recent []string // Most recent first
}

// Persister is the durable-write port of the tracker
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context) error
}

// Dispatcher runs a persistence task. The default runs it on a new goroutine.
type Dispatcher func(task func())

// Async dispatches task on its own goroutine
func Async(task func()) { go task() }

// Sync runs task inline so usage is persisted before the caller returns
func Sync(task func()) { task() }

// Option configures a Tracker
type Option func(*Tracker)

// WithDispatcher overrides how persistence tasks are scheduled
func WithDispatcher(d Dispatcher) Option {
	return func(t *Tracker) { t.dispatch = d }
}

// Tracker holds usage counts and the recent-apps list
type Tracker struct {
	counts sync.Map // id -> *atomic.Int64

	mu     sync.Mutex
	recent []string

	persister Persister
	dispatch  Dispatcher
	saveMu    sync.Mutex
	log       *zap.Logger

	// Saves requested while a load runs are held back so they cannot
	// overwrite the stored data before it has been merged
	loading atomic.Bool
	dirty   atomic.Bool
}

// New creates a Tracker persisting through p (nil keeps everything in memory)
func New(p Persister, opts ...Option) *Tracker {
	t := &Tracker{
		persister: p,
		dispatch:  Async,
		log:       logger.Named("history"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load hydrates the tracker from the persister. Usage recorded before the load
// finished is kept: stored counts are added to it and stored history goes
// behind it. Load is meant to run once per Tracker. A corrupt or unreadable
// store is logged and treated as empty.
func (t *Tracker) Load(ctx context.Context) error {
	if t.persister == nil {
		return nil
	}
	t.loading.Store(true)
	defer t.finishLoad()

	snap, err := t.persister.Load(ctx)
	if err != nil {
		t.log.Warn("usage data unreadable, starting empty", zap.Error(err))
		return fmt.Errorf("failed to load usage data: %w", err)
	}

	for id, n := range snap.Counts {
		t.counter(id).Add(n)
	}

	t.mu.Lock()
	merged := make([]string, 0, MaxHistory)
	present := make(map[string]bool, MaxHistory)
	for _, id := range append(append([]string(nil), t.recent...), snap.Recent...) {
		if len(merged) == MaxHistory {
			break
		}
		if !present[id] {
			present[id] = true
			merged = append(merged, id)
		}
	}
	t.recent = merged
	t.mu.Unlock()
	return nil
}

// finishLoad releases held-back saves
func (t *Tracker) finishLoad() {
	t.loading.Store(false)
	if t.dirty.Swap(false) {
		t.persist()
	}
}

// LoadAsync loads usage data on a background goroutine.
// The returned channel receives the load error (or nil) and is then closed.
func (t *Tracker) LoadAsync(ctx context.Context) <-chan error {
	if t.persister != nil {
		t.loading.Store(true)
	}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		errCh <- t.Load(ctx)
	}()
	return errCh
}

// RecordUsage increments the usage counter for id and schedules persistence
func (t *Tracker) RecordUsage(id string) {
	t.counter(id).Add(1)
	t.persist()
}

// RecordHistory moves appID to the front of the recency list, truncating it to MaxHistory
func (t *Tracker) RecordHistory(appID string) {
	t.mu.Lock()
	next := make([]string, 0, MaxHistory)
	next = append(next, appID)
	for _, id := range t.recent {
		if id != appID && len(next) < MaxHistory {
			next = append(next, id)
		}
	}
	t.recent = next
	t.mu.Unlock()

	t.persist()
}

// UsageCount returns how many times id was used, 0 if never
func (t *Tracker) UsageCount(id string) int {
	if v, ok := t.counts.Load(id); ok {
		return int(v.(*atomic.Int64).Load())
	}
	return 0
}

// History returns a copy of the recency list, most recent first
func (t *Tracker) History() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.recent...)
}

// Forget drops ids from both the counters and the recency list.
// Returns how many entries were removed.
func (t *Tracker) Forget(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	removed := 0
	for id := range drop {
		if _, loaded := t.counts.LoadAndDelete(id); loaded {
			removed++
		}
	}

	t.mu.Lock()
	kept := t.recent[:0:0]
	for _, id := range t.recent {
		if drop[id] {
			removed++
			continue
		}
		kept = append(kept, id)
	}
	t.recent = kept
	t.mu.Unlock()

	if removed > 0 {
		t.persist()
	}
	return removed
}

// Reset empties counters and history and deletes the persisted store.
// The document store is not touched.
func (t *Tracker) Reset(ctx context.Context) error {
	t.counts.Range(func(k, _ any) bool {
		t.counts.Delete(k)
		return true
	})
	t.mu.Lock()
	t.recent = nil
	t.mu.Unlock()

	if t.persister == nil {
		return nil
	}
	t.saveMu.Lock()
	defer t.saveMu.Unlock()
	if err := t.persister.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete usage data: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current state
func (t *Tracker) Snapshot() Snapshot {
	snap := Snapshot{Counts: make(map[string]int64)}
	t.counts.Range(func(k, v any) bool {
		snap.Counts[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	snap.Recent = t.History()
	return snap
}

// Stats returns total recorded usages and the number of distinct ids
func (t *Tracker) Stats() (totalUsages int, uniqueItems int) {
	t.counts.Range(func(_, v any) bool {
		totalUsages += int(v.(*atomic.Int64).Load())
		uniqueItems++
		return true
	})
	return totalUsages, uniqueItems
}

func (t *Tracker) counter(id string) *atomic.Int64 {
	if v, ok := t.counts.Load(id); ok {
		return v.(*atomic.Int64)
	}
	v, _ := t.counts.LoadOrStore(id, &atomic.Int64{})
	return v.(*atomic.Int64)
}

// persist schedules a save of the latest state. Failures are logged, never returned.
func (t *Tracker) persist() {
	if t.persister == nil {
		return
	}
	if t.loading.Load() {
		t.dirty.Store(true)
		// The load may have finished between the two checks
		if t.loading.Load() || !t.dirty.Swap(false) {
			return
		}
	}
	t.dispatch(func() {
		t.saveMu.Lock()
		defer t.saveMu.Unlock()
		if err := t.persister.Save(context.Background(), t.Snapshot()); err != nil {
			t.log.Warn("failed to persist usage data", zap.Error(err))
		}
	})
}
