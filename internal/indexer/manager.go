// Package indexer enumerates content sources and writes them into the document store
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/cache"
	"github.com/igusev/qlaunch/internal/history"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/source"
	"github.com/igusev/qlaunch/internal/store"
	"github.com/igusev/qlaunch/internal/types"
)

// Defaults for startup scheduling
const (
	DefaultFreshness   = 12 * time.Hour
	DefaultSettleDelay = 3 * time.Second
)

// ErrNoSource is returned when a namespace has no configured source
var ErrNoSource = errors.New("no source configured for namespace")

// State is the phase of an indexing pass
type State int32

// Pass states
const (
	Idle State = iota
	Scanning
	Writing
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Writing:
		return "writing"
	default:
		return "idle"
	}
}

// Sources bundles the enumerable sources; nil entries are skipped
type Sources struct {
	Apps            source.AppSource
	Shortcuts       source.ShortcutSource
	StaticShortcuts source.StaticShortcutSource
	AppShortcuts    source.AppShortcutSource
	Contacts        source.ContactSource
}

// Preferences is the user-editable data mirrored into the store
type Preferences interface {
	SearchShortcuts(ctx context.Context) ([]model.SearchShortcut, error)
	Snippets(ctx context.Context) ([]model.Snippet, error)
}

// Options tunes a Manager
type Options struct {
	Freshness   time.Duration
	SettleDelay time.Duration
	Exclude     func(pkg string) bool // Packages never indexed
	Now         func() time.Time
}

// Manager runs indexing passes. Passes for the same namespace are not
// serialized: each is a fresh enumeration and the last replace wins.
type Manager struct {
	store   *store.Store
	tracker *history.Tracker
	cache   *cache.Cache
	sources Sources
	prefs   Preferences

	freshness time.Duration
	settle    time.Duration
	exclude   func(string) bool
	now       func() time.Time
	log       *zap.Logger

	states   sync.Map // types.Namespace -> *atomic.Int32
	inflight sync.WaitGroup
}

// New creates a manager. tracker, fileCache and prefs may be nil.
func New(st *store.Store, tracker *history.Tracker, fileCache *cache.Cache, sources Sources, prefs Preferences, opts Options) *Manager {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:     st,
		tracker:   tracker,
		cache:     fileCache,
		sources:   sources,
		prefs:     prefs,
		freshness: opts.Freshness,
		settle:    opts.SettleDelay,
		exclude:   opts.Exclude,
		now:       opts.Now,
		log:       logger.Named("indexer"),
	}
}

// State returns the current phase of the latest pass over ns
func (m *Manager) State(ns types.Namespace) State {
	return State(m.state(ns).Load())
}

func (m *Manager) state(ns types.Namespace) *atomic.Int32 {
	v, _ := m.states.LoadOrStore(ns, &atomic.Int32{})
	return v.(*atomic.Int32)
}

// Index runs one pass over ns: enumerate, replace the namespace, clean up zombies.
// A failed enumeration or durable write leaves the previous contents visible.
func (m *Manager) Index(ctx context.Context, ns types.Namespace) error {
	build, ok := m.builderFor(ns)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSource, ns)
	}

	st := m.state(ns)
	st.Store(int32(Scanning))
	defer st.Store(int32(Idle))

	start := m.now()
	docs, err := build(ctx)
	if err != nil {
		m.log.Warn("indexing pass aborted", zap.String("namespace", string(ns)), zap.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st.Store(int32(Writing))
	if err := m.store.ReplaceNamespace(ctx, ns, docs); err != nil {
		m.log.Warn("indexing pass not written", zap.String("namespace", string(ns)), zap.Error(err))
		return err
	}

	if ns == types.NamespaceApps {
		m.cleanupZombies(ctx, docs)
	}
	if m.cache != nil {
		if err := m.cache.SaveLastIndexTime(ns, m.now()); err != nil {
			m.log.Debug("failed to save index time", zap.Error(err))
		}
	}

	m.log.Debug("namespace indexed",
		zap.String("namespace", string(ns)),
		zap.Int("documents", len(docs)),
		zap.Duration("took", m.now().Sub(start)))
	return nil
}

// cleanupZombies removes documents and usage history that belong to apps no
// longer installed. Protected namespaces are never touched.
func (m *Manager) cleanupZombies(ctx context.Context, apps []types.Document) {
	installed := make(map[string]bool, len(apps))
	for _, a := range apps {
		installed[a.ID] = true
	}

	for _, ns := range types.AllNamespaces {
		if !ns.IsPackageScoped() || ns.IsProtected() {
			continue
		}
		removed, err := m.store.RemoveWhere(ctx, ns, func(d types.Document) bool {
			pkg := d.PackageOf()
			return pkg != "" && !installed[pkg]
		})
		if err != nil {
			m.log.Warn("zombie cleanup incomplete", zap.String("namespace", string(ns)), zap.Error(err))
		}
		if removed > 0 {
			m.log.Debug("removed zombie documents", zap.String("namespace", string(ns)), zap.Int("count", removed))
		}
	}

	if m.tracker == nil {
		return
	}
	var gone []string
	for _, id := range m.tracker.History() {
		if !installed[id] {
			gone = append(gone, id)
		}
	}
	if n := m.tracker.Forget(gone...); n > 0 {
		m.log.Debug("forgot uninstalled apps", zap.Strings("packages", gone))
	}
}

// IndexAll indexes every namespace that has a source. Apps go first so
// shortcut passes can drop packages that are no longer installed; the rest
// run concurrently. Web bookmarks are not touched.
func (m *Manager) IndexAll(ctx context.Context) error {
	start := m.now()
	var errs []error
	if _, ok := m.builderFor(types.NamespaceApps); ok {
		if err := m.Index(ctx, types.NamespaceApps); err != nil {
			errs = append(errs, err)
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, ns := range types.AllNamespaces {
		if ns == types.NamespaceApps {
			continue
		}
		if _, ok := m.builderFor(ns); !ok {
			continue
		}
		wg.Add(1)
		go func(ns types.Namespace) {
			defer wg.Done()
			if err := m.Index(ctx, ns); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(ns)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	if m.cache != nil {
		if err := m.cache.SaveLastFullReindexTime(m.now()); err != nil {
			m.log.Warn("failed to save reindex time", zap.Error(err))
		}
	}
	m.log.Info("full reindex complete", zap.Int("documents", m.store.Count()), zap.Duration("took", m.now().Sub(start)))
	return nil
}

// OnSourceChanged re-indexes ns in the background. It never blocks the caller.
func (m *Manager) OnSourceChanged(ns types.Namespace) {
	if _, ok := m.builderFor(ns); !ok {
		m.log.Debug("ignoring change for namespace without source", zap.String("namespace", string(ns)))
		return
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		if err := m.Index(context.Background(), ns); err != nil {
			m.log.Debug("background reindex failed", zap.String("namespace", string(ns)), zap.Error(err))
		}
	}()
}

// Wait blocks until background passes started by OnSourceChanged and Schedule finish
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// ResetIndex wipes every namespace except the protected ones and rebuilds
func (m *Manager) ResetIndex(ctx context.Context) error {
	if err := m.store.ClearNamespaces(ctx, types.ProtectedNamespaces...); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	if m.cache != nil {
		if err := m.cache.ClearLastFullReindexTime(); err != nil {
			m.log.Debug("failed to clear reindex time", zap.Error(err))
		}
	}
	return m.IndexAll(ctx)
}

// ResetAll wipes every namespace, bookmarks included, and the usage data.
// Nothing is rebuilt.
func (m *Manager) ResetAll(ctx context.Context) error {
	var errs []error
	if err := m.store.ClearNamespaces(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clearing index: %w", err))
	}
	if m.tracker != nil {
		if err := m.tracker.Reset(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.cache != nil {
		if err := m.cache.ClearLastFullReindexTime(); err != nil {
			errs = append(errs, err)
		}
		if err := m.cache.ClearFavorites(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NeedsReindex reports whether startup should schedule a full reindex:
// the mirror is empty or the last full reindex is older than the freshness window.
func (m *Manager) NeedsReindex() bool {
	if m.store.IsEmpty() {
		return true
	}
	if m.cache == nil {
		return true
	}
	last, err := m.cache.LoadLastFullReindexTime()
	if err != nil {
		m.log.Debug("unreadable reindex time", zap.Error(err))
		return true
	}
	return last.IsZero() || m.now().Sub(last) >= m.freshness
}

// Schedule starts a background full reindex after the settle delay when one is
// needed. It returns whether a pass was scheduled. Cancelling ctx abandons it.
func (m *Manager) Schedule(ctx context.Context) bool {
	if !m.NeedsReindex() {
		m.log.Debug("index is fresh, skipping startup reindex")
		return false
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		timer := time.NewTimer(m.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if err := m.IndexAll(ctx); err != nil {
			m.log.Warn("startup reindex failed", zap.Error(err))
		}
	}()
	return true
}
