// Package launcher wires the document store, index, indexers, query engine and
// preference repositories into the operations a launcher UI calls.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/backup"
	"github.com/igusev/qlaunch/internal/cache"
	"github.com/igusev/qlaunch/internal/config"
	"github.com/igusev/qlaunch/internal/history"
	"github.com/igusev/qlaunch/internal/index"
	"github.com/igusev/qlaunch/internal/indexer"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/materialize"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/repository"
	"github.com/igusev/qlaunch/internal/search"
	"github.com/igusev/qlaunch/internal/source"
	"github.com/igusev/qlaunch/internal/store"
	"github.com/igusev/qlaunch/internal/suggest"
	"github.com/igusev/qlaunch/internal/types"
)

var (
	// ErrWebIndexingDisabled is returned by IndexWebURL when the user turned web indexing off
	ErrWebIndexingDisabled = errors.New("web url indexing is disabled")
	// ErrUnknownNamespace is returned for namespace names the launcher does not index
	ErrUnknownNamespace = errors.New("unknown namespace")
	// ErrInvalidFavorite is returned for favorite keys not of the form namespace:id
	ErrInvalidFavorite = errors.New("invalid favorite key")
)

// Launcher owns every long-lived component. Create it with Open and release it with Close.
type Launcher struct {
	cfg     *config.Config
	index   *index.DurableIndex
	store   *store.Store
	tracker *history.Tracker
	cache   *cache.Cache
	prefs   *repository.Store
	catalog *source.Catalog
	watcher *source.Watcher
	mat     *materialize.Materializer
	engine  *search.Engine
	indexer *indexer.Manager
	log     *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// Option configures Open
type Option func(*options)

type options struct {
	usageDispatch history.Dispatcher
}

// WithUsageDispatcher overrides how usage persistence is scheduled
func WithUsageDispatcher(d history.Dispatcher) Option {
	return func(o *options) { o.usageDispatch = d }
}

// Open creates every component under cfg.DataDir. Nothing is loaded or
// scheduled until Hydrate or Start is called.
func Open(cfg *config.Config, opts ...Option) (*Launcher, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	idx, recreated, err := index.OpenWithAutoRecreate(cfg.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	log := logger.Named("launcher")
	if recreated {
		log.Info("index recreated after a version change", zap.String("path", cfg.IndexPath()))
	}

	prefs, err := repository.Open(cfg.DatabasePath())
	if err != nil {
		idx.Close()
		return nil, fmt.Errorf("opening preferences: %w", err)
	}

	fileCache := cache.New(cfg.CacheDir())
	if err := fileCache.EnsureDir(); err != nil {
		log.Warn("cache directory unavailable", zap.Error(err))
	}

	st := store.New(idx)
	var trackerOpts []history.Option
	if o.usageDispatch != nil {
		trackerOpts = append(trackerOpts, history.WithDispatcher(o.usageDispatch))
	}
	tracker := history.New(history.NewGobFile(cfg.UsagePath()), trackerOpts...)
	catalog := source.NewCatalog(cfg.CatalogDir)
	mat := materialize.New(catalog, st.Get)
	st.Subscribe(func(ns types.Namespace) { mat.InvalidateIcons(ns) })

	engine := search.New(st, idx, tracker, mat, search.Options{
		SettingsPackage: cfg.Search.SettingsPackage,
		Suggestions: suggest.New(suggest.Config{
			Timeout:           cfg.Search.SuggestionTimeout(),
			RequestsPerSecond: cfg.Search.SuggestionRate,
			MaxResults:        cfg.Search.MaxSuggestions,
		}),
	})

	mgr := indexer.New(st, tracker, fileCache, indexer.Sources{
		Apps:            catalog,
		Shortcuts:       catalog,
		StaticShortcuts: catalog,
		AppShortcuts:    source.Builtin{},
		Contacts:        catalog,
	}, prefs, indexer.Options{
		Freshness:   cfg.Index.Freshness(),
		SettleDelay: cfg.Index.SettleDelay(),
		Exclude:     cfg.IsExcluded,
	})

	l := &Launcher{
		cfg:     cfg,
		index:   idx,
		store:   st,
		tracker: tracker,
		cache:   fileCache,
		prefs:   prefs,
		catalog: catalog,
		mat:     mat,
		engine:  engine,
		indexer: mgr,
		log:     log,
	}
	l.watcher = source.NewWatcher(cfg.CatalogDir, l.OnSourceChanged)
	return l, nil
}

// Config returns the configuration the launcher was opened with
func (l *Launcher) Config() *config.Config {
	return l.cfg
}

// Catalog returns the file-backed source catalog
func (l *Launcher) Catalog() *source.Catalog {
	return l.catalog
}

// Hydrate loads the mirror from the durable index, the usage data and the
// user's shortcuts and snippets. Failures are logged; the launcher still answers
// queries from whatever loaded.
func (l *Launcher) Hydrate(ctx context.Context) error {
	var errs []error
	if err := l.store.Load(ctx); err != nil {
		l.log.Warn("cold start without index contents", zap.Error(err))
		errs = append(errs, err)
	}
	if err := l.tracker.Load(ctx); err != nil {
		l.log.Warn("usage data unavailable", zap.Error(err))
		errs = append(errs, err)
	}
	if err := l.loadShortcuts(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := l.loadSnippets(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Start hydrates, schedules the startup reindex when the index is stale and
// begins watching the catalog. Background work stops on Close.
func (l *Launcher) Start(ctx context.Context) error {
	if err := l.Hydrate(ctx); err != nil {
		l.log.Debug("hydration incomplete", zap.Error(err))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()

	if l.indexer.Schedule(runCtx) {
		l.log.Debug("startup reindex scheduled", zap.Duration("delay", l.cfg.Index.SettleDelay()))
	}
	if err := l.watcher.Start(runCtx); err != nil {
		return fmt.Errorf("watching catalog: %w", err)
	}
	return nil
}

// Refresh runs a full reindex in the foreground when the index is stale.
// It reports whether a pass ran.
func (l *Launcher) Refresh(ctx context.Context) (bool, error) {
	if !l.indexer.NeedsReindex() {
		return false, nil
	}
	return true, l.IndexAll(ctx)
}

// Close stops background work and releases the index and database
func (l *Launcher) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.watcher.Stop()
	l.indexer.Wait()

	return errors.Join(l.index.Close(), l.prefs.Close())
}

// Search returns ranked results for query; limit <= 0 means unlimited
func (l *Launcher) Search(ctx context.Context, query string, limit int) []model.SearchResult {
	return l.engine.Search(ctx, query, limit)
}

// RecentItems returns recently launched apps, most recent first
func (l *Launcher) RecentItems(ctx context.Context, limit int, excludedIDs []string) []model.SearchResult {
	return l.engine.RecentItems(ctx, limit, excludedIDs)
}

// ReportUsage records a launch of (ns, id) from query
func (l *Launcher) ReportUsage(ns types.Namespace, id, query string, wasFirstResult bool) {
	l.engine.ReportUsage(ns, id, query, wasFirstResult)
}

// IndexApps re-enumerates installed apps
func (l *Launcher) IndexApps(ctx context.Context) error {
	return l.indexer.Index(ctx, types.NamespaceApps)
}

// IndexShortcuts re-enumerates dynamic app shortcuts
func (l *Launcher) IndexShortcuts(ctx context.Context) error {
	return l.indexer.Index(ctx, types.NamespaceShortcuts)
}

// IndexStaticShortcuts re-enumerates manifest-declared app shortcuts
func (l *Launcher) IndexStaticShortcuts(ctx context.Context) error {
	return l.indexer.Index(ctx, types.NamespaceStaticShortcuts)
}

// IndexAppShortcuts re-indexes the launcher's own actions
func (l *Launcher) IndexAppShortcuts(ctx context.Context) error {
	return l.indexer.Index(ctx, types.NamespaceAppShortcuts)
}

// IndexContacts re-enumerates contacts
func (l *Launcher) IndexContacts(ctx context.Context) error {
	return l.indexer.Index(ctx, types.NamespaceContacts)
}

// IndexSnippets re-derives the snippet namespace and the engine's snippet list
func (l *Launcher) IndexSnippets(ctx context.Context) error {
	if err := l.loadSnippets(ctx); err != nil {
		return err
	}
	return l.indexer.Index(ctx, types.NamespaceSnippets)
}

// IndexCustomShortcuts re-derives the search shortcut namespace and the
// aliases the engine activates
func (l *Launcher) IndexCustomShortcuts(ctx context.Context) error {
	if err := l.loadShortcuts(ctx); err != nil {
		return err
	}
	return l.indexer.Index(ctx, types.NamespaceSearchShortcuts)
}

// IndexNamespace runs the pass for ns by name
func (l *Launcher) IndexNamespace(ctx context.Context, ns types.Namespace) error {
	switch ns {
	case types.NamespaceApps:
		return l.IndexApps(ctx)
	case types.NamespaceShortcuts:
		return l.IndexShortcuts(ctx)
	case types.NamespaceStaticShortcuts:
		return l.IndexStaticShortcuts(ctx)
	case types.NamespaceAppShortcuts:
		return l.IndexAppShortcuts(ctx)
	case types.NamespaceContacts:
		return l.IndexContacts(ctx)
	case types.NamespaceSnippets:
		return l.IndexSnippets(ctx)
	case types.NamespaceSearchShortcuts:
		return l.IndexCustomShortcuts(ctx)
	}
	return fmt.Errorf("%w: %s cannot be rebuilt from a source", ErrUnknownNamespace, ns)
}

// IndexAll rebuilds every source-backed namespace
func (l *Launcher) IndexAll(ctx context.Context) error {
	l.reloadPreferences(ctx)
	return l.indexer.IndexAll(ctx)
}

// ResetIndex wipes everything except web bookmarks and rebuilds
func (l *Launcher) ResetIndex(ctx context.Context) error {
	l.reloadPreferences(ctx)
	return l.indexer.ResetIndex(ctx)
}

// ResetAppData wipes every namespace, bookmarks included, the usage data and
// the user's preferences. Nothing is rebuilt.
func (l *Launcher) ResetAppData(ctx context.Context) error {
	var errs []error
	if err := l.indexer.ResetAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := l.prefs.Reset(ctx); err != nil {
		errs = append(errs, err)
	}
	l.reloadPreferences(ctx)
	l.engine.Invalidate()
	return errors.Join(errs...)
}

// RemoveFromIndex deletes one document. Removing an app also forgets its usage.
func (l *Launcher) RemoveFromIndex(ctx context.Context, namespace, id string) error {
	ns, err := types.ParseNamespace(namespace)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	if err := l.indexer.Remove(ctx, ns, id); err != nil {
		return err
	}
	if ns == types.NamespaceApps {
		l.tracker.Forget(id)
	}
	return nil
}

// IndexWebURL adds a bookmark for url when web indexing is enabled.
// title may be empty; the host is used instead.
func (l *Launcher) IndexWebURL(ctx context.Context, url, title string) (types.Document, error) {
	enabled, err := l.WebIndexingEnabled(ctx)
	if err != nil {
		return types.Document{}, err
	}
	if !enabled {
		return types.Document{}, ErrWebIndexingDisabled
	}
	return l.indexer.IndexURL(ctx, url, title)
}

// WebIndexingEnabled reads the web indexing preference; it defaults to on
func (l *Launcher) WebIndexingEnabled(ctx context.Context) (bool, error) {
	return l.prefs.Bool(ctx, repository.PrefIndexWebURLs, true)
}

// SetWebIndexingEnabled stores the web indexing preference
func (l *Launcher) SetWebIndexingEnabled(ctx context.Context, enabled bool) error {
	return l.prefs.SetBool(ctx, repository.PrefIndexWebURLs, enabled)
}

// OnSourceChanged re-indexes ns in the background. It never blocks.
func (l *Launcher) OnSourceChanged(ns types.Namespace) {
	l.indexer.OnSourceChanged(ns)
}

// Wait blocks until background indexing passes finish
func (l *Launcher) Wait() {
	l.indexer.Wait()
}

// IndexState reports the phase of the latest pass over ns
func (l *Launcher) IndexState(ns types.Namespace) indexer.State {
	return l.indexer.State(ns)
}

// Status summarizes the index for the CLI and the HTTP health check
type Status struct {
	Documents       int                     `json:"documents"`
	Namespaces      map[types.Namespace]int `json:"namespaces"`
	Usages          int                     `json:"usages"`
	TrackedItems    int                     `json:"trackedItems"`
	LastFullReindex time.Time               `json:"lastFullReindex,omitempty"`
	NeedsReindex    bool                    `json:"needsReindex"`
}

// Status returns document counts, usage totals and reindex freshness
func (l *Launcher) Status() Status {
	s := Status{
		Documents:    l.store.Count(),
		Namespaces:   make(map[types.Namespace]int, len(types.AllNamespaces)),
		NeedsReindex: l.indexer.NeedsReindex(),
	}
	for _, ns := range types.AllNamespaces {
		if n := len(l.store.Namespace(ns)); n > 0 {
			s.Namespaces[ns] = n
		}
	}
	s.Usages, s.TrackedItems = l.tracker.Stats()
	if last, err := l.cache.LoadLastFullReindexTime(); err == nil {
		s.LastFullReindex = last
	}
	return s
}

// reloadPreferences refreshes the engine's shortcut and snippet lists, logging failures
func (l *Launcher) reloadPreferences(ctx context.Context) {
	if err := l.loadShortcuts(ctx); err != nil {
		l.log.Warn("search shortcuts unavailable", zap.Error(err))
	}
	if err := l.loadSnippets(ctx); err != nil {
		l.log.Warn("snippets unavailable", zap.Error(err))
	}
}

func (l *Launcher) loadShortcuts(ctx context.Context) error {
	list, err := l.prefs.SearchShortcuts(ctx)
	if err != nil {
		return fmt.Errorf("loading search shortcuts: %w", err)
	}
	l.engine.SetSearchShortcuts(list)
	return nil
}

func (l *Launcher) loadSnippets(ctx context.Context) error {
	list, err := l.prefs.Snippets(ctx)
	if err != nil {
		return fmt.Errorf("loading snippets: %w", err)
	}
	l.engine.SetSnippets(list)
	return nil
}

// ExportBackup writes the user's snippets, search shortcuts and favorites to w
func (l *Launcher) ExportBackup(ctx context.Context, w io.Writer) (*backup.File, error) {
	return backup.Export(ctx, l.prefs, w)
}

// ImportBackup restores a backup from r and re-derives everything it touched.
// A version newer than supported is rejected before anything is written.
func (l *Launcher) ImportBackup(ctx context.Context, r io.Reader) (*backup.Report, error) {
	report, err := backup.Import(ctx, l.prefs, r)
	if err != nil {
		return report, err
	}
	if err := l.IndexCustomShortcuts(ctx); err != nil {
		l.log.Warn("re-deriving search shortcuts after import", zap.Error(err))
	}
	if err := l.IndexSnippets(ctx); err != nil {
		l.log.Warn("re-deriving snippets after import", zap.Error(err))
	}
	if _, err := l.Favorites(ctx); err != nil {
		l.log.Warn("refreshing favorites after import", zap.Error(err))
	}
	return report, nil
}

// splitFavorite parses a "namespace:id" key
func splitFavorite(key string) (types.Namespace, string, error) {
	prefix, id, ok := strings.Cut(key, ":")
	if !ok || id == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFavorite, key)
	}
	ns, err := types.ParseNamespace(prefix)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownNamespace, prefix)
	}
	return ns, id, nil
}
