package source

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/types"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher turns catalog file changes into source-changed events, one per
// namespace after a quiet period. It plays the role of the OS change callbacks.
type Watcher struct {
	dir      string
	onChange func(ns types.Namespace)
	debounce time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timers   map[types.Namespace]*time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDebounce overrides the quiet period before an event fires
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher for the catalog directory dir
func NewWatcher(dir string, onChange func(ns types.Namespace), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: defaultDebounce,
		log:      logger.Named("watcher"),
		timers:   make(map[types.Namespace]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return err
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	w.log.Debug("watching catalog", zap.String("dir", w.dir))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	ns, ok := NamespaceForFile(ev.Name)
	if !ok {
		return
	}
	w.log.Debug("catalog event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[ns]; ok {
		t.Stop()
	}
	w.timers[ns] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, ns)
		w.mu.Unlock()
		w.onChange(ns)
	})
}

// Stop stops the watcher and drops pending events
func (w *Watcher) Stop() {
	w.mu.Lock()
	for ns, t := range w.timers {
		t.Stop()
		delete(w.timers, ns)
	}
	if w.watcher != nil {
		_ = w.watcher.Close()
		w.watcher = nil
	}
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
