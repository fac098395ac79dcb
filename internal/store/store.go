// Package store holds the in-memory mirror of the durable document index.
//
// Every mutation is applied to the durable index and the mirror. Readers take a
// read lock on the whole mirror, so a namespace replace is never observed half-done.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/igusev/qlaunch/internal/fuzzy"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/types"
	"go.uber.org/zap"
)

// ErrDurableWrite wraps failures of the durable index behind a store mutation
var ErrDurableWrite = errors.New("durable index write failed")

// Durable is the persistent side of the store (implemented by index.DurableIndex)
type Durable interface {
	Index(ctx context.Context, doc types.Document) error
	Delete(ctx context.Context, ns types.Namespace, id string) error
	ReplaceNamespace(ctx context.Context, ns types.Namespace, docs []types.Document) error
	DeleteNamespace(ctx context.Context, ns types.Namespace) error
	LoadAll(ctx context.Context) ([]types.Document, error)
}

// entry is a mirrored document plus its precomputed name mask for fuzzy scanning
type entry struct {
	doc  types.Document
	mask uint64
}

// namespaceSet keeps documents in discovery order with an id lookup
type namespaceSet struct {
	entries []entry
	pos     map[string]int
}

func newNamespaceSet(docs []types.Document) *namespaceSet {
	set := &namespaceSet{pos: make(map[string]int, len(docs))}
	for _, d := range docs {
		set.put(d)
	}
	return set
}

func (s *namespaceSet) put(d types.Document) {
	e := entry{doc: d, mask: fuzzy.Mask(d.Name)}
	if i, ok := s.pos[d.ID]; ok {
		s.entries[i] = e
		return
	}
	s.pos[d.ID] = len(s.entries)
	s.entries = append(s.entries, e)
}

// without returns a copy of s minus the entries matching drop
func (s *namespaceSet) without(drop func(types.Document) bool) (*namespaceSet, int) {
	out := &namespaceSet{pos: make(map[string]int, len(s.entries))}
	removed := 0
	for _, e := range s.entries {
		if drop(e.doc) {
			removed++
			continue
		}
		out.pos[e.doc.ID] = len(out.entries)
		out.entries = append(out.entries, e)
	}
	return out, removed
}

// Store is the document mirror. Construct with New.
type Store struct {
	mu      sync.RWMutex
	spaces  map[types.Namespace]*namespaceSet
	durable Durable
	log     *zap.Logger

	listenersMu sync.Mutex
	listeners   []func(types.Namespace)
}

// New creates an empty store backed by durable
func New(durable Durable) *Store {
	return &Store{
		spaces:  make(map[types.Namespace]*namespaceSet),
		durable: durable,
		log:     logger.Named("store"),
	}
}

// Subscribe registers fn to be called after any mutation of a namespace.
// Listeners run synchronously on the mutating goroutine, outside the store lock.
func (s *Store) Subscribe(fn func(ns types.Namespace)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(namespaces ...types.Namespace) {
	s.listenersMu.Lock()
	listeners := append([]func(types.Namespace){}, s.listeners...)
	s.listenersMu.Unlock()

	for _, ns := range namespaces {
		for _, fn := range listeners {
			fn(ns)
		}
	}
}

// Load rebuilds the mirror from a full read of the durable index
func (s *Store) Load(ctx context.Context) error {
	docs, err := s.durable.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load durable index: %w", err)
	}

	grouped := make(map[types.Namespace][]types.Document)
	for _, d := range docs {
		grouped[d.Namespace] = append(grouped[d.Namespace], d)
	}

	spaces := make(map[types.Namespace]*namespaceSet, len(grouped))
	changed := make([]types.Namespace, 0, len(grouped))
	for ns, nsDocs := range grouped {
		spaces[ns] = newNamespaceSet(nsDocs)
		changed = append(changed, ns)
	}

	s.mu.Lock()
	s.spaces = spaces
	s.mu.Unlock()

	s.log.Debug("mirror hydrated", zap.Int("documents", len(docs)))
	s.notify(changed...)
	return nil
}

// ReplaceNamespace atomically swaps every document of ns for docs.
// The durable write happens first; if it fails the mirror keeps the previous set.
func (s *Store) ReplaceNamespace(ctx context.Context, ns types.Namespace, docs []types.Document) error {
	for _, d := range docs {
		if d.Namespace != ns {
			return fmt.Errorf("document %s does not belong to namespace %s", d.Key(), ns)
		}
	}

	if err := s.durable.ReplaceNamespace(ctx, ns, docs); err != nil {
		return fmt.Errorf("replace namespace %s: %w: %w", ns, ErrDurableWrite, err)
	}

	set := newNamespaceSet(docs)
	s.mu.Lock()
	s.spaces[ns] = set
	s.mu.Unlock()

	s.notify(ns)
	return nil
}

// Upsert adds or replaces a single document. The mirror is always updated;
// a durable failure is logged and returned.
func (s *Store) Upsert(ctx context.Context, doc types.Document) error {
	s.mu.Lock()
	set, ok := s.spaces[doc.Namespace]
	if !ok {
		set = newNamespaceSet(nil)
		s.spaces[doc.Namespace] = set
	}
	set.put(doc)
	s.mu.Unlock()

	// Subscribers re-query the index, so they hear about the change after the durable write
	defer s.notify(doc.Namespace)

	if err := s.durable.Index(ctx, doc); err != nil {
		s.log.Warn("durable upsert failed", zap.String("key", doc.Key()), zap.Error(err))
		return fmt.Errorf("upsert %s: %w: %w", doc.Key(), ErrDurableWrite, err)
	}
	return nil
}

// RemoveByID removes a single document. A missing document is not an error.
func (s *Store) RemoveByID(ctx context.Context, ns types.Namespace, id string) error {
	s.mu.Lock()
	removed := 0
	if set, ok := s.spaces[ns]; ok {
		s.spaces[ns], removed = set.without(func(d types.Document) bool { return d.ID == id })
	}
	s.mu.Unlock()

	if removed > 0 {
		defer s.notify(ns)
	}

	if err := s.durable.Delete(ctx, ns, id); err != nil {
		s.log.Warn("durable delete failed", zap.String("key", types.Key(ns, id)), zap.Error(err))
		return fmt.Errorf("remove %s: %w: %w", types.Key(ns, id), ErrDurableWrite, err)
	}
	return nil
}

// RemoveWhere removes every document of ns matching pred and returns how many were removed
func (s *Store) RemoveWhere(ctx context.Context, ns types.Namespace, pred func(types.Document) bool) (int, error) {
	var victims []string
	s.mu.RLock()
	if set, ok := s.spaces[ns]; ok {
		for _, e := range set.entries {
			if pred(e.doc) {
				victims = append(victims, e.doc.ID)
			}
		}
	}
	s.mu.RUnlock()

	if len(victims) == 0 {
		return 0, nil
	}

	doomed := make(map[string]bool, len(victims))
	for _, id := range victims {
		doomed[id] = true
	}
	s.mu.Lock()
	if set, ok := s.spaces[ns]; ok {
		s.spaces[ns], _ = set.without(func(d types.Document) bool { return doomed[d.ID] })
	}
	s.mu.Unlock()
	defer s.notify(ns)

	var errs []error
	for _, id := range victims {
		if err := s.durable.Delete(ctx, ns, id); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.log.Warn("durable delete failed", zap.String("namespace", string(ns)), zap.Error(err))
		return len(victims), fmt.Errorf("remove from %s: %w: %w", ns, ErrDurableWrite, err)
	}
	return len(victims), nil
}

// ClearNamespaces wipes every known namespace except those in keep
func (s *Store) ClearNamespaces(ctx context.Context, keep ...types.Namespace) error {
	kept := make(map[types.Namespace]bool, len(keep))
	for _, ns := range keep {
		kept[ns] = true
	}

	var errs []error
	for _, ns := range types.AllNamespaces {
		if kept[ns] {
			continue
		}
		if err := s.ReplaceNamespace(ctx, ns, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns a single document
func (s *Store) Get(ns types.Namespace, id string) (types.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.spaces[ns]
	if !ok {
		return types.Document{}, false
	}
	i, ok := set.pos[id]
	if !ok {
		return types.Document{}, false
	}
	return set.entries[i].doc, true
}

// FindAll returns every document matching pred, in namespace then discovery order.
// A nil pred matches everything.
func (s *Store) FindAll(pred func(types.Document) bool) []types.Document {
	var out []types.Document
	s.ForEach(func(d types.Document, _ uint64) bool {
		if pred == nil || pred(d) {
			out = append(out, d)
		}
		return true
	})
	return out
}

// ForEach calls fn for each document with its precomputed fuzzy name mask
// until fn returns false. fn must not mutate the store.
func (s *Store) ForEach(fn func(doc types.Document, nameMask uint64) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ns := range s.orderedNamespaces() {
		for _, e := range s.spaces[ns].entries {
			if !fn(e.doc, e.mask) {
				return
			}
		}
	}
}

// Namespace returns a snapshot of the documents in ns
func (s *Store) Namespace(ns types.Namespace) []types.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.spaces[ns]
	if !ok {
		return nil
	}
	out := make([]types.Document, len(set.entries))
	for i, e := range set.entries {
		out[i] = e.doc
	}
	return out
}

// Count returns the number of mirrored documents
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, set := range s.spaces {
		n += len(set.entries)
	}
	return n
}

// IsEmpty reports whether the mirror holds no documents
func (s *Store) IsEmpty() bool {
	return s.Count() == 0
}

// orderedNamespaces lists known namespaces first, then any others. Caller holds mu.
func (s *Store) orderedNamespaces() []types.Namespace {
	out := make([]types.Namespace, 0, len(s.spaces))
	known := make(map[types.Namespace]bool, len(types.AllNamespaces))
	for _, ns := range types.AllNamespaces {
		known[ns] = true
		if _, ok := s.spaces[ns]; ok {
			out = append(out, ns)
		}
	}
	for ns := range s.spaces {
		if !known[ns] {
			out = append(out, ns)
		}
	}
	return out
}
