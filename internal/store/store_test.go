package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/igusev/qlaunch/internal/types"
)

// fakeDurable is a synchronous in-memory Durable with failure injection
type fakeDurable struct {
	mu   sync.Mutex
	docs map[string]types.Document
	fail error
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{docs: map[string]types.Document{}}
}

func (f *fakeDurable) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func (f *fakeDurable) Index(_ context.Context, doc types.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.docs[doc.Key()] = doc
	return nil
}

func (f *fakeDurable) Delete(_ context.Context, ns types.Namespace, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	delete(f.docs, types.Key(ns, id))
	return nil
}

func (f *fakeDurable) ReplaceNamespace(_ context.Context, ns types.Namespace, docs []types.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for k, d := range f.docs {
		if d.Namespace == ns {
			delete(f.docs, k)
		}
	}
	for _, d := range docs {
		f.docs[d.Key()] = d
	}
	return nil
}

func (f *fakeDurable) DeleteNamespace(ctx context.Context, ns types.Namespace) error {
	return f.ReplaceNamespace(ctx, ns, nil)
}

func (f *fakeDurable) LoadAll(_ context.Context) ([]types.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]types.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func apps(ids ...string) []types.Document {
	docs := make([]types.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, types.Document{Namespace: types.NamespaceApps, ID: id, Name: "App " + id, Score: 5})
	}
	return docs
}

func TestStore_ReplaceNamespace(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	s := New(durable)

	if err := s.ReplaceNamespace(ctx, types.NamespaceApps, apps("a", "b", "c")); err != nil {
		t.Fatalf("ReplaceNamespace() error = %v", err)
	}
	if err := s.ReplaceNamespace(ctx, types.NamespaceApps, apps("b", "d")); err != nil {
		t.Fatalf("ReplaceNamespace() error = %v", err)
	}

	got := s.Namespace(types.NamespaceApps)
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "d" {
		t.Errorf("Namespace(apps) = %+v, want [b d]", got)
	}
	if _, ok := s.Get(types.NamespaceApps, "a"); ok {
		t.Error("replaced-out document should be gone")
	}
	if len(durable.docs) != 2 {
		t.Errorf("durable has %d docs, want 2", len(durable.docs))
	}
}

func TestStore_ReplaceNamespaceIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDurable())

	docs := apps("a", "b", "b")
	for i := 0; i < 3; i++ {
		if err := s.ReplaceNamespace(ctx, types.NamespaceApps, docs); err != nil {
			t.Fatalf("ReplaceNamespace() error = %v", err)
		}
	}
	if s.Count() != 2 {
		t.Errorf("Count() = %d, want 2 (duplicate ids collapse, no growth)", s.Count())
	}
}

func TestStore_ReplaceNamespaceDurableFailureKeepsMirror(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	s := New(durable)
	s.ReplaceNamespace(ctx, types.NamespaceApps, apps("a"))

	durable.setFail(errors.New("disk full"))
	err := s.ReplaceNamespace(ctx, types.NamespaceApps, apps("x", "y"))
	if !errors.Is(err, ErrDurableWrite) {
		t.Fatalf("error = %v, want ErrDurableWrite", err)
	}

	got := s.Namespace(types.NamespaceApps)
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("mirror should keep previous set, got %+v", got)
	}
}

func TestStore_ReplaceNamespaceRejectsForeignDocs(t *testing.T) {
	s := New(newFakeDurable())
	doc := types.Document{Namespace: types.NamespaceContacts, ID: "1"}
	if err := s.ReplaceNamespace(context.Background(), types.NamespaceApps, []types.Document{doc}); err == nil {
		t.Error("expected error for mismatched namespace")
	}
}

func TestStore_UpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	s := New(durable)

	bm := types.Document{Namespace: types.NamespaceWebBookmarks, ID: "web_1", Name: "Go", Score: 2}
	if err := s.Upsert(ctx, bm); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	bm.Name = "Go Dev"
	s.Upsert(ctx, bm)

	got, ok := s.Get(types.NamespaceWebBookmarks, "web_1")
	if !ok || got.Name != "Go Dev" {
		t.Errorf("Get() = %+v, %v", got, ok)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}

	if err := s.RemoveByID(ctx, types.NamespaceWebBookmarks, "web_1"); err != nil {
		t.Fatalf("RemoveByID() error = %v", err)
	}
	if !s.IsEmpty() || len(durable.docs) != 0 {
		t.Error("document should be removed from mirror and durable index")
	}

	// Missing id is not an error
	if err := s.RemoveByID(ctx, types.NamespaceApps, "nope"); err != nil {
		t.Errorf("RemoveByID(missing) error = %v", err)
	}
}

func TestStore_UpsertDurableFailureStillUpdatesMirror(t *testing.T) {
	durable := newFakeDurable()
	durable.setFail(errors.New("locked"))
	s := New(durable)

	err := s.Upsert(context.Background(), apps("a")[0])
	if !errors.Is(err, ErrDurableWrite) {
		t.Fatalf("error = %v, want ErrDurableWrite", err)
	}
	if _, ok := s.Get(types.NamespaceApps, "a"); !ok {
		t.Error("mirror should reflect the upsert")
	}
}

func TestStore_RemoveWhere(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDurable())
	s.ReplaceNamespace(ctx, types.NamespaceShortcuts, []types.Document{
		{Namespace: types.NamespaceShortcuts, ID: "com.a/1"},
		{Namespace: types.NamespaceShortcuts, ID: "com.a/2"},
		{Namespace: types.NamespaceShortcuts, ID: "com.b/1"},
	})

	n, err := s.RemoveWhere(ctx, types.NamespaceShortcuts, func(d types.Document) bool {
		return d.PackageOf() == "com.a"
	})
	if err != nil || n != 2 {
		t.Fatalf("RemoveWhere() = %d, %v", n, err)
	}
	got := s.Namespace(types.NamespaceShortcuts)
	if len(got) != 1 || got[0].ID != "com.b/1" {
		t.Errorf("remaining = %+v", got)
	}
}

func TestStore_ClearNamespacesKeepsProtected(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDurable())
	s.ReplaceNamespace(ctx, types.NamespaceApps, apps("a"))
	s.Upsert(ctx, types.Document{Namespace: types.NamespaceWebBookmarks, ID: "web_1"})

	if err := s.ClearNamespaces(ctx, types.ProtectedNamespaces...); err != nil {
		t.Fatalf("ClearNamespaces() error = %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
	if _, ok := s.Get(types.NamespaceWebBookmarks, "web_1"); !ok {
		t.Error("bookmark should survive")
	}

	s.ClearNamespaces(ctx)
	if !s.IsEmpty() {
		t.Error("full clear should empty the store")
	}
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	durable := newFakeDurable()
	first := New(durable)
	first.ReplaceNamespace(ctx, types.NamespaceApps, apps("a", "b"))
	first.Upsert(ctx, types.Document{Namespace: types.NamespaceContacts, ID: "1", Name: "Jane"})

	cold := New(durable)
	if err := cold.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cold.Count() != 3 {
		t.Errorf("Count() after Load = %d, want 3", cold.Count())
	}

	durable.setFail(errors.New("unavailable"))
	if err := cold.Load(ctx); err == nil {
		t.Error("Load() should report durable failure")
	}
	if cold.Count() != 3 {
		t.Error("failed Load should leave mirror untouched")
	}
}

func TestStore_FindAllOrder(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDurable())
	s.ReplaceNamespace(ctx, types.NamespaceContacts, []types.Document{{Namespace: types.NamespaceContacts, ID: "c1"}})
	s.ReplaceNamespace(ctx, types.NamespaceApps, apps("z", "a"))

	all := s.FindAll(nil)
	var keys []string
	for _, d := range all {
		keys = append(keys, d.Key())
	}
	want := []string{"apps:z", "apps:a", "contacts:c1"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Errorf("FindAll order = %v, want %v", keys, want)
	}

	onlyA := s.FindAll(func(d types.Document) bool { return d.ID == "a" })
	if len(onlyA) != 1 {
		t.Errorf("FindAll(pred) = %+v", onlyA)
	}
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDurable())

	var mu sync.Mutex
	var seen []types.Namespace
	s.Subscribe(func(ns types.Namespace) {
		mu.Lock()
		seen = append(seen, ns)
		mu.Unlock()
	})

	s.ReplaceNamespace(ctx, types.NamespaceApps, apps("a"))
	s.Upsert(ctx, types.Document{Namespace: types.NamespaceSnippets, ID: "addr"})
	s.RemoveByID(ctx, types.NamespaceApps, "a")

	want := []types.Namespace{types.NamespaceApps, types.NamespaceSnippets, types.NamespaceApps}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Errorf("notifications = %v, want %v", seen, want)
	}
}

// Readers must see either the old or the new complete namespace, never a mix
func TestStore_ReplaceIsAtomicForReaders(t *testing.T) {
	ctx := context.Background()
	s := New(newFakeDurable())

	oldSet := make([]types.Document, 0, 100)
	newSet := make([]types.Document, 0, 100)
	for i := 0; i < 100; i++ {
		oldSet = append(oldSet, types.Document{Namespace: types.NamespaceApps, ID: fmt.Sprintf("old-%d", i)})
		newSet = append(newSet, types.Document{Namespace: types.NamespaceApps, ID: fmt.Sprintf("new-%d", i)})
	}
	s.ReplaceNamespace(ctx, types.NamespaceApps, oldSet)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			docs := s.Namespace(types.NamespaceApps)
			olds, news := 0, 0
			for _, d := range docs {
				if d.ID[:3] == "old" {
					olds++
				} else {
					news++
				}
			}
			if (olds != 0 && news != 0) || olds+news != 100 {
				select {
				case errs <- fmt.Sprintf("observed mixed set: %d old, %d new", olds, news):
				default:
				}
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			s.ReplaceNamespace(ctx, types.NamespaceApps, newSet)
		} else {
			s.ReplaceNamespace(ctx, types.NamespaceApps, oldSet)
		}
	}
	close(stop)
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}
