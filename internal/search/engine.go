// Package search composes launcher results from the document index, the user's
// search shortcuts and snippets, smart actions and a fuzzy fallback
package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/fuzzy"
	"github.com/igusev/qlaunch/internal/history"
	"github.com/igusev/qlaunch/internal/index"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/lru"
	"github.com/igusev/qlaunch/internal/materialize"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/smartaction"
	"github.com/igusev/qlaunch/internal/store"
	"github.com/igusev/qlaunch/internal/types"
)

// ActionNamespace tags smart action results; they are never indexed
const ActionNamespace types.Namespace = "actions"

// Ranking constants
const (
	ScoreActivation       = 1200 // Alias followed by a search term
	ScoreActivationPrompt = 150  // Alias typed alone
	ScoreSuggestion       = 200
	MaxSuggestions        = 5

	ScoreSnippetExact     = 150
	ScoreSnippetPrefix    = 90
	ScoreSnippetSubstring = 50
	ScoreSnippetContent   = 40

	boostApps      = 100
	boostSettings  = 15
	boostShortcuts = 90
	boostBookmarks = 80

	boostNameExact    = 100
	boostNamePrefix   = 50
	boostNameContains = 20

	usageWeight = 10

	maxCandidates      = 200
	defaultMaterialize = 50

	fuzzyMinQueryLen = 2
	fuzzyMinScore    = 40
	fuzzyMaxResults  = 50
	fuzzyAppBoost    = 100

	// CacheSize bounds the single-character query cache
	CacheSize = 50
	// UsageCooldown suppresses cache writes right after a usage report
	UsageCooldown = 500 * time.Millisecond
)

// DefaultSettingsPackage is the system settings app, boosted below other apps
const DefaultSettingsPackage = "com.android.settings"

// IndexSearcher runs prefix queries against the durable index
type IndexSearcher interface {
	Search(ctx context.Context, queries []string, maxResults int) ([]index.Hit, error)
}

// SuggestionFetcher fetches remote autocomplete suggestions; failures yield nil
type SuggestionFetcher interface {
	Fetch(ctx context.Context, url string) []string
}

// Options tunes an Engine
type Options struct {
	SettingsPackage string
	Suggestions     SuggestionFetcher
	Now             func() time.Time
}

// Engine answers launcher queries. It owns the single-character result cache
// and invalidates it whenever the store changes.
type Engine struct {
	store   *store.Store
	index   IndexSearcher
	tracker *history.Tracker
	mat     *materialize.Materializer
	suggest SuggestionFetcher

	settingsPackage string
	now             func() time.Time
	log             *zap.Logger

	mu        sync.RWMutex
	shortcuts []model.SearchShortcut
	snippets  []model.Snippet

	// cacheMu orders cache writes against Invalidate; generation is guarded by it
	cacheMu    sync.Mutex
	cache      *lru.Cache[string, []model.SearchResult]
	generation uint64
	lastUsage  atomic.Int64 // UnixNano of the latest usage report
}

// New creates an engine and subscribes it to store changes. idx may be nil,
// in which case only in-memory contributions are returned.
func New(st *store.Store, idx IndexSearcher, tracker *history.Tracker, mat *materialize.Materializer, opts Options) *Engine {
	if opts.SettingsPackage == "" {
		opts.SettingsPackage = DefaultSettingsPackage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		store:           st,
		index:           idx,
		tracker:         tracker,
		mat:             mat,
		suggest:         opts.Suggestions,
		settingsPackage: opts.SettingsPackage,
		now:             opts.Now,
		log:             logger.Named("search"),
		cache:           lru.New[string, []model.SearchResult](CacheSize),
	}
	st.Subscribe(func(types.Namespace) { e.Invalidate() })
	return e
}

// SetSearchShortcuts replaces the shortcuts used for alias activation
func (e *Engine) SetSearchShortcuts(list []model.SearchShortcut) {
	e.mu.Lock()
	e.shortcuts = append([]model.SearchShortcut(nil), list...)
	e.mu.Unlock()
	e.Invalidate()
}

// SetSnippets replaces the snippets matched against queries
func (e *Engine) SetSnippets(list []model.Snippet) {
	e.mu.Lock()
	e.snippets = append([]model.Snippet(nil), list...)
	e.mu.Unlock()
	e.Invalidate()
}

// Invalidate drops every cached result list
func (e *Engine) Invalidate() {
	e.cacheMu.Lock()
	e.generation++
	e.cache.Clear()
	e.cacheMu.Unlock()
}

// Search returns ranked results for query; limit <= 0 means unlimited.
// An empty query returns the recent items.
func (e *Engine) Search(ctx context.Context, query string, limit int) []model.SearchResult {
	if strings.TrimSpace(query) == "" {
		return e.RecentItems(ctx, limit, nil)
	}

	key, cacheable := cacheKey(query)
	if cacheable {
		if cached, ok := e.cache.Get(key); ok {
			return applyLimit(cached, limit)
		}
		e.cacheMu.Lock()
		gen := e.generation
		e.cacheMu.Unlock()

		results, degraded := e.compute(ctx, query, 0)
		if !degraded {
			e.storeCached(key, gen, results)
		}
		return applyLimit(results, limit)
	}

	results, _ := e.compute(ctx, query, limit)
	return applyLimit(results, limit)
}

// storeCached caches results unless the store changed since gen was read or a
// usage report is still cooling down
func (e *Engine) storeCached(key string, gen uint64, results []model.SearchResult) {
	if e.now().Sub(time.Unix(0, e.lastUsage.Load())) < UsageCooldown {
		return
	}
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if gen != e.generation {
		return
	}
	e.cache.Put(key, results)
}

// RecentItems returns recently launched apps, most recent first, skipping
// excluded ids ("namespace:id" keys or bare app ids) and uninstalled apps.
func (e *Engine) RecentItems(ctx context.Context, limit int, excluded []string) []model.SearchResult {
	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	var results []model.SearchResult
	for _, id := range e.tracker.History() {
		if limit > 0 && len(results) >= limit {
			break
		}
		if skip[id] || skip[types.Key(types.NamespaceApps, id)] {
			continue
		}
		doc, ok := e.store.Get(types.NamespaceApps, id)
		if !ok {
			continue
		}
		results = append(results, e.mat.Materialize(ctx, doc, 0))
	}
	return results
}

// ReportUsage records that the user launched (ns, id) after typing query.
// The cached list for query, if any, is dropped since its ranking just changed.
func (e *Engine) ReportUsage(ns types.Namespace, id, query string, wasFirstResult bool) {
	e.tracker.RecordUsage(id)
	if ns == types.NamespaceApps {
		e.tracker.RecordHistory(id)
	}
	e.lastUsage.Store(e.now().UnixNano())

	if key, ok := cacheKey(query); ok {
		e.cache.Delete(key)
	}
	e.log.Debug("usage reported",
		zap.String("key", types.Key(ns, id)), zap.String("query", query), zap.Bool("first_result", wasFirstResult))
}

// cacheKey returns the cache key for queries of exactly one letter or digit
func cacheKey(query string) (string, bool) {
	if utf8.RuneCountInString(query) != 1 {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(query)
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return "", false
	}
	return strings.ToLower(query), true
}

func applyLimit(results []model.SearchResult, limit int) []model.SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

// candidate is the flat shape ranking works on before materialization
type candidate struct {
	doc   types.Document
	score int
}

// compute runs the full pipeline. Contributions are appended in discovery
// order, then stably sorted so ties keep that order. degraded is set when the
// index query failed or ctx ended, so the list must not be cached.
func (e *Engine) compute(ctx context.Context, query string, limit int) (results []model.SearchResult, degraded bool) {
	e.mu.RLock()
	shortcuts := e.shortcuts
	snippets := e.snippets
	e.mu.RUnlock()

	activated, intents := e.activate(ctx, query, shortcuts)
	results = append(results, intents...)
	results = append(results, e.matchSnippets(ctx, query, snippets)...)
	results = append(results, detectActions(query)...)

	indexed, seen, err := e.searchIndex(ctx, query, activated, limit)
	if err != nil {
		e.log.Warn("index query failed, continuing without index results", zap.String("query", query), zap.Error(err))
	}
	results = append(results, indexed...)
	results = append(results, e.fuzzyFallback(ctx, query, activated, seen)...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Common().RankingScore > results[j].Common().RankingScore
	})
	return dedupe(results), err != nil || ctx.Err() != nil
}

// activate handles step 1: the first word of the query matching a shortcut alias
func (e *Engine) activate(ctx context.Context, query string, shortcuts []model.SearchShortcut) (*model.SearchShortcut, []model.SearchResult) {
	trigger, remainder := splitTrigger(query)
	if trigger == "" {
		return nil, nil
	}

	var sc *model.SearchShortcut
	for i := range shortcuts {
		if strings.EqualFold(shortcuts[i].Alias, trigger) {
			sc = &shortcuts[i]
			break
		}
	}
	if sc == nil {
		return nil, nil
	}

	name := sc.Description
	if name == "" {
		name = sc.Alias
	}
	icon := e.mat.Icon(ctx, types.Document{Namespace: types.NamespaceSearchShortcuts, ID: sc.ID})

	primary := &model.SearchIntentResult{
		Base: model.Base{
			ID:        sc.ID,
			Namespace: types.NamespaceSearchShortcuts,
			Icon:      icon,
		},
		Alias:       sc.Alias,
		PackageName: sc.PackageName,
	}
	if remainder == "" {
		primary.Title = "Search " + name
		primary.Subtitle = "Type a search term after \"" + sc.Alias + " \""
		primary.RankingScore = ScoreActivationPrompt
		return sc, []model.SearchResult{primary}
	}

	primary.Title = "Search " + name + " for \"" + remainder + "\""
	primary.URL = sc.BuildURL(remainder)
	primary.Subtitle = primary.URL
	primary.Term = remainder
	primary.RankingScore = ScoreActivation
	results := []model.SearchResult{primary}

	if sc.SuggestionURL != "" && e.suggest != nil {
		suggestions := e.suggest.Fetch(ctx, sc.BuildSuggestionURL(remainder))
		if len(suggestions) > MaxSuggestions {
			suggestions = suggestions[:MaxSuggestions]
		}
		for _, s := range suggestions {
			results = append(results, &model.SearchIntentResult{
				Base: model.Base{
					ID:           sc.ID + "#" + s,
					Namespace:    types.NamespaceSearchShortcuts,
					Title:        s,
					Subtitle:     name,
					Icon:         icon,
					RankingScore: ScoreSuggestion,
				},
				Alias:       sc.Alias,
				URL:         sc.BuildURL(s),
				Term:        s,
				PackageName: sc.PackageName,
				Suggestion:  true,
			})
		}
	}
	return sc, results
}

// splitTrigger splits on the first whitespace. The remainder is trimmed.
func splitTrigger(query string) (trigger, remainder string) {
	q := strings.TrimLeftFunc(query, unicode.IsSpace)
	idx := strings.IndexFunc(q, unicode.IsSpace)
	if idx < 0 {
		return q, ""
	}
	return q[:idx], strings.TrimSpace(q[idx:])
}

// matchSnippets handles step 2
func (e *Engine) matchSnippets(ctx context.Context, query string, snippets []model.Snippet) []model.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []model.SearchResult
	for _, sn := range snippets {
		alias := strings.ToLower(strings.TrimSpace(sn.Alias))
		score := 0
		switch {
		case alias == q:
			score = ScoreSnippetExact
		case strings.HasPrefix(alias, q):
			score = ScoreSnippetPrefix
		case strings.Contains(alias, q):
			score = ScoreSnippetSubstring
		case strings.Contains(strings.ToLower(sn.Content), q):
			score = ScoreSnippetContent
		default:
			continue
		}

		doc := types.Document{Namespace: types.NamespaceSnippets, ID: alias}
		results = append(results, &model.SnippetResult{
			Base: model.Base{
				ID:           alias,
				Namespace:    types.NamespaceSnippets,
				Title:        sn.Alias,
				Subtitle:     materialize.Preview(sn.Content),
				Icon:         e.mat.Icon(ctx, doc),
				RankingScore: score,
			},
			Alias:   sn.Alias,
			Content: sn.Content,
		})
	}
	return results
}

// detectActions handles step 3
func detectActions(query string) []model.SearchResult {
	actions := smartaction.Detect(query)
	results := make([]model.SearchResult, 0, len(actions))
	for _, a := range actions {
		results = append(results, &model.ContentResult{
			Base: model.Base{
				ID:           string(a.Kind) + ":" + a.Target,
				Namespace:    ActionNamespace,
				Title:        a.Title,
				Subtitle:     a.URI,
				Icon:         "glyph:" + string(a.Kind),
				RankingScore: a.Score,
			},
			DeepLink: a.URI,
			IsAction: true,
		})
	}
	return results
}

// searchIndex handles step 4. It returns the materialized top candidates and
// the keys of every candidate considered, for fuzzy dedupe. On error the
// caller still gets an empty seen set so the fuzzy fallback can run.
func (e *Engine) searchIndex(ctx context.Context, query string, activated *model.SearchShortcut, limit int) ([]model.SearchResult, map[string]bool, error) {
	seen := make(map[string]bool)
	if e.index == nil {
		return nil, seen, nil
	}

	queries := []string{query}
	if variant := smartaction.QueryPhoneVariant(query); variant != "" {
		queries = append(queries, variant)
	}

	hits, err := e.index.Search(ctx, queries, maxCandidates)
	if err != nil {
		return nil, seen, err
	}

	candidates := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		if len(candidates) >= maxCandidates {
			break
		}
		// The mirror decides visibility; the durable copy may lag a failed delete
		doc, ok := e.store.Get(hit.Document.Namespace, hit.Document.ID)
		if !ok || isActivatedShortcut(doc, activated) {
			continue
		}
		key := doc.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, candidate{doc: doc, score: e.compositeScore(doc, query)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	n := defaultMaterialize
	if limit > 0 {
		n = 2 * limit
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	results := make([]model.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, e.mat.Materialize(ctx, c.doc, c.score))
	}
	return results, seen, nil
}

// compositeScore is clamp(prior + usage*10, 0) + namespace boost + name match boost
func (e *Engine) compositeScore(doc types.Document, query string) int {
	base := doc.Score + e.tracker.UsageCount(doc.ID)*usageWeight
	if base < 0 {
		base = 0
	}
	return base + e.namespaceBoost(doc) + nameMatchBoost(doc.Name, query)
}

func (e *Engine) namespaceBoost(doc types.Document) int {
	switch doc.Namespace {
	case types.NamespaceApps:
		if doc.ID == e.settingsPackage {
			return boostSettings
		}
		return boostApps
	case types.NamespaceShortcuts, types.NamespaceStaticShortcuts:
		return boostShortcuts
	case types.NamespaceWebBookmarks:
		return boostBookmarks
	}
	return 0
}

func nameMatchBoost(name, query string) int {
	n := strings.ToLower(strings.TrimSpace(name))
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case q == "":
		return 0
	case n == q:
		return boostNameExact
	case strings.HasPrefix(n, q):
		return boostNamePrefix
	case strings.Contains(n, q):
		return boostNameContains
	}
	return 0
}

// isActivatedShortcut reports whether doc mirrors the shortcut the query activated
func isActivatedShortcut(doc types.Document, activated *model.SearchShortcut) bool {
	return activated != nil &&
		doc.Namespace == types.NamespaceSearchShortcuts &&
		(doc.ID == activated.ID || strings.EqualFold(doc.Description, activated.Alias))
}

// fuzzyFallback handles step 5: score every document name and keep the best
// matches the index did not already return
func (e *Engine) fuzzyFallback(ctx context.Context, query string, activated *model.SearchShortcut, seen map[string]bool) []model.SearchResult {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < fuzzyMinQueryLen {
		return nil
	}

	qMask := fuzzy.Mask(q)
	var matches []candidate
	e.store.ForEach(func(doc types.Document, nameMask uint64) bool {
		if s := fuzzy.ScoreWithMask(q, qMask, doc.Name, nameMask); s > fuzzyMinScore {
			matches = append(matches, candidate{doc: doc, score: s})
		}
		return true
	})

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > fuzzyMaxResults {
		matches = matches[:fuzzyMaxResults]
	}

	var results []model.SearchResult
	for _, m := range matches {
		if seen[m.doc.Key()] || isActivatedShortcut(m.doc, activated) {
			continue
		}
		score := m.score
		if m.doc.Namespace == types.NamespaceApps {
			score += fuzzyAppBoost
		}
		results = append(results, e.mat.Materialize(ctx, m.doc, score))
	}
	return results
}

// dedupe keeps the first result for each namespace:id
func dedupe(results []model.SearchResult) []model.SearchResult {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		key := model.Key(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
