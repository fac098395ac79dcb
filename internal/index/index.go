// Package index provides the durable full-text document index using Bleve.
// Documents are partitioned by namespace; the bleve document id is "namespace:id".
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/igusev/qlaunch/internal/types"
)

const (
	// IndexVersion is the current version of the index schema
	// Increment this when making breaking changes to the index structure
	IndexVersion = 3 // Version 3: text fields keep stop words

	// textAnalyzer splits on unicode word boundaries and lowercases, nothing
	// else, so every typed word has a term to prefix-match
	textAnalyzer = "launcher_text"

	// Version metadata document ID (reserved, never used for documents)
	versionDocID = "__index_version__"

	// loadPageSize bounds a single LoadAll request
	loadPageSize = 1000
)

// ErrIndexVersionMismatch indicates the index schema version is incompatible
var ErrIndexVersionMismatch = errors.New("index version mismatch")

// storedFields are requested on every hit so documents can be rebuilt without the mirror
var storedFields = []string{"Namespace", "DocID", "Name", "Description", "Score", "IntentURI", "IconResID", "IsAction"}

// DurableIndex is the bleve-backed persistent document index
type DurableIndex struct {
	index bleve.Index
	path  string
}

// versionDocument stores the index schema version
type versionDocument struct {
	Version int `json:"version"`
}

// Open creates or opens a durable index at indexPath.
// Returns ErrIndexVersionMismatch if an existing index has an incompatible version.
func Open(indexPath string) (*DurableIndex, error) {
	var index bleve.Index
	var err error

	if _, statErr := os.Stat(indexPath); os.IsNotExist(statErr) {
		im, mappingErr := buildIndexMapping()
		if mappingErr != nil {
			return nil, mappingErr
		}
		index, err = bleve.New(indexPath, im)
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}

		if err := index.Index(versionDocID, versionDocument{Version: IndexVersion}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to store index version: %w", err)
		}
	} else {
		index, err = bleve.Open(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open index: %w", err)
		}

		if err := checkVersion(index); err != nil {
			_ = index.Close()
			return nil, err
		}
	}

	return &DurableIndex{index: index, path: indexPath}, nil
}

// OpenInMemory creates a memory-only index, used by tests and ephemeral runs
func OpenInMemory() (*DurableIndex, error) {
	im, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory index: %w", err)
	}
	return &DurableIndex{index: index}, nil
}

// OpenWithAutoRecreate opens the index, recreating it from scratch on a version mismatch.
// The bool result reports whether the index was recreated (and therefore is empty).
func OpenWithAutoRecreate(indexPath string) (*DurableIndex, bool, error) {
	di, err := Open(indexPath)
	if err == nil {
		return di, false, nil
	}
	if !errors.Is(err, ErrIndexVersionMismatch) {
		return nil, false, err
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, false, fmt.Errorf("failed to remove old index: %w", err)
	}
	di, err = Open(indexPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create new index after version mismatch: %w", err)
	}
	return di, true, nil
}

func checkVersion(index bleve.Index) error {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{versionDocID}))
	req.Fields = []string{"version"}
	res, err := index.Search(req)
	if err != nil || len(res.Hits) == 0 {
		return fmt.Errorf("%w: index has no version metadata", ErrIndexVersionMismatch)
	}

	stored := 0
	if v, ok := res.Hits[0].Fields["version"].(float64); ok {
		stored = int(v)
	}
	if stored != IndexVersion {
		return fmt.Errorf("%w: index version %d, current version %d", ErrIndexVersionMismatch, stored, IndexVersion)
	}
	return nil
}

// buildIndexMapping creates the mapping for launcher documents
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(textAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register text analyzer: %w", err)
	}
	indexMapping.DefaultAnalyzer = textAnalyzer

	docMapping := bleve.NewDocumentMapping()

	// Namespace and DocID are matched verbatim
	for _, field := range []string{"Namespace", "DocID"} {
		fm := bleve.NewKeywordFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = textAnalyzer
	nameMapping.Store = true
	docMapping.AddFieldMappingsAt("Name", nameMapping)

	descMapping := bleve.NewTextFieldMapping()
	descMapping.Analyzer = textAnalyzer
	descMapping.Store = true
	docMapping.AddFieldMappingsAt("Description", descMapping)

	// Stored only
	for _, field := range []string{"Score", "IconResID"} {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		fm.Index = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	intentMapping := bleve.NewTextFieldMapping()
	intentMapping.Store = true
	intentMapping.Index = false
	docMapping.AddFieldMappingsAt("IntentURI", intentMapping)

	actionMapping := bleve.NewBooleanFieldMapping()
	actionMapping.Store = true
	actionMapping.Index = false
	docMapping.AddFieldMappingsAt("IsAction", actionMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// Index adds or replaces a single document
func (di *DurableIndex) Index(ctx context.Context, doc types.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := di.index.Index(doc.Key(), fromDocument(doc)); err != nil {
		return fmt.Errorf("failed to index %s: %w", doc.Key(), err)
	}
	return nil
}

// Delete removes a single document
func (di *DurableIndex) Delete(ctx context.Context, ns types.Namespace, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := di.index.Delete(types.Key(ns, id)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", types.Key(ns, id), err)
	}
	return nil
}

// ReplaceNamespace swaps the contents of ns for docs in one batch.
// Documents of ns that are not in docs are deleted.
func (di *DurableIndex) ReplaceNamespace(ctx context.Context, ns types.Namespace, docs []types.Document) error {
	existing, err := di.namespaceIDs(ctx, ns)
	if err != nil {
		return err
	}

	batch := di.index.NewBatch()
	keep := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc.Namespace != ns {
			return fmt.Errorf("document %s does not belong to namespace %s", doc.Key(), ns)
		}
		keep[doc.Key()] = true
		if err := batch.Index(doc.Key(), fromDocument(doc)); err != nil {
			return fmt.Errorf("failed to add document %s to batch: %w", doc.Key(), err)
		}
	}
	for _, key := range existing {
		if !keep[key] {
			batch.Delete(key)
		}
	}

	if err := di.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to replace namespace %s: %w", ns, err)
	}
	return nil
}

// DeleteNamespace removes every document of ns
func (di *DurableIndex) DeleteNamespace(ctx context.Context, ns types.Namespace) error {
	return di.ReplaceNamespace(ctx, ns, nil)
}

// namespaceIDs lists bleve ids of every document in ns
func (di *DurableIndex) namespaceIDs(ctx context.Context, ns types.Namespace) ([]string, error) {
	count, err := di.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	q := bleve.NewTermQuery(string(ns))
	q.SetField("Namespace")
	req := bleve.NewSearchRequestOptions(q, clampSize(count), 0, false)

	res, err := di.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list namespace %s: %w", ns, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// LoadAll reads every document, used to hydrate the in-memory mirror on cold start
func (di *DurableIndex) LoadAll(ctx context.Context) ([]types.Document, error) {
	var docs []types.Document
	for from := 0; ; from += loadPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), loadPageSize, from, false)
		req.Fields = storedFields
		req.SortBy([]string{"_id"})

		res, err := di.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to load documents: %w", err)
		}
		for _, hit := range res.Hits {
			if hit.ID == versionDocID {
				continue
			}
			docs = append(docs, toDocument(hit))
		}
		if len(res.Hits) < loadPageSize {
			return docs, nil
		}
	}
}

// Search runs a prefix query. Within each query string every token must
// prefix-match Name or Description; separate query strings are OR-ed.
func (di *DurableIndex) Search(ctx context.Context, queries []string, maxResults int) ([]Hit, error) {
	q := buildQuery(queries)
	if q == nil {
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(q, maxResults, 0, false)
	req.Fields = storedFields

	res, err := di.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit.ID == versionDocID {
			continue
		}
		hits = append(hits, Hit{Document: toDocument(hit), Relevance: hit.Score})
	}
	return hits, nil
}

// Count returns the number of indexed documents, including the version document
func (di *DurableIndex) Count() (uint64, error) {
	return di.index.DocCount()
}

// Path returns the on-disk location, empty for in-memory indexes
func (di *DurableIndex) Path() string {
	return di.path
}

// Close closes the index
func (di *DurableIndex) Close() error {
	return di.index.Close()
}

// Exists checks if the index exists at the given path
func Exists(indexPath string) bool {
	_, err := os.Stat(indexPath)
	return !os.IsNotExist(err)
}

func clampSize(count uint64) int {
	if count > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(count)
}

func fromDocument(doc types.Document) indexedDocument {
	return indexedDocument{
		Namespace:   string(doc.Namespace),
		DocID:       doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Score:       doc.Score,
		IntentURI:   doc.IntentURI,
		IconResID:   doc.IconResID,
		IsAction:    doc.IsAction,
	}
}

func toDocument(hit *search.DocumentMatch) types.Document {
	str := func(field string) string {
		s, _ := hit.Fields[field].(string)
		return s
	}
	num := func(field string) int {
		f, _ := hit.Fields[field].(float64)
		return int(f)
	}
	isAction, _ := hit.Fields["IsAction"].(bool)

	return types.Document{
		Namespace:   types.Namespace(str("Namespace")),
		ID:          str("DocID"),
		Name:        str("Name"),
		Description: str("Description"),
		Score:       num("Score"),
		IntentURI:   str("IntentURI"),
		IconResID:   num("IconResID"),
		IsAction:    isAction,
	}
}
