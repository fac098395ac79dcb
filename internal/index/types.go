package index

import "github.com/igusev/qlaunch/internal/types"

// indexedDocument is the bleve representation of a types.Document
type indexedDocument struct {
	Namespace   string // keyword
	DocID       string // keyword, id within the namespace
	Name        string // prefix-searchable
	Description string // prefix-searchable, meaning depends on namespace
	Score       int
	IntentURI   string
	IconResID   int
	IsAction    bool
}

// Hit is a document returned by a durable index query
type Hit struct {
	Document  types.Document
	Relevance float64 // Bleve relevance, only used to break composite-score ties
}
