package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/types"
)

// ErrInvalidURL is returned for bookmark URLs that cannot be opened in a browser
var ErrInvalidURL = errors.New("invalid url")

// NormalizeURL adds https:// when the scheme is missing and checks the URL has a host
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w %q: no host", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

// BookmarkDocument maps a web page. Description carries the host and path
// words so the page is found by its address as well as its title.
func BookmarkDocument(rawURL, title string) (types.Document, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return types.Document{}, err
	}
	parsed, _ := url.Parse(u)

	name := strings.TrimSpace(title)
	if name == "" {
		name = strings.TrimPrefix(parsed.Host, "www.")
	}
	words := strings.FieldsFunc(parsed.Host+parsed.Path, func(r rune) bool {
		return r == '/' || r == '.' || r == '-' || r == '_'
	})

	return types.Document{
		Namespace:   types.NamespaceWebBookmarks,
		ID:          types.BookmarkID(u),
		Name:        name,
		Description: strings.Join(words, " "),
		Score:       types.DefaultScore(types.NamespaceWebBookmarks),
		IntentURI:   u,
	}, nil
}

// IndexURL adds or updates a single bookmark without rebuilding the namespace
func (m *Manager) IndexURL(ctx context.Context, rawURL, title string) (types.Document, error) {
	doc, err := BookmarkDocument(rawURL, title)
	if err != nil {
		return types.Document{}, err
	}
	if err := m.store.Upsert(ctx, doc); err != nil {
		return doc, err
	}
	m.log.Debug("bookmark indexed", zap.String("id", doc.ID), zap.String("url", doc.IntentURI))
	return doc, nil
}

// Remove deletes a single document from any namespace
func (m *Manager) Remove(ctx context.Context, ns types.Namespace, id string) error {
	return m.store.RemoveByID(ctx, ns, id)
}
