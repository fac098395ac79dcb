// Package suggest fetches remote autocomplete suggestions for search shortcuts.
// Every failure degrades to no suggestions; nothing is ever surfaced to the caller.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/igusev/qlaunch/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxBodyBytes   = 64 << 10
	defaultBackoff = 30 * time.Second
)

// Config configures a Client
type Config struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxResults        int
}

// Client fetches OpenSearch-style suggestion lists
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	max     int
	log     *zap.Logger

	mu      sync.Mutex
	retryAt time.Time
}

// New creates a suggestion client
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		max:     cfg.MaxResults,
		log:     logger.Named("suggest"),
	}
}

// Fetch returns up to MaxResults suggestions from url, or nil on any failure.
// Requests over the rate limit are dropped rather than delayed, since a newer
// keystroke will ask again.
func (c *Client) Fetch(ctx context.Context, url string) []string {
	if url == "" {
		return nil
	}

	c.mu.Lock()
	backingOff := time.Now().Before(c.retryAt)
	c.mu.Unlock()
	if backingOff || !c.limiter.Allow() {
		return nil
	}

	suggestions, err := c.fetch(ctx, url)
	if err != nil {
		c.log.Debug("suggestion fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	return suggestions
}

func (c *Client) fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/x-suggestions+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.mu.Lock()
		c.retryAt = time.Now().Add(defaultBackoff)
		c.mu.Unlock()
		return nil, fmt.Errorf("rate limited by %s", req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return Parse(body, c.max)
}

// Parse decodes an OpenSearch suggestion response ["query", ["s1", "s2", ...], ...].
// A JSONP wrapper such as cb([...]) is tolerated. At most max entries are returned.
func Parse(body []byte, max int) ([]string, error) {
	start := bytes.IndexByte(body, '[')
	end := bytes.LastIndexByte(body, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(body[start:end+1], &parts); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("response has %d elements, want at least 2", len(parts))
	}

	// Entries are plain strings or, for some providers, [string, ...] tuples
	var raw []json.RawMessage
	if err := json.Unmarshal(parts[1], &raw); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}

	out := make([]string, 0, max)
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		if len(out) >= max {
			break
		}
		s, ok := decodeEntry(r)
		s = strings.TrimSpace(s)
		if !ok || s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out, nil
}

func decodeEntry(r json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s, true
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(r, &tuple); err == nil && len(tuple) > 0 {
		if err := json.Unmarshal(tuple[0], &s); err == nil {
			return s, true
		}
	}
	return "", false
}
