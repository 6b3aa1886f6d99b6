package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// CachedFetcher wraps a Fetcher with a file-based TTL cache of raw
// HTML, so re-opening a page within the window skips the network.
type CachedFetcher struct {
	*Fetcher
	dir string
	ttl time.Duration
}

// NewCachedFetcher creates the cache directory if needed. A zero ttl
// disables caching reads (everything is a miss) but still stores
// fetched pages.
func NewCachedFetcher(dir string, ttl time.Duration) (*CachedFetcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &CachedFetcher{Fetcher: NewFetcher(), dir: dir, ttl: ttl}, nil
}

// GetHtmlBytes returns cached raw HTML when fresh, otherwise fetches
// and stores. A cache write failure is not a fetch failure.
func (c *CachedFetcher) GetHtmlBytes(rawURL string) ([]byte, error) {
	path := c.cachePath(rawURL)

	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) <= c.ttl {
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	data, err := c.Fetcher.GetHtmlBytes(rawURL)
	if err != nil {
		return nil, err
	}
	_ = os.WriteFile(path, data, 0644)
	return data, nil
}

// cachePath names cache files digest-first with the host as a readable
// suffix, so a cache directory can be eyeballed.
func (c *CachedFetcher) cachePath(rawURL string) string {
	digest := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(digest[:8])
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Hostname() != "" {
		name += "-" + parsed.Hostname()
	}
	return filepath.Join(c.dir, name+".html")
}
