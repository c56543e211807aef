package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calsweep/calsweep/internal/storage"
	log "github.com/sirupsen/logrus"
)

const (
	cacheKind    = "feed"
	userAgent    = "calsweep/1.0 (+https://github.com/calsweep/calsweep)"
	fetchTimeout = 30 * time.Second
)

// CacheRecord holds the conditional-GET state for one user's feed source.
type CacheRecord struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Content      string    `json:"content"`
	SourceURL    string    `json:"source_url"`
	Timestamp    time.Time `json:"timestamp"`
}

// Fetcher downloads feed documents with ETag/Last-Modified caching so
// unchanged feeds are not re-transferred on every run.
type Fetcher struct {
	client *http.Client
	store  storage.Store
}

func NewFetcher(store storage.Store) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		store:  store,
	}
}

// Fetch returns the feed body for url. The second return value reports
// whether the body came from the cache (304 Not Modified).
func (f *Fetcher) Fetch(ctx context.Context, userId string, url string) ([]byte, bool, error) {
	var cached CacheRecord
	found, err := f.store.Get(userId, cacheKind, &cached)
	if err != nil {
		log.Errorf("failed to load feed cache for user %s: %v", userId, err)
		found = false
	}
	// A reconfigured source URL invalidates the cache.
	if found && cached.SourceURL != url {
		log.Infof("feed source changed for user %s, discarding feed cache", userId)
		_ = f.store.Delete(userId, cacheKind)
		found = false
		cached = CacheRecord{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid feed URL: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if found && cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}
	if found && cached.LastModified != "" {
		req.Header.Set("If-Modified-Since", cached.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && found && cached.Content != "" {
		log.Debugf("feed not modified for user %s, using cached body", userId)
		return []byte(cached.Content), true, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("feed request returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read feed body: %w", err)
	}

	record := CacheRecord{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Content:      string(body),
		SourceURL:    url,
		Timestamp:    time.Now().UTC(),
	}
	if record.ETag != "" || record.LastModified != "" {
		if err := f.store.Put(userId, cacheKind, record); err != nil {
			log.Errorf("failed to save feed cache for user %s: %v", userId, err)
		}
	}

	return body, false, nil
}

// ClearCache drops the cached feed state for a user.
func (f *Fetcher) ClearCache(userId string) error {
	return f.store.Delete(userId, cacheKind)
}
