package ics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "hackwave/internal/log"
)

// Source is one recommendation feed.
type Source struct {
	// ID is the config feed ID; it prefixes generated event ids.
	ID string
	// URL is the ICS endpoint.
	URL string
	// Category is applied to feed events that carry no CATEGORIES property.
	Category string
}

// FetchResult is the calendar body obtained for one feed.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool
}

const (
	maxFeedBytes     = 8 << 20
	maxParallelFeeds = 4
)

// errNotCalendar marks a 200 response whose body is not an iCalendar stream,
// typically an HTML login or error page served by the feed host.
var errNotCalendar = errors.New("response is not an iCalendar body")

// Fetcher downloads feeds with conditional requests and keeps the last good
// body of each feed on disk, so a flaky or misbehaving host never empties the
// recommendation list.
type Fetcher struct {
	client *http.Client
	cache  feedCache
}

// NewFetcher caches under cacheDir, or ./var/feed-cache when empty.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/feed-cache"
	}
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  feedCache{dir: cacheDir},
	}
}

// FetchAll fetches up to maxParallelFeeds sources at a time. Results keep the
// order of sources and hold only the feeds that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	slots := make([]*FetchResult, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(maxParallelFeeds)
	for i, src := range sources {
		g.Go(func() error {
			res, err := f.FetchOne(ctx, src)
			if err != nil {
				errs[i] = fmt.Errorf("feed %s: %w", src.ID, err)
				appLog.Error("feed unavailable", err, "id", src.ID, "url", redactURL(src.URL))
				return nil
			}
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]FetchResult, 0, len(sources))
	failed := make([]error, 0)
	for i := range sources {
		if slots[i] != nil {
			results = append(results, *slots[i])
		}
		if errs[i] != nil {
			failed = append(failed, errs[i])
		}
	}
	return results, failed
}

// FetchOne fetches one feed. A 304, a transport error, a non-2xx status or a
// body that is not a calendar all fall back to the cached body when there is
// one.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	meta, cached := f.cache.load(src.URL)
	fromCache := func(reason error) (FetchResult, error) {
		if len(cached) == 0 {
			return FetchResult{}, reason
		}
		appLog.Warn("serving cached feed", "id", src.ID, "url", redactURL(src.URL), "reason", reason.Error())
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "text/calendar, */*;q=0.5")
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fromCache(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("feed unchanged", "id", src.ID)
		return FetchResult{Source: src, Body: cached, FromCache: true}, nil

	case resp.StatusCode != http.StatusOK:
		return fromCache(fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return fromCache(err)
	}
	if !looksLikeCalendar(body) {
		return fromCache(errNotCalendar)
	}

	if err := f.cache.save(cacheEntry{
		URL:          src.URL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, body); err != nil {
		appLog.Error("feed cache write failed", err, "id", src.ID)
	}
	appLog.Info("feed downloaded", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
	return FetchResult{Source: src, Body: body}, nil
}

// looksLikeCalendar checks for BEGIN:VCALENDAR after an optional BOM and
// leading whitespace.
func looksLikeCalendar(body []byte) bool {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	body = bytes.TrimLeft(body, " \t\r\n")
	return len(body) >= 15 && bytes.EqualFold(body[:15], []byte("BEGIN:VCALENDAR"))
}

type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// feedCache stores one directory per feed URL holding body.ics and meta.json.
type feedCache struct {
	dir string
}

func (c feedCache) entryDir(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8]))
}

// load returns zero values for a feed that was never cached.
func (c feedCache) load(rawURL string) (cacheEntry, []byte) {
	dir := c.entryDir(rawURL)

	var meta cacheEntry
	if data, err := os.ReadFile(filepath.Join(dir, "meta.json")); err == nil {
		if json.Unmarshal(data, &meta) != nil || meta.URL != rawURL {
			meta = cacheEntry{}
		}
	}
	body, _ := os.ReadFile(filepath.Join(dir, "body.ics"))
	return meta, body
}

// save writes the body before the metadata so meta.json never describes a
// body that isn't there.
func (c feedCache) save(meta cacheEntry, body []byte) error {
	dir := c.entryDir(meta.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host of a feed URL for logging; private
// calendar URLs usually carry a token in the path or query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "feed://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
