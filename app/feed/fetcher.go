package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const fetchTimeout = 15 * time.Second

// Fetcher retrieves and parses a single syndication feed into entries.
// Fetch is safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Fetch performs one bounded-timeout GET against the feed URL and parses
// the body. Network errors, non-200 statuses, and parse failures are
// returned to the caller; the orchestrator treats them as an empty result
// for that endpoint.
func (f *Fetcher) Fetch(ctx context.Context, feedURL, sourceName string) ([]Entry, error) {
	data, err := f.fetchFeed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	// gofeed.Parser lazily initializes internal translator state on first
	// parse, so a shared instance is not safe across goroutines. A fresh
	// parser per call keeps concurrent fetches independent.
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, Entry{
			Title:           item.Title,
			Link:            item.Link,
			Source:          sourceName,
			Description:     item.Description,
			PublishedParsed: item.PublishedParsed,
			UpdatedParsed:   item.UpdatedParsed,
			PublishedRaw:    item.Published,
			UpdatedRaw:      item.Updated,
		})
	}

	return entries, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
