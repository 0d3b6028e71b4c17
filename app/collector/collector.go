// Package collector orchestrates one collection run: fetching feeds per
// source, filtering by publish window, scraping article pages and
// persisting the merged result in batches.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"newsdigest/app/database"
	"newsdigest/app/feed"
	"newsdigest/app/scraper"
	"newsdigest/app/sources"
)

// Summary tallies a full collect-and-store run.
type Summary struct {
	Found    int `json:"found"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// Collector coordinates per-source collection tasks.
type Collector struct {
	registry   *sources.Registry
	fetcher    *feed.Fetcher
	scraper    *scraper.Scraper
	store      database.ArticleStore
	batchSize  int
	datePolicy feed.UnparsedDatePolicy
	now        func() time.Time
}

func New(registry *sources.Registry, fetcher *feed.Fetcher, pageScraper *scraper.Scraper,
	store database.ArticleStore, batchSize int, datePolicy feed.UnparsedDatePolicy) *Collector {
	return &Collector{
		registry:   registry,
		fetcher:    fetcher,
		scraper:    pageScraper,
		store:      store,
		batchSize:  batchSize,
		datePolicy: datePolicy,
		now:        time.Now,
	}
}

// Collect runs one collection task per requested source concurrently and
// concatenates their results. Unknown source names are warned about and
// skipped; a failing source contributes zero articles without affecting
// its siblings. Within one source, articles keep feed order.
func (c *Collector) Collect(ctx context.Context, sourceNames []string, window feed.Window) []database.Article {
	if len(sourceNames) == 0 {
		sourceNames = c.registry.Names()
	}

	var selected []string
	for _, name := range sourceNames {
		if !c.registry.Has(name) {
			slog.Warn("Unknown source requested, skipping", "source", name)
			continue
		}
		selected = append(selected, name)
	}

	results := make([][]database.Article, len(selected))
	var wg sync.WaitGroup
	for i, name := range selected {
		wg.Add(1)
		go func(slot int, sourceName string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("Collection task panicked", "source", sourceName, "panic", r)
				}
			}()
			results[slot] = c.collectSource(ctx, sourceName, window)
		}(i, name)
	}
	wg.Wait()

	var articles []database.Article
	for _, result := range results {
		articles = append(articles, result...)
	}
	return articles
}

func (c *Collector) collectSource(ctx context.Context, sourceName string, window feed.Window) []database.Article {
	endpoints, err := c.registry.Endpoints(sourceName)
	if err != nil {
		slog.Warn("Failed to resolve source endpoints", "source", sourceName, "error", err)
		return nil
	}

	var articles []database.Article
	for _, endpoint := range endpoints {
		entries, err := c.fetcher.Fetch(ctx, endpoint.URL, sourceName)
		if err != nil {
			slog.Warn("Feed fetch failed", "source", sourceName, "url", endpoint.URL, "error", err)
			continue
		}

		var kept []feed.Entry
		var published []time.Time
		for _, entry := range entries {
			publishedAt, ok := feed.ResolvePublished(entry, c.now(), c.datePolicy)
			if !ok {
				slog.Debug("Dropping entry with unparseable date", "source", sourceName, "title", entry.Title)
				continue
			}
			if !window.Contains(publishedAt) {
				continue
			}
			kept = append(kept, entry)
			published = append(published, publishedAt)
		}

		// Scrape entries concurrently; indexed slots keep feed order.
		scraped := make([]scraper.Result, len(kept))
		var wg sync.WaitGroup
		for i := range kept {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				scraped[slot] = c.scraper.Scrape(ctx, kept[slot].Link)
			}(i)
		}
		wg.Wait()

		for i, entry := range kept {
			publishedAt := published[i]
			articles = append(articles, database.Article{
				Title:        entry.Title,
				URL:          entry.Link,
				Source:       sourceName,
				PublishedAt:  &publishedAt,
				Content:      scraped[i].Content,
				ThumbnailURL: scraped[i].ThumbnailURL,
			})
		}
	}

	slog.Info("Source collection finished", "source", sourceName, "articles", len(articles))
	return articles
}

// CollectAndStore collects articles and persists them in fixed-size
// batches. A failing batch marks its articles invalid and the run
// continues with the next batch.
func (c *Collector) CollectAndStore(ctx context.Context, sourceNames []string, window feed.Window) (*Summary, error) {
	articles := c.Collect(ctx, sourceNames, window)

	summary := &Summary{Found: len(articles)}

	var valid []database.Article
	for _, article := range articles {
		if article.Title == "" || article.URL == "" {
			summary.Invalid++
			continue
		}
		valid = append(valid, article)
	}

	for start := 0; start < len(valid); start += c.batchSize {
		end := min(start+c.batchSize, len(valid))
		batch := valid[start:end]

		inserted, skipped, err := c.store.SaveArticles(ctx, batch)
		if err != nil {
			slog.Warn("Batch persistence failed", "batch_size", len(batch), "error", err)
			summary.Invalid += len(batch)
			continue
		}
		summary.Inserted += inserted
		summary.Skipped += skipped
	}

	slog.Info("Collection run finished",
		"found", summary.Found, "inserted", summary.Inserted,
		"skipped", summary.Skipped, "invalid", summary.Invalid)
	return summary, nil
}
