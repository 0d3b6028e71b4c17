package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsdigest/app/retry"
)

const (
	connectTimeout = 5 * time.Second
	overallTimeout = 15 * time.Second

	maxContentLength  = 5000
	truncationMarker  = "..."
	strippedElements  = "script, style, nav, header, footer"
	containerElements = "div, section"
)

var contentPattern = regexp.MustCompile(`(?i)(content|article|main|post)`)

// Result is the outcome of scraping one article URL. Both fields are
// empty when every attempt failed.
type Result struct {
	Content      string
	ThumbnailURL string
}

// Scraper fetches article pages and extracts best-effort body text and a
// thumbnail image URL.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
	attempts   int
	delay      time.Duration
}

func NewScraper(userAgent string) *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: overallTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		userAgent: userAgent,
		attempts:  retry.DefaultAttempts,
		delay:     retry.DefaultDelay,
	}
}

// NewScraperWithClient is used by tests to control transport and timing.
func NewScraperWithClient(httpClient *http.Client, userAgent string, attempts int, delay time.Duration) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		userAgent:  userAgent,
		attempts:   attempts,
		delay:      delay,
	}
}

// Scrape fetches the page and extracts content and thumbnail. Fetch and
// parse failures are retried with a fixed delay; after exhaustion an empty
// Result is returned so a single bad page never aborts a collection run.
func (s *Scraper) Scrape(ctx context.Context, url string) Result {
	if url == "" {
		return Result{}
	}

	var doc *goquery.Document
	err := retry.Do(ctx, s.attempts, s.delay, func() error {
		var fetchErr error
		doc, fetchErr = s.fetchDocument(ctx, url)
		return fetchErr
	})
	if err != nil {
		slog.Warn("Scraping failed, returning empty result", "url", url, "error", err)
		return Result{}
	}

	return Result{
		Content:      extractContent(doc),
		ThumbnailURL: extractThumbnail(doc),
	}
}

func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// extractContent pulls visible article text from the document. Candidate
// containers are tried in priority order; the first match wins, and the
// whole document text is the last resort.
func extractContent(doc *goquery.Document) string {
	doc.Find(strippedElements).Remove()

	text := ""
	if sel := doc.Find("article").First(); sel.Length() > 0 {
		text = sel.Text()
	} else if sel := findByAttr(doc, "class"); sel != nil {
		text = sel.Text()
	} else if sel := findByAttr(doc, "id"); sel != nil {
		text = sel.Text()
	} else if sel := doc.Find("main").First(); sel.Length() > 0 {
		text = sel.Text()
	}

	if text == "" {
		text = doc.Text()
	}

	return truncate(collapseWhitespace(text))
}

// findByAttr locates the first container whose class or id looks like an
// article content wrapper.
func findByAttr(doc *goquery.Document, attr string) *goquery.Selection {
	match := doc.Find(containerElements).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		value, ok := sel.Attr(attr)
		return ok && contentPattern.MatchString(value)
	}).First()

	if match.Length() == 0 {
		return nil
	}
	return match
}

// extractThumbnail resolves a thumbnail URL: Open Graph image, then
// Twitter card image, then the first absolute <img> source.
func extractThumbnail(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}

	if content, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}

	thumbnail := ""
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if strings.HasPrefix(src, "http") {
			thumbnail = src
			return false
		}
		return true
	})

	return thumbnail
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncate limits content length in characters, not bytes, so multi-byte
// text is never split mid-rune.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxContentLength {
		return text
	}
	return string(runes[:maxContentLength]) + truncationMarker
}
