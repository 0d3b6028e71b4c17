package database

import (
	"time"
)

// Article is a persisted news item. The triple (Title, URL, Source) is the
// deduplication key; the articles table enforces it with a unique constraint.
type Article struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Source       string     `json:"source"`
	PublishedAt  *time.Time `json:"published_at"`
	Summary      string     `json:"summary"`       // empty until enriched
	Labels       []string   `json:"labels"`        // empty until enriched
	Categories   []string   `json:"categories"`    // empty until mapped onto the taxonomy
	ThumbnailURL string     `json:"thumbnail_url"`
	Content      string     `json:"content"` // may be empty if scraping failed
	CreatedAt    time.Time  `json:"created_at"`
}

// Topic is a curated digest assembled from a set of articles. Topics are
// immutable once created; regeneration produces a new Topic.
type Topic struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishDate time.Time `json:"publish_date"`
	Template    string    `json:"template"`
	Categories  []string  `json:"categories"`
	ArticleIDs  []string  `json:"article_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
