package feed

import (
	"time"
)

// Entry is the transient, pre-persistence form of one raw feed item.
// It exists only within a single collection run.
type Entry struct {
	Title       string
	Link        string
	Source      string
	Description string

	// Structured timestamps when the feed parser could resolve them.
	PublishedParsed *time.Time
	UpdatedParsed   *time.Time

	// Raw date strings kept for the permissive fallback parser.
	PublishedRaw string
	UpdatedRaw   string
}
