package feed

import (
	"time"

	"github.com/araddon/dateparse"
)

// UnparsedDatePolicy decides what happens to entries whose publish date
// cannot be resolved from any field.
type UnparsedDatePolicy string

const (
	// PolicyDefaultNow admits the entry with the fetch time as its publish
	// time, so unparseable dates do not silently drop valid entries.
	PolicyDefaultNow UnparsedDatePolicy = "now"
	// PolicyReject drops entries without a resolvable publish date.
	PolicyReject UnparsedDatePolicy = "reject"
)

// Window is the requested [Start, End] collection range. End is inclusive
// of the entire end day.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns a window covering the last n days up to now.
func LastDays(n int, now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -n), End: now}
}

// Contains reports whether t falls inside the window, treating End as the
// whole end day: Start <= t < End+24h.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End.AddDate(0, 0, 1))
}

// ResolvePublished determines an entry's publish time. Resolution order:
// structured parsed timestamp, then the raw published/updated strings via
// a permissive date parser, then the policy default. The second return is
// false only under PolicyReject with no resolvable date.
func ResolvePublished(entry Entry, now time.Time, policy UnparsedDatePolicy) (time.Time, bool) {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed, true
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed, true
	}

	for _, raw := range []string{entry.PublishedRaw, entry.UpdatedRaw} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t, true
		}
	}

	if policy == PolicyReject {
		return time.Time{}, false
	}
	return now, true
}
