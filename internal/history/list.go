// Package history keeps the ordered, paginated list of history entries shown
// to the user and answers the layout questions a renderer asks about it.
//
// A List is driven from a single goroutine: page completions, deletions and
// scroll notifications are applied one at a time. It is not safe for
// concurrent use.
package history

import (
	"slices"
	"time"
)

// BrowsingGap is the default pause between two visits on the same day after
// which a time-gap separator is drawn.
const BrowsingGap = 15 * time.Minute

// List holds the entries of the current view in reverse chronological order,
// partitioned into runs sharing a DateRelativeDay (cards).
type List struct {
	entries    []*Entry
	searchTerm string
	// lastVisitedTime and lastVisitedURL identify the oldest loaded entry;
	// the next page is requested from there.
	lastVisitedTime time.Time
	lastVisitedURL  string

	loading   bool
	exhausted bool

	gap time.Duration

	observers    map[int]func(Change)
	nextObserver int
}

// Option configures a List.
type Option func(*List)

// WithBrowsingGap overrides the time-gap separator threshold.
func WithBrowsingGap(d time.Duration) Option {
	return func(l *List) {
		if d > 0 {
			l.gap = d
		}
	}
}

// NewList returns an empty list with no search term.
func NewList(opts ...Option) *List {
	l := &List{gap: BrowsingGap}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Len returns the number of loaded entries.
func (l *List) Len() int { return len(l.entries) }

// At returns the entry at index i, or nil when i is out of range.
func (l *List) At(i int) *Entry {
	if i < 0 || i >= len(l.entries) {
		return nil
	}
	return l.entries[i]
}

// Entries returns the loaded entries. The slice is a copy; the entries are
// the live ones.
func (l *List) Entries() []*Entry {
	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasResults reports whether anything is loaded.
func (l *List) HasResults() bool { return len(l.entries) > 0 }

// SearchTerm returns the term that scoped the current list.
func (l *List) SearchTerm() string { return l.searchTerm }

// LastVisitedTime returns the time of the oldest loaded entry, or the zero
// time when nothing has been loaded for the current term.
func (l *List) LastVisitedTime() time.Time { return l.lastVisitedTime }

// BrowsingGap returns the time-gap separator threshold.
func (l *List) BrowsingGap() time.Duration { return l.gap }

// Merge adds a page of results for searchTerm to the list.
//
// A term different from the current one discards the list and re-enables
// loading before the page is applied. Each page must already be sorted newest
// first and be older than everything merged before it; Merge never reorders.
func (l *List) Merge(page []*Entry, searchTerm string) {
	l.setFlags(false, l.exhausted)

	if l.searchTerm != searchTerm {
		l.entries = nil
		l.searchTerm = searchTerm
		l.lastVisitedTime = time.Time{}
		l.lastVisitedURL = ""
		l.setFlags(l.loading, false)
		l.notify(Change{Kind: ChangeReset})
	}

	if len(page) == 0 {
		return
	}

	added := make([]*Entry, len(page))
	copy(added, page)
	for _, e := range added {
		Annotate(e, searchTerm)
	}

	start := len(l.entries)
	l.entries = append(l.entries, added...)
	last := l.entries[len(l.entries)-1]
	l.lastVisitedTime = last.Time
	l.lastVisitedURL = last.URL

	l.notify(Change{Kind: ChangeAppend, Index: start, Entries: added})
}

// Remove drops the given entries from the list, matching by identity, and
// returns one Splice per removed entry in ascending index order. Entries that
// are not in the list are ignored. Subscribers receive the whole batch as a
// single ChangeRemove.
func (l *List) Remove(removals []*Entry) []Splice {
	if len(removals) == 0 || len(l.entries) == 0 {
		return nil
	}

	deleted := make(map[*Entry]struct{}, len(removals))
	for _, e := range removals {
		deleted[e] = struct{}{}
	}

	var splices []Splice
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if _, ok := deleted[e]; !ok {
			continue
		}
		// Walking backwards keeps i equal to the pre-batch index.
		splices = append(splices, Splice{Index: i, Removed: e})
		l.entries = slices.Delete(l.entries, i, i+1)
	}
	if len(splices) == 0 {
		return nil
	}
	slices.Reverse(splices)

	l.notify(Change{Kind: ChangeRemove, Splices: splices})
	return splices
}
