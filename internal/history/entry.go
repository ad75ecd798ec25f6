package history

import (
	"strconv"
	"time"
)

// Entry is one row of the history list. Entries are vended by pointer and
// matched by pointer identity on removal, so callers must hand back the same
// *Entry they received rather than a copy.
type Entry struct {
	URL     string
	Title   string
	Domain  string
	Snippet string

	// Time is the most recent visit folded into this entry.
	Time time.Time
	// AllTimestamps holds every visit time folded into this entry, newest first.
	AllTimestamps []time.Time

	// DateRelativeDay is the display-day bucket ("Today - Monday, October 19, 2026").
	// Entries produced for a search leave it empty.
	DateRelativeDay string
	DateShort       string
	DateTimeOfDay   string

	// View-local fields, reset by Annotate.
	Selected          bool
	ReadableTimestamp string
}

// Key returns the url+timestamp composite that addresses the entry's most
// recent visit in the backing store.
func (e *Entry) Key() string {
	return e.URL + "@" + strconv.FormatInt(e.Time.UnixMilli(), 10)
}

// Timestamps returns every visit time of the entry. An entry without folded
// visits reports its own Time.
func (e *Entry) Timestamps() []time.Time {
	if len(e.AllTimestamps) == 0 {
		return []time.Time{e.Time}
	}
	out := make([]time.Time, len(e.AllTimestamps))
	copy(out, e.AllTimestamps)
	return out
}

// Annotate initialises the view-local fields of a freshly ingested entry.
// Search results may span many days, so they show the short date instead of
// the time of day.
func Annotate(e *Entry, searchTerm string) {
	e.Selected = false
	if searchTerm == "" {
		e.ReadableTimestamp = e.DateTimeOfDay
	} else {
		e.ReadableTimestamp = e.DateShort
	}
}
