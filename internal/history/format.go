package history

import (
	"net/url"
	"sort"
	"time"
)

// Display layouts for the date strings carried by an Entry.
const (
	FriendlyDateLayout = "Monday, January 2, 2006"
	ShortDateLayout    = "Jan 2, 2006"
	TimeOfDayLayout    = "3:04 PM"
)

// Record is a visit as handed over by the query layer, before any display
// fields have been computed.
type Record struct {
	URL           string
	Title         string
	Snippet       string
	Time          time.Time
	AllTimestamps []time.Time
}

// Formatter turns records into entries relative to a clock and a location.
type Formatter struct {
	Location *time.Location
	Now      func() time.Time
}

// NewFormatter returns a Formatter for loc using the wall clock. A nil loc
// means time.Local.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{Location: loc, Now: time.Now}
}

// Entry builds the display entry for r. Results of a search carry the
// snippet and only the short date; browse results get the relative day and
// the time of day instead.
func (f *Formatter) Entry(r Record, isSearchResult bool) *Entry {
	t := r.Time.In(f.Location)

	e := &Entry{
		URL:       r.URL,
		Title:     r.Title,
		Domain:    domainOf(r.URL),
		Time:      r.Time,
		DateShort: t.Format(ShortDateLayout),
	}
	if e.Title == "" {
		e.Title = r.URL
	}

	if len(r.AllTimestamps) > 0 {
		e.AllTimestamps = make([]time.Time, len(r.AllTimestamps))
		copy(e.AllTimestamps, r.AllTimestamps)
		sort.Slice(e.AllTimestamps, func(i, j int) bool {
			return e.AllTimestamps[i].After(e.AllTimestamps[j])
		})
	} else {
		e.AllTimestamps = []time.Time{r.Time}
	}

	if isSearchResult {
		e.Snippet = r.Snippet
	} else {
		e.DateRelativeDay = f.RelativeDay(r.Time)
		e.DateTimeOfDay = t.Format(TimeOfDayLayout)
	}
	return e
}

// RelativeDay returns "Today - <date>" or "Yesterday - <date>" for the two
// most recent days and the friendly date alone for anything older.
func (f *Formatter) RelativeDay(ts time.Time) string {
	t := ts.In(f.Location)
	friendly := t.Format(FriendlyDateLayout)

	midnight := localMidnight(f.Now().In(f.Location))
	switch {
	case !t.Before(midnight):
		return "Today - " + friendly
	case !t.Before(midnight.AddDate(0, 0, -1)):
		return "Yesterday - " + friendly
	default:
		return friendly
	}
}

func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// domainOf returns the host of rawURL, or "<scheme>:" for URLs without one
// (file: and friends).
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if host := u.Hostname(); host != "" {
		return host
	}
	if u.Scheme != "" {
		return u.Scheme + ":"
	}
	return ""
}
