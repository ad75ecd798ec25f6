package storage

import "time"

// Visit is a single browsing visit recorded by histview.
type Visit struct {
	ID        string
	URL       string
	Title     string
	Domain    string
	Snippet   string
	Timestamp time.Time
	Source    string // "manual", "import"

	// AllTimestamps is populated by QueryPage: every visit to URL on the same
	// local day, newest first. Timestamp is the newest of them.
	AllTimestamps []time.Time
}

// VisitKey addresses the visits to delete: every visit to URL at one of
// Timestamps.
type VisitKey struct {
	URL        string
	Timestamps []time.Time
}

// PageQuery selects one page of history.
type PageQuery struct {
	// Term restricts results to a full-text match when non-empty.
	Term string
	// EndTime excludes results newer than it. The zero time means no bound.
	EndTime time.Time
	// EndURL is the URL of the last result already seen at EndTime. Results
	// at EndTime are returned only when their URL sorts before it; an empty
	// EndURL excludes every result at EndTime.
	EndURL string
	// MaxCount caps the number of results. Zero means no cap.
	MaxCount int
}

// PageResult is one page of history, newest first, with same-day duplicate
// visits of a URL folded together.
type PageResult struct {
	Term   string
	Visits []Visit
	// Finished is true when no older results remain for Term.
	Finished bool
}

// Stats holds aggregate statistics about the histview database.
type Stats struct {
	TotalVisits int64
	OldestVisit time.Time
	NewestVisit time.Time
	TopDomains  []DomainCount
}

// DomainCount pairs a domain with its visit count.
type DomainCount struct {
	Domain string
	Count  int64
}
