package history

import "time"

// PageRequest describes the next page the query layer should fetch.
type PageRequest struct {
	SearchTerm string
	// EndTime is the merge cursor: only visits strictly older than it belong
	// to the next page. The zero time means "from now".
	EndTime time.Time
	// EndURL breaks ties at EndTime: results at exactly EndTime follow the
	// cursor only when their URL sorts before it.
	EndURL string
	// MaxCount is a hint; zero means no limit.
	MaxCount int
}

// Loading reports whether a page request is outstanding.
func (l *List) Loading() bool { return l.loading }

// Exhausted reports whether loading was disabled for the current term.
func (l *List) Exhausted() bool { return l.exhausted }

// CanLoadMore reports whether another page may be requested.
func (l *List) CanLoadMore() bool {
	return !l.loading && !l.exhausted
}

// BeginLoad marks a page request as outstanding.
func (l *List) BeginLoad() {
	l.setFlags(true, l.exhausted)
}

// EndLoad clears the outstanding request. A resultCount of zero does not
// disable loading by itself: an empty first page of a new search is not the
// same as running out of history, so the caller decides via DisableLoading.
func (l *List) EndLoad(resultCount int) {
	l.setFlags(false, l.exhausted)
}

// DisableLoading marks the current term as exhausted. It is lifted by the
// next Merge with a different term.
func (l *List) DisableLoading() {
	l.setFlags(l.loading, true)
}

// NextPageRequest returns the request for the page following the loaded
// entries and marks it outstanding. It returns false, and changes nothing,
// when CanLoadMore is false.
func (l *List) NextPageRequest(maxCount int) (PageRequest, bool) {
	if !l.CanLoadMore() {
		return PageRequest{}, false
	}
	l.BeginLoad()
	return PageRequest{
		SearchTerm: l.searchTerm,
		EndTime:    l.lastVisitedTime,
		EndURL:     l.lastVisitedURL,
		MaxCount:   maxCount,
	}, true
}

func (l *List) setFlags(loading, exhausted bool) {
	if l.loading == loading && l.exhausted == exhausted {
		return
	}
	l.loading = loading
	l.exhausted = exhausted
	l.notify(Change{Kind: ChangeLoading})
}
