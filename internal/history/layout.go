package history

// NeedsTimeGap reports whether a separator belongs between entry i and
// entry i+1.
//
// Search results are grouped by date only. Otherwise a separator marks a
// pause longer than the browsing gap inside one day; day boundaries are
// already drawn as card boundaries.
func (l *List) NeedsTimeGap(i int) bool {
	n := len(l.entries)
	if n == 0 || i < 0 || i >= n-1 {
		return false
	}

	cur, next := l.entries[i], l.entries[i+1]

	if l.searchTerm != "" {
		return cur.DateShort != next.DateShort
	}

	return cur.Time.Sub(next.Time) > l.gap &&
		cur.DateRelativeDay == next.DateRelativeDay
}

// IsCardStart reports whether entry i opens a day card.
func (l *List) IsCardStart(i int) bool {
	n := len(l.entries)
	if n == 0 || i < 0 || i > n-1 {
		return false
	}
	return i == 0 ||
		l.entries[i].DateRelativeDay != l.entries[i-1].DateRelativeDay
}

// IsCardEnd reports whether entry i closes a day card.
func (l *List) IsCardEnd(i int) bool {
	n := len(l.entries)
	if n == 0 || i < 0 || i > n-1 {
		return false
	}
	return i == n-1 ||
		l.entries[i].DateRelativeDay != l.entries[i+1].DateRelativeDay
}
