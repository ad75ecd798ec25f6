package history

// SetSelected sets the selection flag of entry i. Out-of-range indices and
// no-op updates are ignored.
func (l *List) SetSelected(i int, selected bool) {
	e := l.At(i)
	if e == nil || e.Selected == selected {
		return
	}
	e.Selected = selected
	l.notify(Change{Kind: ChangeSelect, Index: i, Entries: []*Entry{e}})
}

// Selected returns the selected entries in list order.
func (l *List) Selected() []*Entry {
	var out []*Entry
	for _, e := range l.entries {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}

// SelectedCount returns the number of selected entries.
func (l *List) SelectedCount() int {
	n := 0
	for _, e := range l.entries {
		if e.Selected {
			n++
		}
	}
	return n
}

// UnselectAll clears every selection flag.
func (l *List) UnselectAll() {
	remaining := l.SelectedCount()
	for i := 0; i < len(l.entries) && remaining > 0; i++ {
		if l.entries[i].Selected {
			l.SetSelected(i, false)
			remaining--
		}
	}
}
