package history

// ChangeKind identifies what a Change describes.
type ChangeKind int

const (
	// ChangeReset means the list was cleared because the search term changed.
	ChangeReset ChangeKind = iota
	// ChangeAppend means Entries were appended starting at Index.
	ChangeAppend
	// ChangeRemove means the entries in Splices were removed.
	ChangeRemove
	// ChangeSelect means the selection flag of the entry at Index changed.
	ChangeSelect
	// ChangeLoading means the loading or exhausted flag changed.
	ChangeLoading
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeAppend:
		return "append"
	case ChangeRemove:
		return "remove"
	case ChangeSelect:
		return "select"
	case ChangeLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Splice records one removal: the entry's index in the list as it was before
// the batch was applied, and the removed entry.
type Splice struct {
	Index   int
	Removed *Entry
}

// Change is delivered to subscribers after the list has been mutated.
type Change struct {
	Kind    ChangeKind
	Index   int
	Entries []*Entry
	// Splices is sorted by ascending Index.
	Splices []Splice
}

// Subscribe registers fn to receive every subsequent Change. The returned
// function unregisters it.
func (l *List) Subscribe(fn func(Change)) func() {
	id := l.nextObserver
	l.nextObserver++
	if l.observers == nil {
		l.observers = make(map[int]func(Change))
	}
	l.observers[id] = fn
	return func() { delete(l.observers, id) }
}

func (l *List) notify(c Change) {
	for i := 0; i < l.nextObserver; i++ {
		if fn, ok := l.observers[i]; ok {
			fn(c)
		}
	}
}
