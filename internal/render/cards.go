// Package render draws a history.List as day cards for a terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/runnerr0/histview/internal/history"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

const (
	markerWidth = 4 // "[x] "
	timeWidth   = 12
	minTitle    = 8
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	timeStyle    = lipgloss.NewStyle().Faint(true)
	domainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7A85"))
	selectStyle  = lipgloss.NewStyle().Bold(true)
	gapStyle     = lipgloss.NewStyle().Faint(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3C3A42"))
	messageStyle = lipgloss.NewStyle().Italic(true).Faint(true)
)

// NoResultsMessage returns the text shown for an empty list, or "" while a
// page is still loading.
func NoResultsMessage(searchTerm string, loading bool) string {
	if loading {
		return ""
	}
	if searchTerm != "" {
		return "No search results found."
	}
	return "No history entries found."
}

// Renderer redraws a list only after it has changed.
type Renderer struct {
	list  *history.List
	width int

	dirty       bool
	cached      string
	unsubscribe func()
}

// New subscribes a Renderer to list. Call Close to detach it.
func New(list *history.List, width int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	r := &Renderer{list: list, width: width, dirty: true}
	r.unsubscribe = list.Subscribe(func(history.Change) { r.dirty = true })
	return r
}

// Close stops listening for list changes.
func (r *Renderer) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// Dirty reports whether the list changed since the last Render.
func (r *Renderer) Dirty() bool { return r.dirty }

// Render returns the current frame.
func (r *Renderer) Render() string {
	if r.dirty {
		r.cached = r.draw()
		r.dirty = false
	}
	return r.cached
}

func (r *Renderer) draw() string {
	var b strings.Builder
	l := r.list

	if !l.HasResults() {
		if msg := NoResultsMessage(l.SearchTerm(), l.Loading()); msg != "" {
			b.WriteString(messageStyle.Render(msg))
			b.WriteByte('\n')
		}
	}

	for i := 0; i < l.Len(); i++ {
		e := l.At(i)
		if l.IsCardStart(i) {
			b.WriteString(headerStyle.Render(r.cardTitle(e)))
			b.WriteByte('\n')
		}
		b.WriteString(r.row(e))
		b.WriteByte('\n')
		if l.NeedsTimeGap(i) {
			b.WriteString(gapStyle.Render("    ⋯"))
			b.WriteByte('\n')
		}
		if l.IsCardEnd(i) {
			b.WriteString(footerStyle.Render(strings.Repeat("─", r.width)))
			b.WriteByte('\n')
		}
	}

	if l.Loading() {
		b.WriteString(messageStyle.Render("Loading…"))
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) cardTitle(e *history.Entry) string {
	if e.DateRelativeDay != "" {
		return e.DateRelativeDay
	}
	return fmt.Sprintf("Search results for %q", r.list.SearchTerm())
}

func (r *Renderer) row(e *history.Entry) string {
	marker := "[ ] "
	if e.Selected {
		marker = selectStyle.Render("[x]") + " "
	}

	domainWidth := runewidth.StringWidth(e.Domain)
	titleWidth := r.width - markerWidth - timeWidth - domainWidth - 2
	if titleWidth < minTitle {
		titleWidth = minTitle
	}
	title := runewidth.FillRight(runewidth.Truncate(e.Title, titleWidth, "…"), titleWidth)

	return marker +
		timeStyle.Render(runewidth.FillRight(e.ReadableTimestamp, timeWidth)) +
		title + "  " +
		domainStyle.Render(e.Domain)
}
