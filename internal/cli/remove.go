package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/histview/internal/browse"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/history"
)

// Execute implements the go-flags Commander interface for RemoveCommand.
func (c *RemoveCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for remove command")
	}

	e, err := openEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithStore(e.store, e.cfg)
}

// executeWithStore finds the entries for the URL through a session and
// removes them the same way a selection is deleted from the list.
func (c *RemoveCommand) executeWithStore(store browse.Querier, cfg *config.Config) error {
	var at time.Time
	if c.At != "" {
		t, err := parseTime(c.At)
		if err != nil {
			return err
		}
		at = t
	}

	term := c.Search
	if term == "" {
		term = c.URL
	}

	s, err := newSession(store, cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := loadPages(ctx, s, term, 0); err != nil {
		return err
	}

	l := s.List()
	for i := 0; i < l.Len(); i++ {
		if matchesRemoval(l.At(i), c.URL, at) {
			l.SetSelected(i, true)
		}
	}
	selected := l.SelectedCount()
	if selected == 0 {
		return fmt.Errorf("no history entries found for %s", c.URL)
	}

	n, err := s.DeleteSelected(ctx)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"url":     c.URL,
			"entries": selected,
			"visits":  n,
		})
	}

	fmt.Printf("Removed %d entries (%s visits) for %s\n", selected, formatNumber(n), c.URL)
	return nil
}

// matchesRemoval reports whether e is an entry for url. A non-zero at also
// requires one of the entry's visits to be at that instant.
func matchesRemoval(e *history.Entry, url string, at time.Time) bool {
	if e.URL != url {
		return false
	}
	if at.IsZero() {
		return true
	}
	for _, t := range e.Timestamps() {
		if t.UnixMilli() == at.UnixMilli() {
			return true
		}
	}
	return false
}
