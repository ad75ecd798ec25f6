package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/histview/internal/browse"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/history"
	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/render"
)

type entryJSON struct {
	URL     string   `json:"url"`
	Title   string   `json:"title"`
	Domain  string   `json:"domain"`
	Snippet string   `json:"snippet,omitempty"`
	Day     string   `json:"day,omitempty"`
	Date    string   `json:"date"`
	Time    string   `json:"time"`
	Visits  []string `json:"visits"`
}

type listJSON struct {
	SearchTerm string      `json:"search_term"`
	Entries    []entryJSON `json:"entries"`
	More       bool        `json:"more"`
}

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	e, err := openEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithStore(e.store, e.cfg)
}

// executeWithStore runs list against a provided store (for testing).
func (c *ListCommand) executeWithStore(store browse.Querier, cfg *config.Config) error {
	if c.Pages < 0 {
		return fmt.Errorf("--pages must not be negative")
	}

	s, err := newSession(store, cfg)
	if err != nil {
		return err
	}
	if err := loadPages(context.Background(), s, c.Search, c.Pages); err != nil {
		return err
	}

	l := s.List()
	more := l.CanLoadMore()
	logging.Named("cli").WithFields(logrus.Fields{
		"entries": l.Len(),
		"more":    more,
	}).Debug("list loaded")

	if c.globals != nil && c.globals.JSON {
		return printJSON(listToJSON(l, more))
	}

	r := render.New(l, c.Width)
	defer r.Close()
	fmt.Print(r.Render())
	if more {
		fmt.Println("More history available; use --pages to load more.")
	}
	return nil
}

// loadPages runs term and loads up to pages pages. Zero loads until the
// list is exhausted.
func loadPages(ctx context.Context, s *browse.Session, term string, pages int) error {
	if err := s.Search(ctx, term); err != nil {
		return err
	}
	for n := 1; pages == 0 || n < pages; n++ {
		loaded, err := s.LoadMore(ctx)
		if err != nil {
			return err
		}
		if !loaded {
			break
		}
	}
	return nil
}

func listToJSON(l *history.List, more bool) listJSON {
	out := listJSON{
		SearchTerm: l.SearchTerm(),
		Entries:    make([]entryJSON, 0, l.Len()),
		More:       more,
	}
	for _, e := range l.Entries() {
		ts := e.Timestamps()
		visits := make([]string, len(ts))
		for i, t := range ts {
			visits[i] = t.UTC().Format(time.RFC3339)
		}
		out.Entries = append(out.Entries, entryJSON{
			URL:     e.URL,
			Title:   e.Title,
			Domain:  e.Domain,
			Snippet: e.Snippet,
			Day:     e.DateRelativeDay,
			Date:    e.DateShort,
			Time:    e.ReadableTimestamp,
			Visits:  visits,
		})
	}
	return out
}
