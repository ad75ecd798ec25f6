// Package browse drives a history.List from a visit store: it issues page
// queries, converts results into list entries and keeps the list in step
// with deletions.
package browse

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/histview/internal/history"
	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/storage"
)

// ErrStalePage is returned by Deliver for a page whose term is not the term
// of the most recent request.
var ErrStalePage = errors.New("stale page")

// DefaultPageSize matches the number of results requested per page when no
// size is configured.
const DefaultPageSize = 150

// Querier is the subset of the visit store a Session needs.
type Querier interface {
	QueryPage(ctx context.Context, q storage.PageQuery) (*storage.PageResult, error)
	DeleteVisits(ctx context.Context, keys []storage.VisitKey) (int64, error)
}

// Session pairs one list with one store. Like the list it owns, a Session is
// meant to be used from a single goroutine.
type Session struct {
	list     *history.List
	store    Querier
	format   *history.Formatter
	pageSize int
	log      *logrus.Entry

	pendingTerm string
}

type Option func(*Session)

func WithPageSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithFormatter(f *history.Formatter) Option {
	return func(s *Session) {
		if f != nil {
			s.format = f
		}
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession returns a Session that fills list from store.
func NewSession(list *history.List, store Querier, opts ...Option) *Session {
	s := &Session{
		list:     list,
		store:    store,
		format:   history.NewFormatter(nil),
		pageSize: DefaultPageSize,
		log:      logging.Named("browse"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the list the session fills.
func (s *Session) List() *history.List { return s.list }

// Search loads the first page for term. Searching for the term the list
// already shows is a no-op once it has results; use LoadMore to continue.
func (s *Session) Search(ctx context.Context, term string) error {
	if term == s.list.SearchTerm() && s.list.HasResults() {
		return nil
	}
	s.pendingTerm = term
	s.list.BeginLoad()
	return s.fetch(ctx, storage.PageQuery{Term: term, MaxCount: s.pageSize})
}

// LoadMore requests the page after the loaded entries. It reports false
// without touching the store when the list is loading or exhausted.
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	req, ok := s.list.NextPageRequest(s.pageSize)
	if !ok {
		return false, nil
	}
	s.pendingTerm = req.SearchTerm
	err := s.fetch(ctx, storage.PageQuery{
		Term:     req.SearchTerm,
		EndTime:  req.EndTime,
		EndURL:   req.EndURL,
		MaxCount: req.MaxCount,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) fetch(ctx context.Context, q storage.PageQuery) error {
	res, err := s.store.QueryPage(ctx, q)
	if err != nil {
		s.list.EndLoad(0)
		return fmt.Errorf("querying history page: %w", err)
	}
	return s.Deliver(res)
}

// Deliver merges a page into the list. Pages for a term other than the
// most recently requested one are dropped with ErrStalePage. A finished
// page disables further loading for its term.
func (s *Session) Deliver(res *storage.PageResult) error {
	if res.Term != s.pendingTerm {
		s.log.WithFields(logrus.Fields{
			"term":    res.Term,
			"pending": s.pendingTerm,
		}).Debug("dropping stale page")
		return ErrStalePage
	}

	isSearch := res.Term != ""
	page := make([]*history.Entry, 0, len(res.Visits))
	for _, v := range res.Visits {
		page = append(page, s.format.Entry(history.Record{
			URL:           v.URL,
			Title:         v.Title,
			Snippet:       v.Snippet,
			Time:          v.Timestamp,
			AllTimestamps: v.AllTimestamps,
		}, isSearch))
	}

	s.list.Merge(page, res.Term)
	if res.Finished {
		s.list.DisableLoading()
	}

	s.log.WithFields(logrus.Fields{
		"term":     res.Term,
		"count":    len(page),
		"total":    s.list.Len(),
		"finished": res.Finished,
	}).Debug("page merged")
	return nil
}

// Remove deletes every visit folded into entries from the store, then drops
// the entries from the list and clears the selection. The list is left
// untouched when the store fails.
func (s *Session) Remove(ctx context.Context, entries []*history.Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	keys := make([]storage.VisitKey, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, storage.VisitKey{URL: e.URL, Timestamps: e.Timestamps()})
	}

	n, err := s.store.DeleteVisits(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("deleting visits: %w", err)
	}

	splices := s.list.Remove(entries)
	s.list.UnselectAll()

	s.log.WithFields(logrus.Fields{
		"entries": len(splices),
		"visits":  n,
	}).Info("removed history entries")
	return n, nil
}

// DeleteSelected removes every selected entry.
func (s *Session) DeleteSelected(ctx context.Context) (int64, error) {
	return s.Remove(ctx, s.list.Selected())
}

// MoreFromSite replaces the list with a search for e's domain.
func (s *Session) MoreFromSite(ctx context.Context, e *history.Entry) error {
	if e == nil || e.Domain == "" {
		return nil
	}
	return s.Search(ctx, e.Domain)
}
