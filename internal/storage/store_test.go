package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noon = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// openTestStore creates a migrated in-memory Store that folds days in UTC.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db := openTestDB(t)

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background()))

	store, err := NewSQLiteStore(db, WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func addVisit(t *testing.T, store *SQLiteStore, url, title string, ts time.Time) *Visit {
	t.Helper()
	v := &Visit{URL: url, Title: title, Timestamp: ts}
	require.NoError(t, store.AddVisit(context.Background(), v))
	return v
}

func urls(visits []Visit) []string {
	out := make([]string, len(visits))
	for i, v := range visits {
		out[i] = v.URL
	}
	return out
}

// --- AddVisit ---

func TestAddVisit_PopulatesDerivedFields(t *testing.T) {
	store := openTestStore(t)

	v := addVisit(t, store, "https://Go.dev/doc", "Documentation", noon)

	assert.True(t, strings.HasPrefix(v.ID, "VIS-"), "ID %q should have VIS- prefix", v.ID)
	assert.Len(t, v.ID, len("VIS-")+8)
	assert.Equal(t, "go.dev", v.Domain)
	assert.Equal(t, "manual", v.Source)

	res, err := store.QueryPage(context.Background(), PageQuery{})
	require.NoError(t, err)
	require.Len(t, res.Visits, 1)
	got := res.Visits[0]
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, "Documentation", got.Title)
	assert.True(t, noon.Equal(got.Timestamp))
}

func TestAddVisit_GeneratesUniqueIDs(t *testing.T) {
	store := openTestStore(t)

	v1 := addVisit(t, store, "https://a.com", "A", noon)
	v2 := addVisit(t, store, "https://b.com", "B", noon)

	assert.NotEqual(t, v1.ID, v2.ID)
}

func TestAddVisit_DefaultsTimestamp(t *testing.T) {
	store := openTestStore(t)

	v := &Visit{URL: "https://a.com", Title: "A"}
	require.NoError(t, store.AddVisit(context.Background(), v))
	assert.False(t, v.Timestamp.IsZero())
}

// --- Exclusions ---

func TestAddVisit_RejectsRegexExcludedDomains(t *testing.T) {
	store := openTestStore(t)

	v := &Visit{URL: "https://site.xxx/page", Title: "Excluded by regex"}
	err := store.AddVisit(context.Background(), v)

	assert.True(t, errors.Is(err, ErrExcluded))
	assert.Empty(t, v.ID)
}

func TestAddExclusions_DomainAndSubdomains(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddExclusions(ctx, []ExclusionRule{
		{Type: RuleDomain, Value: "chase.com", Reason: "Banking"},
	}))

	assert.True(t, store.IsExcluded("chase.com"))
	assert.True(t, store.IsExcluded("secure.Chase.com"))
	assert.False(t, store.IsExcluded("notchase.com"))

	err := store.AddVisit(ctx, &Visit{URL: "https://secure.chase.com/login"})
	assert.ErrorIs(t, err, ErrExcluded)
}

func TestAddExclusions_Idempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rules := []ExclusionRule{{Type: RuleDomain, Value: "bank.example"}}
	require.NoError(t, store.AddExclusions(ctx, rules))
	require.NoError(t, store.AddExclusions(ctx, rules))

	var count int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM exclusions WHERE rule_value = 'bank.example'",
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAddExclusions_RejectsUnknownType(t *testing.T) {
	store := openTestStore(t)

	err := store.AddExclusions(context.Background(), []ExclusionRule{{Type: "path", Value: "/x"}})
	assert.Error(t, err)
}

func TestAddVisits_SkipsExcluded(t *testing.T) {
	store := openTestStore(t)

	visits := []*Visit{
		{URL: "https://a.com", Timestamp: noon},
		{URL: "https://b.xxx", Timestamp: noon},
		{URL: "https://c.com", Timestamp: noon.Add(-time.Minute)},
	}
	n, err := store.AddVisits(context.Background(), visits)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.NotEmpty(t, visits[0].ID)
	assert.Empty(t, visits[1].ID)
	assert.NotEmpty(t, visits[2].ID)
}

// --- QueryPage ---

func TestQueryPage_NewestFirstWithCursor(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i, u := range []string{"a", "b", "c", "d", "e"} {
		addVisit(t, store, "https://"+u+".com", strings.ToUpper(u), noon.Add(-time.Duration(i)*time.Minute))
	}

	page1, err := store.QueryPage(ctx, PageQuery{MaxCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, urls(page1.Visits))
	assert.False(t, page1.Finished)

	page2, err := store.QueryPage(ctx, PageQuery{EndTime: page1.Visits[1].Timestamp, MaxCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://c.com", "https://d.com"}, urls(page2.Visits))
	assert.False(t, page2.Finished)

	page3, err := store.QueryPage(ctx, PageQuery{EndTime: page2.Visits[1].Timestamp, MaxCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://e.com"}, urls(page3.Visits))
	assert.True(t, page3.Finished)
}

func TestQueryPage_FinishedOnExactBoundary(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addVisit(t, store, "https://a.com", "A", noon)
	addVisit(t, store, "https://b.com", "B", noon.Add(-time.Minute))

	res, err := store.QueryPage(ctx, PageQuery{MaxCount: 2})
	require.NoError(t, err)
	assert.Len(t, res.Visits, 2)
	assert.True(t, res.Finished)
}

func TestQueryPage_CursorBreaksTimestampTies(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"a", "b", "c"} {
		addVisit(t, store, "https://"+u+".com", strings.ToUpper(u), noon)
	}

	page1, err := store.QueryPage(ctx, PageQuery{MaxCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://c.com", "https://b.com"}, urls(page1.Visits))
	assert.False(t, page1.Finished)

	last := page1.Visits[1]
	page2, err := store.QueryPage(ctx, PageQuery{EndTime: last.Timestamp, EndURL: last.URL, MaxCount: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.com"}, urls(page2.Visits))
	assert.True(t, page2.Finished)

	// Without a URL the cursor skips every result at EndTime.
	page2, err = store.QueryPage(ctx, PageQuery{EndTime: last.Timestamp, MaxCount: 2})
	require.NoError(t, err)
	assert.Empty(t, page2.Visits)
}

func TestQueryPage_EmptyDB(t *testing.T) {
	store := openTestStore(t)

	res, err := store.QueryPage(context.Background(), PageQuery{MaxCount: 10})
	require.NoError(t, err)
	assert.NotNil(t, res.Visits)
	assert.Empty(t, res.Visits)
	assert.True(t, res.Finished)
}

func TestQueryPage_FoldsSameDayDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addVisit(t, store, "https://a.com", "A old title", noon.Add(-4*time.Hour))
	addVisit(t, store, "https://b.com", "B", noon.Add(-time.Hour))
	addVisit(t, store, "https://a.com", "A", noon)
	addVisit(t, store, "https://a.com", "A yesterday", noon.Add(-20*time.Hour))

	res, err := store.QueryPage(ctx, PageQuery{})
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.com", "https://b.com", "https://a.com"}, urls(res.Visits))

	today := res.Visits[0]
	assert.Equal(t, "A", today.Title, "title comes from the newest visit")
	assert.True(t, noon.Equal(today.Timestamp))
	require.Len(t, today.AllTimestamps, 2)
	assert.True(t, noon.Equal(today.AllTimestamps[0]))
	assert.True(t, noon.Add(-4*time.Hour).Equal(today.AllTimestamps[1]))

	yesterday := res.Visits[2]
	assert.Equal(t, "A yesterday", yesterday.Title)
	assert.Len(t, yesterday.AllTimestamps, 1)
}

func TestQueryPage_FoldedGroupDoesNotStraddlePages(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addVisit(t, store, "https://a.com", "A", noon)
	addVisit(t, store, "https://b.com", "B", noon.Add(-time.Hour))
	addVisit(t, store, "https://a.com", "A", noon.Add(-2*time.Hour))

	page1, err := store.QueryPage(ctx, PageQuery{MaxCount: 1})
	require.NoError(t, err)
	require.Len(t, page1.Visits, 1)
	assert.Len(t, page1.Visits[0].AllTimestamps, 2)

	page2, err := store.QueryPage(ctx, PageQuery{EndTime: page1.Visits[0].Timestamp, MaxCount: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.com"}, urls(page2.Visits))
	assert.True(t, page2.Finished, "the older a.com visit was already folded into page 1")
}

func TestQueryPage_FullTextTerm(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addVisit(t, store, "https://go.dev/doc", "Golang Programming Language", noon)
	addVisit(t, store, "https://rust-lang.org", "Rust Programming Language", noon.Add(-time.Minute))
	addVisit(t, store, "https://python.org", "Python", noon.Add(-2*time.Minute))

	res, err := store.QueryPage(ctx, PageQuery{Term: "programming"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://go.dev/doc", "https://rust-lang.org"}, urls(res.Visits))
	assert.Equal(t, "programming", res.Term)

	res, err = store.QueryPage(ctx, PageQuery{Term: "gol prog"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://go.dev/doc"}, urls(res.Visits), "every word must match as a prefix")
}

func TestQueryPage_PunctuationOnlyTerm(t *testing.T) {
	store := openTestStore(t)
	addVisit(t, store, "https://a.com", "A", noon)

	res, err := store.QueryPage(context.Background(), PageQuery{Term: `"" *`})
	require.NoError(t, err)
	assert.Empty(t, res.Visits)
	assert.True(t, res.Finished)
}

// --- DeleteVisits ---

func TestDeleteVisits_RemovesEveryTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	addVisit(t, store, "https://a.com", "A", noon)
	addVisit(t, store, "https://a.com", "A", noon.Add(-time.Hour))
	addVisit(t, store, "https://b.com", "B", noon.Add(-2*time.Hour))

	n, err := store.DeleteVisits(ctx, []VisitKey{{
		URL:        "https://a.com",
		Timestamps: []time.Time{noon, noon.Add(-time.Hour)},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	res, err := store.QueryPage(ctx, PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.com"}, urls(res.Visits))

	// The FTS rows go with the visits.
	res, err = store.QueryPage(ctx, PageQuery{Term: "A"})
	require.NoError(t, err)
	assert.Empty(t, res.Visits)
}

func TestDeleteVisits_Missing(t *testing.T) {
	store := openTestStore(t)

	n, err := store.DeleteVisits(context.Background(), []VisitKey{{URL: "https://nope.com", Timestamps: []time.Time{noon}}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDeleteAll_KeepsExclusions(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddExclusions(ctx, []ExclusionRule{{Type: RuleDomain, Value: "bank.com"}}))
	addVisit(t, store, "https://a.com", "Alpha", noon)
	addVisit(t, store, "https://b.com", "Beta", noon.Add(-time.Hour))

	n, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	res, err := store.QueryPage(ctx, PageQuery{Term: "alpha"})
	require.NoError(t, err)
	assert.Empty(t, res.Visits)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalVisits)
	assert.True(t, store.IsExcluded("bank.com"))
}

// --- GetStats ---

func TestGetStats_EmptyDB(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalVisits)
	assert.True(t, stats.OldestVisit.IsZero())
	assert.Empty(t, stats.TopDomains)
}

func TestGetStats_WithData(t *testing.T) {
	store := openTestStore(t)

	addVisit(t, store, "https://a.com", "A", noon)
	addVisit(t, store, "https://b.com", "B", noon.Add(-time.Hour))
	addVisit(t, store, "https://a.com/page2", "A2", noon.Add(-2*time.Hour))

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalVisits)
	assert.True(t, noon.Add(-2*time.Hour).Equal(stats.OldestVisit))
	assert.True(t, noon.Equal(stats.NewestVisit))
	require.NotEmpty(t, stats.TopDomains)
	assert.Equal(t, DomainCount{Domain: "a.com", Count: 2}, stats.TopDomains[0])
}

// --- Close ---

func TestClose(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Close())
}
