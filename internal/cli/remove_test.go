package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/histview/internal/storage"
)

func TestRemoveCommand_AllVisitsToURL(t *testing.T) {
	store, _ := testStore(t, testConfig())
	seedVisits(t, store,
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-19T10:00:00Z")},
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-19T09:00:00Z")},
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-17T09:00:00Z")},
		storage.Visit{URL: "https://go.dev/blog/", Title: "Blog", Timestamp: at("2026-10-19T08:00:00Z")},
	)

	cmd := &RemoveCommand{URL: "https://go.dev/doc/", globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, testConfig()))
	})
	assert.Contains(t, output, "Removed 2 entries (3 visits)")

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalVisits)
}

func TestRemoveCommand_SingleEntryAt(t *testing.T) {
	store, _ := testStore(t, testConfig())
	seedVisits(t, store,
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-19T10:00:00Z")},
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-19T09:00:00Z")},
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-17T09:00:00Z")},
	)

	// Any visit inside the folded entry selects the whole entry.
	cmd := &RemoveCommand{URL: "https://go.dev/doc/", At: "2026-10-19T09:00:00Z", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(store, testConfig()))
	})

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))
	assert.Equal(t, float64(1), result["entries"])
	assert.Equal(t, float64(2), result["visits"])

	res, err := store.QueryPage(context.Background(), storage.PageQuery{})
	require.NoError(t, err)
	require.Len(t, res.Visits, 1)
	assert.True(t, at("2026-10-17T09:00:00Z").Equal(res.Visits[0].Timestamp))
}

func TestRemoveCommand_NoMatch(t *testing.T) {
	store, _ := testStore(t, testConfig())
	seedVisits(t, store,
		storage.Visit{URL: "https://go.dev/doc/", Title: "Docs", Timestamp: at("2026-10-19T10:00:00Z")},
	)

	cmd := &RemoveCommand{URL: "https://go.dev/", globals: &GlobalFlags{}}
	err := cmd.executeWithStore(store, testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history entries found")
}

func TestRemoveCommand_InvalidAt(t *testing.T) {
	store, _ := testStore(t, testConfig())

	cmd := &RemoveCommand{URL: "https://go.dev/", At: "noon", globals: &GlobalFlags{}}
	assert.Error(t, cmd.executeWithStore(store, testConfig()))
}
