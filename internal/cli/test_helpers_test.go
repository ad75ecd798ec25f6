package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testConfig returns defaults with days folded in UTC.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.History.Timezone = "UTC"
	return cfg
}

// testStore opens a migrated in-memory store with the default denylist
// installed, the same way the commands open theirs.
func testStore(t *testing.T, cfg *config.Config) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	store, db, err := openStore(context.Background(), ":memory:", cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, db
}

// tempEnvArgs writes a config file into a temp dir and returns the global
// flags that point RunWithArgs at it and at a temp database.
func tempEnvArgs(t *testing.T, configYAML string) []string {
	t.Helper()
	t.Cleanup(func() { logging.SetRoot(nil) })

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0644))

	return []string{"--config", cfgPath, "--db", filepath.Join(dir, "history.db")}
}
