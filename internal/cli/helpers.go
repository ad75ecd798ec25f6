package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/histview/internal/browse"
	"github.com/runnerr0/histview/internal/config"
	"github.com/runnerr0/histview/internal/history"
	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/storage"
)

// env is everything a subcommand needs once config, logging and the
// database are set up.
type env struct {
	cfg    *config.Config
	store  *storage.SQLiteStore
	db     *sql.DB
	dbPath string
	logs   io.Closer
}

func (e *env) Close() {
	e.store.Close()
	e.db.Close()
	e.logs.Close()
}

// loadConfig reads the file named by --config, or the default config file.
// Either is created with defaults when missing.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	if g != nil && g.Config != "" {
		return config.LoadOrCreateAt(g.Config)
	}
	return config.LoadOrCreate()
}

// openEnv loads config, configures logging and opens the migrated store.
func openEnv(g *GlobalFlags) (*env, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if g.Verbose {
		level = logrus.DebugLevel.String()
	}
	logs, err := logging.Setup(level, cfg.Logging.File, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	dbPath, err := resolveDBPath(g, cfg)
	if err != nil {
		logs.Close()
		return nil, err
	}

	store, db, err := openStore(context.Background(), dbPath, cfg)
	if err != nil {
		logs.Close()
		return nil, err
	}

	logging.Named("cli").WithField("db", dbPath).Debug("opened history database")
	return &env{cfg: cfg, store: store, db: db, dbPath: dbPath, logs: logs}, nil
}

// resolveDBPath returns --db when given, else the configured path.
func resolveDBPath(g *GlobalFlags, cfg *config.Config) (string, error) {
	if g != nil && g.DB != "" {
		return g.DB, nil
	}
	return cfg.DBPath()
}

// openStore opens the database at dbPath, runs migrations and installs the
// configured denylist.
func openStore(ctx context.Context, dbPath string, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open(storage.DriverName, dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	store, err := storage.NewSQLiteStore(db, storage.WithLocation(loc))
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	if err := store.AddExclusions(ctx, exclusionRules(cfg)); err != nil {
		store.Close()
		db.Close()
		return nil, nil, fmt.Errorf("install denylist: %w", err)
	}

	return store, db, nil
}

// exclusionRules converts the configured denylist into store rules.
func exclusionRules(cfg *config.Config) []storage.ExclusionRule {
	rules := make([]storage.ExclusionRule, 0, len(cfg.Capture.DenylistDomains)+len(cfg.Capture.DenylistRegex))
	for _, d := range cfg.Capture.DenylistDomains {
		rules = append(rules, storage.ExclusionRule{Type: storage.RuleDomain, Value: d, Reason: "config denylist"})
	}
	for _, re := range cfg.Capture.DenylistRegex {
		rules = append(rules, storage.ExclusionRule{Type: storage.RuleRegex, Value: re, Reason: "config denylist"})
	}
	return rules
}

// newSession builds a list and a session over store using the history
// settings from cfg.
func newSession(store browse.Querier, cfg *config.Config) (*browse.Session, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	list := history.NewList(history.WithBrowsingGap(cfg.History.BrowsingGap))
	return browse.NewSession(list, store,
		browse.WithPageSize(cfg.History.PageSize),
		browse.WithFormatter(history.NewFormatter(loc)),
		browse.WithLogger(logging.Named("browse")),
	), nil
}

// parseTime parses an RFC 3339 timestamp; the empty string means now.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339, e.g. 2026-10-19T15:04:05Z): %w", s, err)
	}
	return t, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
