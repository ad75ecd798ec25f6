package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrExcluded is returned by AddVisit when the visit's domain is blocked by
// an exclusion rule.
var ErrExcluded = errors.New("domain excluded")

// Store defines the interface for histview data operations.
type Store interface {
	AddVisit(ctx context.Context, visit *Visit) error
	AddVisits(ctx context.Context, visits []*Visit) (int, error)
	QueryPage(ctx context.Context, q PageQuery) (*PageResult, error)
	DeleteVisits(ctx context.Context, keys []VisitKey) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	AddExclusions(ctx context.Context, rules []ExclusionRule) error
	IsExcluded(domain string) bool
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// Exclusion rule types.
const (
	RuleDomain = "domain"
	RuleRegex  = "regex"
)

// ExclusionRule blocks visits to a domain (and its subdomains) or to any
// domain matching a regular expression.
type ExclusionRule struct {
	Type   string
	Value  string
	Reason string
}

const insertExclusionSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason, is_default) VALUES (?, ?, ?, ?)`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	loc  *time.Location
	zone string

	// Prepared statements
	insertVisit *sql.Stmt
	insertFTS   *sql.Stmt

	// Cached exclusion rules, reloaded whenever rules are added.
	domainExclusions []string
	regexExclusions  []*regexp.Regexp
}

// StoreOption configures a SQLiteStore.
type StoreOption func(*SQLiteStore)

// WithLocation sets the location whose calendar days are used to fold
// duplicate visits. Defaults to time.Local. Days follow the location's
// offset at each visit, so DST changes are honoured.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *SQLiteStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB, opts ...StoreOption) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	s.zone = registerZone(s.loc)

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.loadExclusions(); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertVisit, err = s.db.Prepare(`
		INSERT INTO visits (id, ts, url, title, domain, snippet, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.insertFTS, err = s.db.Prepare(`
		INSERT INTO visits_fts (visit_id, title, url) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}

	return nil
}

// loadExclusions loads domain and regex exclusion rules from the database.
func (s *SQLiteStore) loadExclusions() error {
	rows, err := s.db.Query("SELECT rule_type, rule_value FROM exclusions")
	if err != nil {
		return err
	}
	defer rows.Close()

	var domains []string
	var regexes []*regexp.Regexp
	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return err
		}
		switch ruleType {
		case RuleDomain:
			domains = append(domains, strings.ToLower(ruleValue))
		case RuleRegex:
			re, err := regexp.Compile(ruleValue)
			if err != nil {
				continue // skip invalid regex
			}
			regexes = append(regexes, re)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.domainExclusions = domains
	s.regexExclusions = regexes
	return nil
}

// AddExclusions records additional exclusion rules (typically the configured
// denylist) and reloads the cached rule set. Existing rules are kept.
func (s *SQLiteStore) AddExclusions(ctx context.Context, rules []ExclusionRule) error {
	if len(rules) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rules {
		if r.Type != RuleDomain && r.Type != RuleRegex {
			return fmt.Errorf("unknown exclusion rule type %q", r.Type)
		}
		if _, err := tx.ExecContext(ctx, insertExclusionSQL, r.Type, r.Value, r.Reason, false); err != nil {
			return fmt.Errorf("insert exclusion %s: %w", r.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return s.loadExclusions()
}

// IsExcluded reports whether domain (or a parent domain of it) is blocked by
// the exclusion rules.
func (s *SQLiteStore) IsExcluded(domain string) bool {
	domain = strings.ToLower(domain)
	for _, d := range s.domainExclusions {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	for _, re := range s.regexExclusions {
		if re.MatchString(domain) {
			return true
		}
	}
	return false
}

// generateID creates a visit ID: VIS- followed by the first 8 hex chars of a
// random UUID.
func generateID() string {
	return "VIS-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ftsQuery converts a user search string into an FTS query in which every
// word must match as a prefix.
func ftsQuery(input string) string {
	var parts []string
	for _, w := range strings.Fields(input) {
		w = strings.Trim(strings.ReplaceAll(w, `"`, ""), "*")
		if w == "" {
			continue
		}
		parts = append(parts, `"`+w+`*"`)
	}
	return strings.Join(parts, " ")
}

// extractDomain pulls the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// prepareVisit fills the derived fields of v. It reports false if the visit
// must be skipped.
func (s *SQLiteStore) prepareVisit(v *Visit) bool {
	v.Domain = extractDomain(v.URL)
	if s.IsExcluded(v.Domain) {
		return false
	}
	v.ID = generateID()
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	if v.Source == "" {
		v.Source = "manual"
	}
	return true
}

// AddVisit inserts a visit. ID, Domain and (if unset) Timestamp and Source
// are populated. Visits to excluded domains are rejected with ErrExcluded.
func (s *SQLiteStore) AddVisit(ctx context.Context, v *Visit) error {
	if !s.prepareVisit(v) {
		return fmt.Errorf("add visit %s: %w", v.URL, ErrExcluded)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.insert(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit()
}

// AddVisits inserts visits in one transaction, skipping excluded domains. It
// returns the number of visits stored.
func (s *SQLiteStore) AddVisits(ctx context.Context, visits []*Visit) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n := 0
	for _, v := range visits {
		if !s.prepareVisit(v) {
			v.ID = ""
			continue
		}
		if err := s.insert(ctx, tx, v); err != nil {
			return 0, err
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) insert(ctx context.Context, tx *sql.Tx, v *Visit) error {
	_, err := tx.StmtContext(ctx, s.insertVisit).ExecContext(ctx,
		v.ID, v.Timestamp.UnixMilli(), v.URL, v.Title, v.Domain, v.Snippet, v.Source,
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}

	_, err = tx.StmtContext(ctx, s.insertFTS).ExecContext(ctx, v.ID, v.Title, v.URL)
	if err != nil {
		return fmt.Errorf("insert FTS: %w", err)
	}
	return nil
}

// QueryPage returns one page of history, newest first. Visits to the same URL
// on the same local day are folded into a single result carrying all their
// timestamps; a folded group is ordered and paged by its newest visit, then
// by URL, so a group never straddles two pages.
func (s *SQLiteStore) QueryPage(ctx context.Context, q PageQuery) (*PageResult, error) {
	res := &PageResult{Term: q.Term, Visits: []Visit{}}

	var clauses []string
	var args []interface{}

	if q.Term != "" {
		match := ftsQuery(q.Term)
		if match == "" {
			res.Finished = true
			return res, nil
		}
		clauses = append(clauses, "v.id IN (SELECT visit_id FROM visits_fts WHERE visits_fts MATCH ?)")
		args = append(args, match)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	// Bare columns take their values from the row holding MAX(v.ts).
	query := `
		SELECT v.id, v.url, v.title, v.domain, v.snippet, v.source,
		       MAX(v.ts) AS last_ts, group_concat(v.ts) AS all_ts
		FROM visits v` + where + `
		GROUP BY v.url, local_day(v.ts, ?)`
	args = append(args, s.zone)

	if !q.EndTime.IsZero() {
		end := q.EndTime.UnixMilli()
		if q.EndURL == "" {
			query += " HAVING last_ts < ?"
			args = append(args, end)
		} else {
			// (last_ts, url) is unique per group, so it is a total order.
			query += " HAVING last_ts < ? OR (last_ts = ? AND v.url < ?)"
			args = append(args, end, end, q.EndURL)
		}
	}

	query += " ORDER BY last_ts DESC, v.url DESC"
	if q.MaxCount > 0 {
		// One extra row tells us whether anything older remains.
		query += " LIMIT ?"
		args = append(args, q.MaxCount+1)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query page: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Visit
		var lastTS int64
		var allTS string
		if err := rows.Scan(&v.ID, &v.URL, &v.Title, &v.Domain, &v.Snippet, &v.Source, &lastTS, &allTS); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		v.Timestamp = time.UnixMilli(lastTS)
		v.AllTimestamps, err = parseTimestamps(allTS)
		if err != nil {
			return nil, fmt.Errorf("scan visit %s: %w", v.ID, err)
		}
		res.Visits = append(res.Visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.MaxCount > 0 && len(res.Visits) > q.MaxCount {
		res.Visits = res.Visits[:q.MaxCount]
	} else {
		res.Finished = true
	}

	return res, nil
}

// parseTimestamps decodes a group_concat list of unix milliseconds, newest
// first.
func parseTimestamps(s string) ([]time.Time, error) {
	fields := strings.Split(s, ",")
	out := make([]time.Time, 0, len(fields))
	for _, f := range fields {
		ms, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", f, err)
		}
		out = append(out, time.UnixMilli(ms))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

// DeleteVisits removes every visit addressed by keys and returns the number
// of visits deleted.
func (s *SQLiteStore) DeleteVisits(ctx context.Context, keys []VisitKey) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var total int64
	for _, k := range keys {
		for _, ts := range k.Timestamps {
			ms := ts.UnixMilli()

			_, err := tx.ExecContext(ctx,
				`DELETE FROM visits_fts WHERE visit_id IN (
					SELECT id FROM visits WHERE url = ? AND ts = ?
				)`, k.URL, ms,
			)
			if err != nil {
				return 0, fmt.Errorf("delete FTS entry: %w", err)
			}

			res, err := tx.ExecContext(ctx, "DELETE FROM visits WHERE url = ? AND ts = ?", k.URL, ms)
			if err != nil {
				return 0, fmt.Errorf("delete visit: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, err
			}
			total += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// DeleteAll removes every visit and returns how many were deleted.
// Exclusion rules are kept.
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM visits_fts"); err != nil {
		return 0, fmt.Errorf("clear FTS index: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM visits")
	if err != nil {
		return 0, fmt.Errorf("clear visits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&stats.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalVisits > 0 {
		var oldest, newest int64
		err = s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM visits").Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("visit time range: %w", err)
		}
		stats.OldestVisit = time.UnixMilli(oldest)
		stats.NewestVisit = time.UnixMilli(newest)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) AS cnt FROM visits GROUP BY domain ORDER BY cnt DESC, domain LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertVisit, s.insertFTS} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
