package storage

import "database/sql"

// migrateV001 creates the initial histview schema. Every statement uses
// IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		// ts is unix milliseconds.
		`CREATE TABLE IF NOT EXISTS visits (
			id         TEXT PRIMARY KEY,
			ts         INTEGER NOT NULL,
			url        TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			domain     TEXT NOT NULL DEFAULT '',
			snippet    TEXT NOT NULL DEFAULT '',
			source     TEXT NOT NULL DEFAULT 'manual',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_visits_ts        ON visits(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_url_ts    ON visits(url, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_domain    ON visits(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule  ON exclusions(rule_type, rule_value)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return seedDefaultExclusions(tx)
}

// seedDefaultExclusions inserts the rules that apply regardless of the
// configured denylist. Uses INSERT OR IGNORE so re-running is safe.
func seedDefaultExclusions(tx *sql.Tx) error {
	defaults := []ExclusionRule{
		{Type: RuleRegex, Value: `.*\.xxx$`, Reason: "Adult content exclusion"},
		{Type: RuleRegex, Value: `.*pornhub\.com$`, Reason: "Adult content exclusion"},
	}

	for _, r := range defaults {
		if _, err := tx.Exec(insertExclusionSQL, r.Type, r.Value, r.Reason, true); err != nil {
			return err
		}
	}

	return nil
}
