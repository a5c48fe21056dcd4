package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sorta/internal/personality"
)

// Chronicle persists recorder snapshots across runs in a local SQLite
// database, so `sorta stats` can report on history rather than a single
// process lifetime.
type Chronicle struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// OpenChronicle opens (or creates) the chronicle database at path.
func OpenChronicle(path string) (*Chronicle, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chronicle directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chronicle: %w", err)
	}

	c := &Chronicle{db: db, dbPath: path}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// initialize creates the required tables.
func (c *Chronicle) initialize() error {
	eventsTable := `
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		at DATETIME NOT NULL,
		event_type TEXT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`

	outcomesTable := `
	CREATE TABLE IF NOT EXISTS outcomes (
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		draws INTEGER NOT NULL,
		passes INTEGER NOT NULL,
		saved_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, kind)
	);
	`

	for _, table := range []string{eventsTable, outcomesTable} {
		if _, err := c.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create chronicle table: %w", err)
		}
	}
	return nil
}

// Append writes a snapshot into the chronicle. Outcome rows for the same
// run are replaced, so repeated appends within one run stay idempotent.
func (c *Chronicle) Append(snap Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin chronicle write: %w", err)
	}
	defer tx.Rollback()

	for kind, o := range snap.Outcomes {
		_, err := tx.Exec(`
			INSERT INTO outcomes (run_id, kind, draws, passes, saved_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(run_id, kind) DO UPDATE SET
				draws = excluded.draws,
				passes = excluded.passes,
				saved_at = excluded.saved_at`,
			snap.RunID, string(kind), o.Draws, o.Passes, snap.SavedAt)
		if err != nil {
			return fmt.Errorf("failed to write outcome row: %w", err)
		}
	}

	for _, ev := range snap.Recent {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO events (id, run_id, at, event_type, kind, detail)
			VALUES (?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.RunID, ev.At, string(ev.Type), string(ev.Kind), ev.Detail)
		if err != nil {
			return fmt.Errorf("failed to write event row: %w", err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns up to limit events, newest first.
func (c *Chronicle) RecentEvents(limit int) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := c.db.Query(`
		SELECT id, run_id, at, event_type, kind, detail
		FROM events ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var at time.Time
		var typ, kind string
		if err := rows.Scan(&ev.ID, &ev.RunID, &at, &typ, &kind, &ev.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.At = at
		ev.Type = EventType(typ)
		ev.Kind = personality.ConstructKind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// OutcomeTotals aggregates draws and passes per construct kind across all
// recorded runs.
func (c *Chronicle) OutcomeTotals() (map[personality.ConstructKind]OutcomeCounts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`
		SELECT kind, SUM(draws), SUM(passes) FROM outcomes GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	totals := make(map[personality.ConstructKind]OutcomeCounts)
	for rows.Next() {
		var kind string
		var o OutcomeCounts
		if err := rows.Scan(&kind, &o.Draws, &o.Passes); err != nil {
			return nil, fmt.Errorf("failed to scan outcome row: %w", err)
		}
		totals[personality.ConstructKind(kind)] = o
	}
	return totals, rows.Err()
}

// EventTypeCounts aggregates event counts per type across all runs.
func (c *Chronicle) EventTypeCounts() (map[EventType]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`
		SELECT event_type, COUNT(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[EventType]int64)
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[EventType(typ)] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (c *Chronicle) Close() error {
	return c.db.Close()
}
