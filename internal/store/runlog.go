package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// RunEntry is one recorded pipeline operation for one country.
type RunEntry struct {
	ID          string     `json:"id"`
	Operation   string     `json:"operation"`
	Country     string     `json:"country"`
	Status      string     `json:"status"`
	Records     int64      `json:"records"`
	Message     string     `json:"message,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// RunLog records pipeline operations in a sqlite database.
type RunLog struct {
	db *sql.DB
}

// OpenRunLog opens (creating if needed) the run log at the given path and
// applies the schema.
func OpenRunLog(path string) (*RunLog, error) {
	if err := EnsureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}

	if _, err := db.Exec(runLogMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "runlog: migrate")
	}
	return &RunLog{db: db}, nil
}

const runLogMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	operation    TEXT NOT NULL,
	country      TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	records      INTEGER NOT NULL DEFAULT 0,
	message      TEXT,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_country ON runs(country);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Close closes the underlying database.
func (l *RunLog) Close() error {
	return l.db.Close()
}

// Start records the beginning of an operation and returns its run ID.
func (l *RunLog) Start(ctx context.Context, operation, country string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, country, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, operation, countryKey(country), RunStatusRunning, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start %s %s", operation, country)
	}
	return id, nil
}

// Complete marks a run as successfully completed with a record count and a
// human-readable status message.
func (l *RunLog) Complete(ctx context.Context, runID string, records int64, message string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, records = ?, message = ?, completed_at = ? WHERE id = ?`,
		RunStatusComplete, records, message, time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "runlog: complete %s", runID)
}

// Fail marks a run as failed with an error message.
func (l *RunLog) Fail(ctx context.Context, runID string, message string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, message = ?, completed_at = ? WHERE id = ?`,
		RunStatusFailed, message, time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "runlog: fail %s", runID)
}

// List returns run entries, most recent first, up to limit (0 for all).
func (l *RunLog) List(ctx context.Context, limit int) ([]RunEntry, error) {
	query := `SELECT id, operation, country, status, records, message, started_at, completed_at
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close() //nolint:errcheck

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var message sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Operation, &e.Country, &e.Status, &e.Records, &message, &e.StartedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		e.Message = message.String
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
