// Package journal keeps a local SQLite record of every day a run touched, so
// partial failures can be reconciled by hand.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/xolan/tpsheet/internal/osutil"
)

// FileName is the journal database name inside the app directory.
const FileName = "journal.db"

const dateLayout = "2006-01-02"

// Status is the outcome recorded for a day.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusDryRun    Status = "dry_run"
	StatusFailed    Status = "failed"
)

// Record is one day of one run.
type Record struct {
	ID        string
	RunID     string
	Date      time.Time
	Hours     int
	Tasks     string
	Status    Status
	EntryIDs  []string
	Error     string
	CreatedAt time.Time
}

// Store provides access to the journal database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the journal location in the user config directory.
func DefaultPath() (string, error) {
	return osutil.AppPath(FileName)
}

// Open opens or creates the journal at path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		day TEXT NOT NULL,
		hours INTEGER NOT NULL,
		tasks TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		entry_ids TEXT NOT NULL DEFAULT '[]',
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_day ON submissions(day);
	CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores rec, filling in ID and CreatedAt when empty.
func (s *Store) Record(ctx context.Context, rec Record) (Record, error) {
	if rec.RunID == "" {
		return Record{}, errors.New("journal record needs a run id")
	}
	switch rec.Status {
	case StatusSubmitted, StatusDryRun, StatusFailed:
	default:
		return Record{}, fmt.Errorf("invalid journal status %q", rec.Status)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.EntryIDs == nil {
		rec.EntryIDs = []string{}
	}

	ids, err := json.Marshal(rec.EntryIDs)
	if err != nil {
		return Record{}, fmt.Errorf("encode entry ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, run_id, day, hours, tasks, status, entry_ids, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Date.Format(dateLayout), rec.Hours, rec.Tasks, string(rec.Status),
		string(ids), rec.Error, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, fmt.Errorf("insert journal record: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, run_id, day, hours, tasks, status, entry_ids, error, created_at
		FROM submissions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// ForDate returns every record for date's calendar day, oldest first.
func (s *Store) ForDate(ctx context.Context, date time.Time) ([]Record, error) {
	return s.query(ctx,
		`SELECT id, run_id, day, hours, tasks, status, entry_ids, error, created_at
		 FROM submissions WHERE day = ? ORDER BY created_at ASC, rowid ASC`,
		date.Format(dateLayout))
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec              Record
			day, status, ids string
			createdAt        string
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &day, &rec.Hours, &rec.Tasks, &status, &ids, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal record: %w", err)
		}
		rec.Status = Status(status)
		if rec.Date, err = time.ParseInLocation(dateLayout, day, time.Local); err != nil {
			return nil, fmt.Errorf("journal record %s: bad day %q", rec.ID, day)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("journal record %s: bad timestamp %q", rec.ID, createdAt)
		}
		if err := json.Unmarshal([]byte(ids), &rec.EntryIDs); err != nil {
			return nil, fmt.Errorf("journal record %s: bad entry ids: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
