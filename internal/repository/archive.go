// Package repository persists accepted alerts beyond the visible timeline.
// The rendered timeline is capped; the archive is the unbounded underlying
// log behind it.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"           // postgres driver
	_ "modernc.org/sqlite"          // sqlite driver

	"github.com/visionguard/visionguard-monitor/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	task_id     TEXT NOT NULL,
	camera_id   TEXT NOT NULL,
	event_type  TEXT NOT NULL,
	confidence  REAL NOT NULL,
	occurred_at TIMESTAMP NOT NULL,
	message     TEXT,
	received_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_received_at ON alerts (received_at);
CREATE INDEX IF NOT EXISTS idx_alerts_task_id ON alerts (task_id);
`

// AlertRecord is the stored form of an accepted alert.
type AlertRecord struct {
	ID         string    `db:"id"`
	TaskID     string    `db:"task_id"`
	CameraID   string    `db:"camera_id"`
	EventType  string    `db:"event_type"`
	Confidence float64   `db:"confidence"`
	OccurredAt time.Time `db:"occurred_at"`
	Message    string    `db:"message"`
	ReceivedAt time.Time `db:"received_at"`
}

// Archive is the sqlx-backed alert log. It works against SQLite (default)
// and Postgres.
type Archive struct {
	db *sqlx.DB
}

// NewSQLiteArchive opens (or creates) a SQLite-backed archive at path.
func NewSQLiteArchive(path string) (*Archive, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	return newArchive(db)
}

// NewPostgresArchive opens a Postgres-backed archive with the given DSN.
func NewPostgresArchive(dsn string) (*Archive, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return newArchive(db)
}

func newArchive(db *sqlx.DB) (*Archive, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save appends one accepted alert to the log. Identical-looking events get
// distinct rows; the archive never deduplicates.
func (a *Archive) Save(ctx context.Context, event *models.AlertEvent) error {
	query := a.db.Rebind(`
		INSERT INTO alerts (id, task_id, camera_id, event_type, confidence, occurred_at, message, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := a.db.ExecContext(ctx, query,
		uuid.New().String(),
		event.TaskID,
		event.CameraID,
		event.EventType,
		event.Confidence,
		event.OccurredAt.UTC(),
		event.HumanMessage,
		event.ReceivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// Recent returns the most recently received alerts, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]AlertRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []AlertRecord
	query := a.db.Rebind(`SELECT * FROM alerts ORDER BY received_at DESC LIMIT ?`)
	if err := a.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return records, nil
}

// CountByTask returns the number of archived alerts for one monitoring task.
func (a *Archive) CountByTask(ctx context.Context, taskID string) (int, error) {
	var count int
	query := a.db.Rebind(`SELECT COUNT(*) FROM alerts WHERE task_id = ?`)
	if err := a.db.GetContext(ctx, &count, query, taskID); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return count, nil
}

// Prune removes alerts received before the cutoff and reports how many rows
// went away.
func (a *Archive) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := a.db.Rebind(`DELETE FROM alerts WHERE received_at < ?`)
	res, err := a.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune alerts: %w", err)
	}
	return n, nil
}
