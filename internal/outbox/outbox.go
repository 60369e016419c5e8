// Package outbox is a durable local queue of project cascades that could
// not be applied to the remote store.
package outbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Entry is one queued cascade.
type Entry struct {
	ID        string    `db:"id" json:"id" yaml:"id"`
	ProjectID string    `db:"project_id" json:"project_id" yaml:"project_id"`
	Attempts  int       `db:"attempts" json:"attempts" yaml:"attempts"`
	LastError string    `db:"last_error" json:"last_error,omitempty" yaml:"last_error,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at" yaml:"updated_at"`
}

// Outbox stores pending cascades in SQLite. A project appears at most
// once no matter how many times it is queued.
type Outbox struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (or creates) the outbox database at path, enables WAL mode,
// and runs any pending schema migrations. ":memory:" gives a private
// in-memory queue.
func Open(path string) (*Outbox, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating outbox directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection: the queue is tiny and an in-memory database is
	// per-connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	o := &Outbox{db: db, now: time.Now}
	if err := o.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return o, nil
}

// Close closes the underlying database connection.
func (o *Outbox) Close() error {
	return o.db.Close()
}

func (o *Outbox) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := o.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = o.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := o.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Enqueue records that projectID still needs its invoices marked paid.
// Queuing a project that is already pending keeps its attempts but gives
// the entry a new id, so a Complete for the earlier request leaves it in
// place.
func (o *Outbox) Enqueue(ctx context.Context, projectID string) error {
	if projectID == "" {
		return fmt.Errorf("enqueue: empty project id")
	}
	now := o.now().UTC()
	_, err := o.db.ExecContext(ctx, `
		INSERT INTO cascades (id, project_id, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, 0, '', ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET id = excluded.id, updated_at = excluded.updated_at`,
		uuid.NewString(), projectID, now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueuing cascade for project %s: %w", projectID, err)
	}
	return nil
}

// Pending returns every queued cascade, oldest first.
func (o *Outbox) Pending(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := o.db.SelectContext(ctx, &entries, `
		SELECT id, project_id, attempts, last_error, created_at, updated_at
		FROM cascades
		ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing pending cascades: %w", err)
	}
	return entries, nil
}

// Count returns the number of queued cascades.
func (o *Outbox) Count(ctx context.Context) (int, error) {
	var n int
	if err := o.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM cascades"); err != nil {
		return 0, fmt.Errorf("counting cascades: %w", err)
	}
	return n, nil
}

// Complete removes an entry once its cascade has been applied. An entry
// re-queued since it was read has a new id and survives.
func (o *Outbox) Complete(ctx context.Context, id string) error {
	if _, err := o.db.ExecContext(ctx, "DELETE FROM cascades WHERE id = ?", id); err != nil {
		return fmt.Errorf("completing cascade %s: %w", id, err)
	}
	return nil
}

// RecordFailure bumps the attempt count of an entry and keeps the cause.
func (o *Outbox) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := o.db.ExecContext(ctx, `
		UPDATE cascades
		SET attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?`,
		msg, o.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("recording failure for cascade %s: %w", id, err)
	}
	return nil
}
