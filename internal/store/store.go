// Package store handles SQLite persistence.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/focusflow/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrInvalidSession is returned when a record has no topic or a non-positive duration.
var ErrInvalidSession = errors.New("invalid session record")

// Store wraps SQLite access for sessions, topics, settings and courses.
type Store struct {
	db        *sqlx.DB
	observers *notifier
}

// Revision identifies the state of a session scope for change polling.
type Revision struct {
	Count int64 `db:"n"`
	MaxID int64 `db:"max_id"`
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under the HTTP server.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, observers: newNotifier()}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			scope TEXT NOT NULL,
			topic TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			duration INTEGER NOT NULL CHECK (duration > 0)
		);`,
		`CREATE TABLE IF NOT EXISTS topics (
			position INTEGER NOT NULL,
			name TEXT NOT NULL PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS materials (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			mime TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			pages INTEGER NOT NULL DEFAULT 0,
			data TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_scope ON sessions(scope, id);`,
		`CREATE INDEX IF NOT EXISTS idx_materials_course ON materials(course_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores one session record in the given scope.
func (s *Store) Append(ctx context.Context, scope string, rec model.Session) error {
	if !rec.Valid() {
		return ErrInvalidSession
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (scope, topic, timestamp_ms, duration) VALUES (?, ?, ?, ?)`,
		scopeOrGuest(scope), rec.Topic, rec.Timestamp, rec.Duration)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	s.observers.notify(scopeOrGuest(scope))
	return nil
}

// AppendAll stores records in one transaction and returns how many were valid.
func (s *Store) AppendAll(ctx context.Context, scope string, recs []model.Session) (n int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO sessions (scope, topic, timestamp_ms, duration) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, rec := range recs {
		if !rec.Valid() {
			continue
		}
		if _, err = stmt.ExecContext(ctx, scopeOrGuest(scope), rec.Topic, rec.Timestamp, rec.Duration); err != nil {
			return 0, err
		}
		n++
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	if n > 0 {
		s.observers.notify(scopeOrGuest(scope))
	}
	return n, nil
}

// LoadAll returns every record of a scope in insertion order.
func (s *Store) LoadAll(ctx context.Context, scope string) ([]model.Session, error) {
	sessions := []model.Session{}
	err := s.db.SelectContext(ctx, &sessions,
		`SELECT topic, timestamp_ms, duration FROM sessions WHERE scope = ? ORDER BY id ASC`,
		scopeOrGuest(scope))
	if err != nil {
		return []model.Session{}, fmt.Errorf("load sessions: %w", err)
	}
	return sessions, nil
}

// ClearAll deletes every record of a scope and returns the number removed.
func (s *Store) ClearAll(ctx context.Context, scope string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE scope = ?`, scopeOrGuest(scope))
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.observers.notify(scopeOrGuest(scope))
	return n, nil
}

// Revision returns a change token for a scope.
func (s *Store) Revision(ctx context.Context, scope string) (Revision, error) {
	var rev Revision
	err := s.db.GetContext(ctx, &rev,
		`SELECT COUNT(*) AS n, COALESCE(MAX(id), 0) AS max_id FROM sessions WHERE scope = ?`,
		scopeOrGuest(scope))
	if err != nil {
		return Revision{}, fmt.Errorf("session revision: %w", err)
	}
	return rev, nil
}

// OnChange registers fn for writes to key (a session scope or TopicsKey).
// The returned func removes the registration.
func (s *Store) OnChange(key string, fn func(key string)) func() {
	return s.observers.subscribe(key, fn)
}

// Sessions returns a view of the session log bound to one scope.
func (s *Store) Sessions(scope string) Sessions {
	return Sessions{store: s, scope: scopeOrGuest(scope)}
}

// Sessions is a scope-bound session log.
type Sessions struct {
	store *Store
	scope string
}

// Scope returns the bound scope.
func (v Sessions) Scope() string {
	return v.scope
}

// Record appends a session to the bound scope.
func (v Sessions) Record(ctx context.Context, rec model.Session) error {
	return v.store.Append(ctx, v.scope, rec)
}

// LoadAll loads the bound scope.
func (v Sessions) LoadAll(ctx context.Context) ([]model.Session, error) {
	return v.store.LoadAll(ctx, v.scope)
}

func scopeOrGuest(scope string) string {
	if scope == "" {
		return model.GuestScope
	}
	return scope
}
