package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Setting returns the stored value and whether it exists.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a value, replacing any previous one.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a value; missing keys are not an error.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// Topics returns the stored topic list in order.
func (s *Store) Topics(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM topics ORDER BY position ASC`); err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	return names, nil
}

// SaveTopics replaces the topic list.
func (s *Store) SaveTopics(ctx context.Context, names []string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM topics`); err != nil {
		return fmt.Errorf("save topics: %w", err)
	}
	for i, name := range names {
		if _, err = tx.ExecContext(ctx, `INSERT INTO topics (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("save topics: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	s.observers.notify(TopicsKey)
	return nil
}
