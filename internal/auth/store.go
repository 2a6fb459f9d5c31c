package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Record is a stored user including the password hash.
type Record struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

// FileStore keeps users in a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// FindByEmail returns the user whose email matches case-insensitively.
func (s *FileStore) FindByEmail(email string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return Record{}, false, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return Record{}, false, nil
}

// Insert appends a user unless the email is already taken.
func (s *FileStore) Insert(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, rec.Email) {
			return ErrEmailTaken
		}
	}
	return s.write(append(users, rec))
}

// Count returns the number of users.
func (s *FileStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.read()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (s *FileStore) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var users []Record
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	return users, nil
}

func (s *FileStore) write(users []Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create users dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), "users-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp users file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	enc := json.NewEncoder(tmpFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(users); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close users file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to write users: %w", err)
	}
	return nil
}
