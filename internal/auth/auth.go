// Package auth implements email/password signup and login over a JSON user file.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingFields is returned when email or password is empty.
	ErrMissingFields = errors.New("email and password are required")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is the public view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Service handles signup and login.
type Service struct {
	store *FileStore
	cost  int
	now   func() time.Time
}

// NewService returns a service over store using the default bcrypt cost.
func NewService(store *FileStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost, now: time.Now}
}

// Signup registers a user. An empty name defaults to the email local part.
func (s *Service) Signup(email, password, name string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, ErrMissingFields
	}
	if _, found, err := s.store.FindByEmail(email); err != nil {
		return User{}, err
	} else if found {
		return User{}, ErrEmailTaken
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}
	rec := Record{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.now().UnixMilli(),
	}
	if err := s.store.Insert(rec); err != nil {
		return User{}, err
	}
	return rec.public(), nil
}

// Login checks credentials.
func (s *Service) Login(email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, ErrMissingFields
	}
	rec, found, err := s.store.FindByEmail(email)
	if err != nil {
		return User{}, err
	}
	if !found || !CheckPasswordHash(password, rec.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return rec.public(), nil
}

func (r Record) public() User {
	return User{ID: r.ID, Email: r.Email, Name: r.Name}
}

// HashPassword hashes the password with the given bcrypt cost.
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash checks if the password matches the hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
