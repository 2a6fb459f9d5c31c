package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "users.json")
	svc := NewService(NewFileStore(path))
	svc.cost = bcrypt.MinCost
	return svc, path
}

func TestSignupAndLogin(t *testing.T) {
	svc, path := newTestService(t)

	user, err := svc.Signup(" ada@example.com ", "secret", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == "" || user.Email != "ada@example.com" || user.Name != "ada" {
		t.Fatalf("user = %+v", user)
	}

	got, err := svc.Login("ADA@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got != user {
		t.Fatalf("login user = %+v, want %+v", got, user)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read users: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Fatalf("plain password stored")
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil || len(recs) != 1 {
		t.Fatalf("users file = %s (%v)", data, err)
	}
}

func TestSignupErrors(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Signup("", "pw", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("missing email err = %v", err)
	}
	if _, err := svc.Signup("a@b.c", "", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("missing password err = %v", err)
	}
	if _, err := svc.Signup("a@b.c", "pw", "Ann"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signup("A@B.C", "other", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate err = %v", err)
	}
	n, err := svc.store.Count()
	if err != nil || n != 1 {
		t.Fatalf("count = %d (%v)", n, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Signup("a@b.c", "pw", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Login("a@b.c", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login("x@b.c", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewFileStore(path).FindByEmail("a@b.c"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileStoreCountsMissingFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none", "users.json")
	fs := NewFileStore(path)
	if fs.Path() != path {
		t.Fatalf("path = %q", fs.Path())
	}
	n, err := fs.Count()
	if err != nil || n != 0 {
		t.Fatalf("count = %d (%v)", n, err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("count created the file: %v", err)
	}
}
