package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/focusflow/internal/auth"
	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/model"
	"github.com/verte-zerg/focusflow/internal/stats"
	"github.com/verte-zerg/focusflow/internal/store"
)

type echoProvider struct{ name string }

func (p echoProvider) Name() string { return p.name }

func (p echoProvider) Complete(_ context.Context, _, user string) (string, error) {
	return p.name + " says physics: " + user, nil
}

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "focusflow.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	relay := chat.NewRelay(chat.Config{
		Providers: []chat.Provider{echoProvider{name: chat.ProviderOpenAI}, echoProvider{name: chat.ProviderGroq}},
		Default:   chat.ProviderGroq,
	})
	authSvc := auth.NewService(auth.NewFileStore(filepath.Join(dir, "users.json")))
	srv := NewServer(Config{
		Relay:    relay,
		Auth:     authSvc,
		Sessions: st,
		Now:      func() time.Time { return fixedNow },
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, respBody
}

func TestHealthAndCORS(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "OK" {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
	resp, _ = do(t, http.MethodOptions, ts.URL+"/api/signup", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
}

func TestChatEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	cases := []struct {
		path, body, want string
	}{
		{"/api/openai-chat", `{"message":"hi","topic":"Physics"}`, "openai says physics: hi"},
		{"/api/groq-chat", `{"message":"hi","topic":"Physics"}`, "groq says physics: hi"},
		{"/api/chat", `{"message":"hi","topic":"Physics"}`, "groq says physics: hi"},
		{"/api/chat", `{"message":"hi","topic":"Physics","provider":"openai"}`, "openai says physics: hi"},
		{"/api/openai-chat", `{"message":"","topic":"Physics"}`, chat.NoMessageReply},
		{"/api/openai-chat", `{"message":"hi"}`, chat.NoTopicReply},
		{"/api/openai-chat", `not json`, chat.NoMessageReply},
	}
	for _, tc := range cases {
		resp, body := do(t, http.MethodPost, ts.URL+tc.path, tc.body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", tc.path, resp.StatusCode)
		}
		var out chat.Response
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		if out.Reply != tc.want {
			t.Fatalf("%s %s reply = %q, want %q", tc.path, tc.body, out.Reply, tc.want)
		}
	}
}

func TestSignupLoginStatusCodes(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, ts.URL+"/api/signup", `{"email":"a@b.c","password":"pw"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d %s", resp.StatusCode, body)
	}
	var created struct {
		User auth.User `json:"user"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.User.ID == "" || created.User.Name != "a" {
		t.Fatalf("signup body = %s (%v)", body, err)
	}
	if strings.Contains(string(body), "passwordHash") {
		t.Fatalf("hash leaked: %s", body)
	}

	checks := []struct {
		path, body string
		status     int
	}{
		{"/api/signup", `{"email":"A@B.C","password":"x"}`, http.StatusConflict},
		{"/api/signup", `{"email":"","password":"x"}`, http.StatusBadRequest},
		{"/api/login", `{"email":"a@b.c","password":"pw"}`, http.StatusOK},
		{"/api/login", `{"email":"a@b.c","password":"bad"}`, http.StatusUnauthorized},
		{"/api/login", `{`, http.StatusBadRequest},
	}
	for _, c := range checks {
		resp, body := do(t, http.MethodPost, ts.URL+c.path, c.body)
		if resp.StatusCode != c.status {
			t.Fatalf("%s %s status = %d, want %d (%s)", c.path, c.body, resp.StatusCode, c.status, body)
		}
	}
}

func TestSessionsAndStats(t *testing.T) {
	ts, st := newTestServer(t)
	base := ts.URL + "/api/sessions?user=u1"

	resp, body := do(t, http.MethodPost, base, `{"topic":"Physics","duration":1500}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("append status = %d %s", resp.StatusCode, body)
	}
	resp, _ = do(t, http.MethodPost, base, `{"topic":"","duration":10}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid append status = %d", resp.StatusCode)
	}

	stored, err := st.LoadAll(context.Background(), model.UserScope("u1"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored) != 1 || stored[0].Timestamp != fixedNow.UnixMilli() {
		t.Fatalf("stored = %+v", stored)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/stats?user=u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var report stats.Report
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TodayMinutes != 25 || report.Progress.LifetimeXP != 30 || len(report.Topics) != 1 {
		t.Fatalf("report = %+v", report)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/api/sessions", "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("guest sessions = %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodDelete, base, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"deleted":1`) {
		t.Fatalf("clear = %d %s", resp.StatusCode, body)
	}
}
