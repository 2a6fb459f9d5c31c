package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubProvider struct {
	name   string
	reply  string
	err    error
	calls  int
	system string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(_ context.Context, system, _ string) (string, error) {
	s.calls++
	s.system = system
	return s.reply, s.err
}

func TestAskFixedReplies(t *testing.T) {
	stub := &stubProvider{name: ProviderOpenAI, reply: "physics is fun"}
	relay := NewRelay(Config{Providers: []Provider{stub}})
	ctx := context.Background()

	if got := relay.Ask(ctx, Request{Message: "   ", Topic: "Physics"}); got.Reply != NoMessageReply || got.Meta != nil {
		t.Fatalf("empty message reply = %+v", got)
	}
	if got := relay.Ask(ctx, Request{Message: "hi", Topic: " "}); got.Reply != NoTopicReply {
		t.Fatalf("empty topic reply = %+v", got)
	}
	if stub.calls != 0 {
		t.Fatalf("provider called %d times", stub.calls)
	}

	stub.err = errors.New("boom")
	if got := relay.Ask(ctx, Request{Message: "hi", Topic: "Physics"}); got.Reply != UpstreamErrorReply {
		t.Fatalf("upstream error reply = %+v", got)
	}
	if got := relay.Ask(ctx, Request{Message: "hi", Topic: "Physics", Provider: "groq"}); got.Reply != UpstreamErrorReply {
		t.Fatalf("unconfigured provider reply = %+v", got)
	}
}

func TestAskFlagsOffTopic(t *testing.T) {
	stub := &stubProvider{name: ProviderGroq, reply: "Let me tell you about the foci match last night."}
	relay := NewRelay(Config{Providers: []Provider{stub}, Default: ProviderGroq})
	got := relay.Ask(context.Background(), Request{Message: "q", Topic: "Physics"})
	if got.Meta == nil || !got.Meta.Flagged || got.Reply != RedirectReply("Physics") {
		t.Fatalf("flagged reply = %+v", got)
	}

	stub.reply = "In physics, force equals mass times acceleration."
	got = relay.Ask(context.Background(), Request{Message: "q", Topic: "Physics", SystemPrompt: "custom"})
	if got.Meta == nil || got.Meta.Flagged || got.Reply != stub.reply {
		t.Fatalf("on-topic reply = %+v", got)
	}
	if stub.system != "custom" {
		t.Fatalf("system prompt = %q", stub.system)
	}
}

func TestKeywordFilter(t *testing.T) {
	filter := KeywordFilter([]string{" Soccer ", ""})
	cases := []struct {
		topic, reply string
		want         bool
	}{
		{"Physics", "physics answer", false},
		{"Physics", "an answer about energy", true},
		{"World History", "the treaty was signed", false},
		{"World History", "SOCCER is played", true},
		{"", "anything", false},
	}
	for _, tc := range cases {
		if got := filter(tc.topic, tc.reply); got != tc.want {
			t.Fatalf("filter(%q, %q) = %v, want %v", tc.topic, tc.reply, got, tc.want)
		}
	}
}

func TestLoadBlocklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocklist.txt")
	if err := os.WriteFile(path, []byte("# comment\nFoci\n\nfoci\nchess\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := LoadBlocklist(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(words, []string{"foci", "chess"}) {
		t.Fatalf("words = %v", words)
	}
	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadBlocklist(empty); err == nil {
		t.Fatalf("expected error for empty blocklist")
	}
}

func TestCompletionsProvider(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  hello  "}}]}`))
	}))
	defer srv.Close()

	p := NewGroq("k", "", srv.URL+"/")
	reply, err := p.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != DefaultGroqModel || len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "user" {
		t.Fatalf("request = %+v", got)
	}

	if _, err := NewOpenAI("", "", srv.URL).Complete(context.Background(), "s", "u"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("missing key err = %v", err)
	}
	_, err = NewOpenAI("wrong", "", srv.URL).Complete(context.Background(), "s", "u")
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != http.StatusUnauthorized {
		t.Fatalf("rejected key err = %v", err)
	}
}

func TestClientRoutesByProvider(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_ = json.NewEncoder(w).Encode(Response{Reply: "ok", Meta: &Meta{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	for _, provider := range []string{"openai", "groq", ""} {
		resp, err := client.Ask(context.Background(), Request{Message: "m", Topic: "t", Provider: provider})
		if err != nil {
			t.Fatalf("ask: %v", err)
		}
		if resp.Reply != "ok" {
			t.Fatalf("reply = %q", resp.Reply)
		}
	}
	want := []string{"/api/openai-chat", "/api/groq-chat", "/api/chat"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v", paths)
	}
}
