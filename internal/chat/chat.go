// Package chat relays tutor questions to an LLM provider and keeps the
// conversation on the current study topic.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Fixed replies. The relay never surfaces an error to the user.
const (
	NoMessageReply     = "No message received. Ask something about your topic."
	NoTopicReply       = "Choose a topic first so I can help you stay focused."
	UpstreamErrorReply = "The tutor is unavailable right now. Please try again in a moment."
)

// Request is one tutor question.
type Request struct {
	Message      string `json:"message"`
	Topic        string `json:"topic"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Provider     string `json:"provider,omitempty"`
}

// Meta carries reply annotations.
type Meta struct {
	Flagged bool `json:"flagged"`
}

// Response is the relay answer.
type Response struct {
	Reply string `json:"reply"`
	Meta  *Meta  `json:"meta,omitempty"`
}

// Provider completes one system+user prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// OffTopicFunc reports whether a reply strays from the topic.
type OffTopicFunc func(topic, reply string) bool

// RedirectReply replaces a flagged reply.
func RedirectReply(topic string) string {
	return fmt.Sprintf("Let's stay on %s. Ask me something about it and I'll help.", topic)
}

// SystemPrompt builds the default tutor instructions for a topic.
func SystemPrompt(topic string) string {
	return fmt.Sprintf("You are a patient study tutor. Only help with the topic %q. "+
		"If the question is about something else, steer the student back to %s. Keep answers short.", topic, topic)
}

// Config configures a Relay.
type Config struct {
	Providers []Provider
	// Default is used when a request names no provider.
	Default  string
	OffTopic OffTopicFunc
	Logger   hclog.Logger
}

// Relay dispatches requests to providers.
type Relay struct {
	providers map[string]Provider
	fallback  string
	offTopic  OffTopicFunc
	logger    hclog.Logger
}

// NewRelay builds a relay. A nil OffTopic uses KeywordFilter(DefaultBlocklist).
func NewRelay(cfg Config) *Relay {
	r := &Relay{
		providers: make(map[string]Provider, len(cfg.Providers)),
		fallback:  strings.ToLower(cfg.Default),
		offTopic:  cfg.OffTopic,
		logger:    cfg.Logger,
	}
	for _, p := range cfg.Providers {
		r.providers[strings.ToLower(p.Name())] = p
	}
	if r.fallback == "" {
		r.fallback = ProviderOpenAI
	}
	if r.offTopic == nil {
		r.offTopic = KeywordFilter(DefaultBlocklist)
	}
	if r.logger == nil {
		r.logger = hclog.NewNullLogger()
	}
	return r
}

// Providers lists configured provider names.
func (r *Relay) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ask answers a request. It never fails; problems become fixed replies.
func (r *Relay) Ask(ctx context.Context, req Request) Response {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return Response{Reply: NoMessageReply}
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return Response{Reply: NoTopicReply}
	}
	name := strings.ToLower(strings.TrimSpace(req.Provider))
	if name == "" {
		name = r.fallback
	}
	provider, ok := r.providers[name]
	if !ok {
		r.logger.Warn("chat provider not configured", "provider", name)
		return Response{Reply: UpstreamErrorReply}
	}
	system := req.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = SystemPrompt(topic)
	}
	reply, err := provider.Complete(ctx, system, message)
	if err != nil {
		r.logger.Error("chat completion failed", "provider", name, "error", err)
		return Response{Reply: UpstreamErrorReply}
	}
	if r.offTopic(topic, reply) {
		r.logger.Debug("chat reply flagged off-topic", "provider", name, "topic", topic)
		return Response{Reply: RedirectReply(topic), Meta: &Meta{Flagged: true}}
	}
	return Response{Reply: reply, Meta: &Meta{Flagged: false}}
}
