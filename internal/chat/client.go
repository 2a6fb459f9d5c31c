package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Client asks a remote relay served by "focusflow serve".
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a client for the relay at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Ask posts the request to the provider endpoint. Unlike Relay.Ask it
// returns transport errors so the caller can show them.
func (c *Client) Ask(ctx context.Context, req Request) (Response, error) {
	path := "/api/chat"
	switch strings.ToLower(req.Provider) {
	case ProviderOpenAI:
		path = "/api/openai-chat"
	case ProviderGroq:
		path = "/api/groq-chat"
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("relay request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close for response body.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("relay returned %s", resp.Status)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode relay response: %w", err)
	}
	return out, nil
}

// Asker answers tutor requests, locally or through a remote relay.
type Asker interface {
	Ask(ctx context.Context, req Request) (Response, error)
}

// LocalAsker adapts a Relay to Asker.
type LocalAsker struct {
	Relay *Relay
}

// Ask never returns an error.
func (l LocalAsker) Ask(ctx context.Context, req Request) (Response, error) {
	return l.Relay.Ask(ctx, req), nil
}
