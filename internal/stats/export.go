package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/focusflow/internal/model"
)

// Formats accepted by the export helpers.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NormalizeFormat validates a format name.
func NormalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// Encode writes v as JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q cannot encode data", format)
	}
}

// DecodeSessions reads a session list in the JSON or YAML export shape.
func DecodeSessions(r io.Reader, format string) ([]model.Session, error) {
	var sessions []model.Session
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&sessions); err != nil {
			return nil, fmt.Errorf("decode sessions: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&sessions); err != nil {
			return nil, fmt.Errorf("decode sessions: %w", err)
		}
	default:
		return nil, fmt.Errorf("format %q cannot decode sessions", format)
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}
