// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Timer  TimerConfig  `toml:"timer"`
	Chat   ChatConfig   `toml:"chat"`
	Server ServerConfig `toml:"server"`
	UI     UIConfig     `toml:"ui"`
}

// TimerConfig maps timer settings. Durations are minutes.
type TimerConfig struct {
	Focus      *int  `toml:"focus"`
	ShortBreak *int  `toml:"short-break"`
	LongBreak  *int  `toml:"long-break"`
	Sound      *bool `toml:"sound"`
}

// ChatConfig maps AI tutor settings.
type ChatConfig struct {
	Provider      *string `toml:"provider"`
	OpenAIModel   *string `toml:"openai-model"`
	OpenAIBaseURL *string `toml:"openai-base-url"`
	GroqModel     *string `toml:"groq-model"`
	GroqBaseURL   *string `toml:"groq-base-url"`
	Blocklist     *string `toml:"blocklist"`
	RelayURL      *string `toml:"relay-url"`
}

// ServerConfig maps `focusflow serve` settings.
type ServerConfig struct {
	Addr       *string `toml:"addr"`
	UsersFile  *string `toml:"users-file"`
	LogLevel   *string `toml:"log-level"`
	CORSOrigin *string `toml:"cors-origin"`
}

// UIConfig maps presentation settings.
type UIConfig struct {
	Theme *string `toml:"theme"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// StringOr returns *v or fallback when v is unset or blank.
func StringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
