package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# focusflow configuration
# Uncomment a value to enable it. CLI flags override config values.
# Durations changed inside the timer are saved and override this file.
# API keys are read from OPENAI_API_KEY and GROQ_API_KEY.

[timer]
# focus = %d              # Focus length in minutes
# short-break = %d         # Short break length in minutes
# long-break = %d         # Long break length in minutes
# sound = true            # Ring the terminal bell near the end of each phase

[chat]
# provider = %q      # Default tutor provider (openai or groq)
# openai-model = %q
# openai-base-url = %q
# groq-model = %q
# groq-base-url = %q
# blocklist = ""          # File with one off-topic keyword per line
# relay-url = ""          # Use a running focusflow server for the tutor

[server]
# addr = %q
# users-file = ""         # Default: $XDG_DATA_HOME/focusflow/users.json
# log-level = %q
# cors-origin = "*"

[ui]
# theme = %q          # dark or light
`,
		defaultFocusMinutes,
		defaultShortBreakMinutes,
		defaultLongBreakMinutes,
		chat.ProviderOpenAI,
		chat.DefaultOpenAIModel,
		chat.DefaultOpenAIBaseURL,
		chat.DefaultGroqModel,
		chat.DefaultGroqBaseURL,
		defaultAddr,
		defaultLogLevel,
		defaultTheme,
	)
}
