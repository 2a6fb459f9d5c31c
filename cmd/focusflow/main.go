// Package main provides the CLI entrypoint for focusflow.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/config"
	"github.com/verte-zerg/focusflow/internal/model"
	"github.com/verte-zerg/focusflow/internal/store"
	"github.com/verte-zerg/focusflow/internal/timer"
	"github.com/verte-zerg/focusflow/internal/topics"
	"github.com/verte-zerg/focusflow/internal/tui"
)

const (
	defaultFocusMinutes      = model.DefaultFocusSeconds / 60
	defaultShortBreakMinutes = model.DefaultShortBreakSeconds / 60
	defaultLongBreakMinutes  = model.DefaultLongBreakSeconds / 60
	defaultTheme             = "dark"
	defaultAddr              = ":5000"
	defaultLogLevel          = "info"
)

var (
	timerFocus      int
	timerShortBreak int
	timerLongBreak  int
	timerSound      bool
	timerTheme      string
	timerProvider   string
	timerRelayURL   string

	userOverride string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "focusflow",
		Short:         "Pomodoro focus timer with study stats and an AI tutor",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&userOverride, "user", "", "user id whose sessions to use (default: logged-in user or guest)")

	rootCmd.Flags().IntVar(&timerFocus, "focus", defaultFocusMinutes, "focus length in minutes")
	rootCmd.Flags().IntVar(&timerShortBreak, "short-break", defaultShortBreakMinutes, "short break length in minutes")
	rootCmd.Flags().IntVar(&timerLongBreak, "long-break", defaultLongBreakMinutes, "long break length in minutes")
	rootCmd.Flags().BoolVar(&timerSound, "sound", true, "ring the terminal bell near the end of each phase")
	rootCmd.Flags().StringVar(&timerTheme, "theme", defaultTheme, "color theme (dark or light)")
	rootCmd.Flags().StringVar(&timerProvider, "provider", chat.ProviderOpenAI, "tutor provider (openai or groq)")
	rootCmd.Flags().StringVar(&timerRelayURL, "relay-url", "", "ask a running focusflow server instead of calling providers directly")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newCoursesCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBoolConfig(cmd, "sound", &timerSound, fileCfg.Timer.Sound)
	applyStringConfig(cmd, "theme", &timerTheme, fileCfg.UI.Theme)
	applyStringConfig(cmd, "provider", &timerProvider, fileCfg.Chat.Provider)
	applyStringConfig(cmd, "relay-url", &timerRelayURL, fileCfg.Chat.RelayURL)
	if err := validateTheme(timerTheme); err != nil {
		return err
	}
	if err := validateProvider(timerProvider); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	durations, err := resolveDurations(ctx, cmd, st, fileCfg.Timer)
	if err != nil {
		return err
	}
	scope, _, err := currentScope(ctx, st)
	if err != nil {
		return err
	}

	machine, err := timer.New(timer.Config{
		Durations: durations,
		Recorder:  st.Sessions(scope),
		Logf: func(format string, args ...any) {
			logErrf(format+"\n", args...)
		},
	})
	if err != nil {
		return fmt.Errorf("invalid durations: %w", err)
	}
	registry, err := topics.Open(ctx, st, machine.Running)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	asker, err := buildAsker(fileCfg.Chat, timerProvider, timerRelayURL)
	if err != nil {
		return err
	}

	ui := tui.NewModel(tui.Options{
		Machine:  machine,
		Topics:   registry,
		Sessions: st,
		Settings: st,
		Scope:    scope,
		Asker:    asker,
		Provider: timerProvider,
		Sound:    timerSound,
		Theme:    timerTheme,
	})
	defer ui.Close()
	program := tea.NewProgram(ui, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	// Quitting mid-focus keeps the partial session.
	machine.End(ctx)
	return nil
}

// settingsReader is the part of the store the flag resolution needs.
type settingsReader interface {
	Setting(ctx context.Context, key string) (string, bool, error)
}

// resolveDurations applies flag > saved setting > config file > default.
func resolveDurations(ctx context.Context, cmd *cobra.Command, st settingsReader, cfg config.TimerConfig) (model.Durations, error) {
	focus, err := resolveSeconds(ctx, cmd, st, "focus", timerFocus, model.SettingFocusSeconds, cfg.Focus)
	if err != nil {
		return model.Durations{}, err
	}
	short, err := resolveSeconds(ctx, cmd, st, "short-break", timerShortBreak, model.SettingShortBreakSeconds, cfg.ShortBreak)
	if err != nil {
		return model.Durations{}, err
	}
	long, err := resolveSeconds(ctx, cmd, st, "long-break", timerLongBreak, model.SettingLongBreakSeconds, cfg.LongBreak)
	if err != nil {
		return model.Durations{}, err
	}
	d := model.Durations{Focus: focus, ShortBreak: short, LongBreak: long}
	if err := d.Validate(); err != nil {
		return model.Durations{}, err
	}
	return d, nil
}

func resolveSeconds(ctx context.Context, cmd *cobra.Command, st settingsReader, flag string, minutes int, key string, fileMinutes *int) (int, error) {
	if cmd.Flags().Changed(flag) {
		return minutes * 60, nil
	}
	value, ok, err := st.Setting(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n, nil
		}
		logErrf("ignoring invalid saved %s %q\n", key, value)
	}
	if fileMinutes != nil {
		return *fileMinutes * 60, nil
	}
	return minutes * 60, nil
}

// currentScope returns the session scope and a display label.
func currentScope(ctx context.Context, st settingsReader) (string, string, error) {
	if id := strings.TrimSpace(userOverride); id != "" {
		return model.UserScope(id), id, nil
	}
	id, ok, err := st.Setting(ctx, model.SettingCurrentUser)
	if err != nil {
		return "", "", fmt.Errorf("failed to read current user: %w", err)
	}
	if !ok || id == "" {
		return model.GuestScope, model.GuestScope, nil
	}
	label := id
	if email, ok, err := st.Setting(ctx, model.SettingCurrentEmail); err == nil && ok && email != "" {
		label = email
	}
	return model.UserScope(id), label, nil
}

// buildRelay wires both providers from the environment. A provider without
// a key stays registered and answers with the upstream error reply.
func buildRelay(cfg config.ChatConfig, defaultProvider string, logger hclog.Logger) (*chat.Relay, error) {
	var offTopic chat.OffTopicFunc
	if cfg.Blocklist != nil && *cfg.Blocklist != "" {
		words, err := chat.LoadBlocklist(*cfg.Blocklist)
		if err != nil {
			return nil, fmt.Errorf("failed to load blocklist: %w", err)
		}
		offTopic = chat.KeywordFilter(words)
	}
	return chat.NewRelay(chat.Config{
		Providers: []chat.Provider{
			chat.NewOpenAI(os.Getenv("OPENAI_API_KEY"), config.StringOr(cfg.OpenAIModel, ""), config.StringOr(cfg.OpenAIBaseURL, "")),
			chat.NewGroq(os.Getenv("GROQ_API_KEY"), config.StringOr(cfg.GroqModel, ""), config.StringOr(cfg.GroqBaseURL, "")),
		},
		Default:  defaultProvider,
		OffTopic: offTopic,
		Logger:   logger,
	}), nil
}

// buildAsker returns nil when the tutor has neither a relay URL nor a key.
func buildAsker(cfg config.ChatConfig, provider, relayURL string) (chat.Asker, error) {
	if relayURL != "" {
		return chat.NewClient(relayURL), nil
	}
	if os.Getenv("OPENAI_API_KEY") == "" && os.Getenv("GROQ_API_KEY") == "" {
		return nil, nil
	}
	relay, err := buildRelay(cfg, provider, nil)
	if err != nil {
		return nil, err
	}
	return chat.LocalAsker{Relay: relay}, nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func validateTheme(theme string) error {
	switch theme {
	case "dark", "light":
		return nil
	default:
		return fmt.Errorf("--theme must be dark or light")
	}
}

func validateProvider(provider string) error {
	switch strings.ToLower(provider) {
	case chat.ProviderOpenAI, chat.ProviderGroq:
		return nil
	default:
		return fmt.Errorf("--provider must be %s or %s", chat.ProviderOpenAI, chat.ProviderGroq)
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
