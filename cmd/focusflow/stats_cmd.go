package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/stats"
	"github.com/verte-zerg/focusflow/internal/statsui"
)

const formatTUI = "tui"

var (
	statsFormat string
	statsWidth  int
	statsColor  bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show study stats, XP and badges",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsFormat, "format", formatTUI, "output format (tui, text, json or yaml)")
	cmd.Flags().IntVar(&statsWidth, "width", 0, "chart width for text output (default: terminal width)")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored text output")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	scope, label, err := currentScope(ctx, st)
	if err != nil {
		return err
	}

	if strings.EqualFold(strings.TrimSpace(statsFormat), formatTUI) {
		ui := statsui.NewModel(st, scope, label)
		program := tea.NewProgram(ui, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	format, err := stats.NormalizeFormat(statsFormat)
	if err != nil {
		return err
	}
	report, err := stats.BuildReport(ctx, st, scope, time.Now())
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	if format == stats.FormatText {
		return stats.RenderReport(out, report, stats.RenderOptions{Width: statsWidth, ForceColor: statsColor})
	}
	return stats.Encode(out, format, report)
}
