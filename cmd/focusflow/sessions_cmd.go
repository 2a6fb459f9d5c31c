package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/stats"
)

var (
	sessionsLimit  int
	sessionsYes    bool
	sessionsOutput string

	sessionsExportFormat string
	sessionsImportFormat string
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect, clear, export or import recorded sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsListCmd,
	}
	listCmd.Flags().IntVar(&sessionsLimit, "limit", stats.RecentLimit, "number of sessions to show (0 = all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every session of the current user",
		Args:  cobra.NoArgs,
		RunE:  runSessionsClearCmd,
	}
	clearCmd.Flags().BoolVar(&sessionsYes, "yes", false, "do not ask for confirmation")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write sessions as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE:  runSessionsExportCmd,
	}
	exportCmd.Flags().StringVar(&sessionsExportFormat, "format", stats.FormatJSON, "json or yaml")
	exportCmd.Flags().StringVarP(&sessionsOutput, "output", "o", "", "output file (default: stdout)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Append sessions from a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsImportCmd,
	}
	importCmd.Flags().StringVar(&sessionsImportFormat, "format", "", "json or yaml (default: from file extension)")

	cmd.AddCommand(listCmd, clearCmd, exportCmd, importCmd)
	return cmd
}

func runSessionsListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()
	scope, _, err := currentScope(ctx, st)
	if err != nil {
		return err
	}
	sessions, err := st.LoadAll(ctx, scope)
	if err != nil {
		return err
	}
	return stats.RenderRecent(cmd.OutOrStdout(), stats.Recent(sessions, sessionsLimit))
}

func runSessionsClearCmd(cmd *cobra.Command, _ []string) error {
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
	if !sessionsYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete all sessions of %s?", label))
		if err != nil {
			return err
		}
		if !ok {
			logErrln("Aborted.")
			return nil
		}
	}
	n, err := st.ClearAll(ctx, scope)
	if err != nil {
		return err
	}
	logErrf("Deleted %d sessions.\n", n)
	return nil
}

func runSessionsExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := stats.NormalizeFormat(sessionsExportFormat)
	if err != nil {
		return err
	}
	if format == stats.FormatText {
		return fmt.Errorf("--format must be json or yaml")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()
	scope, _, err := currentScope(ctx, st)
	if err != nil {
		return err
	}
	sessions, err := st.LoadAll(ctx, scope)
	if err != nil {
		return err
	}
	if sessionsOutput == "" {
		return stats.Encode(cmd.OutOrStdout(), format, sessions)
	}
	if err := writeFileAtomic(sessionsOutput, func(w io.Writer) error {
		return stats.Encode(w, format, sessions)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", sessionsOutput, err)
	}
	logErrf("Wrote %d sessions to %s\n", len(sessions), sessionsOutput)
	return nil
}

func runSessionsImportCmd(_ *cobra.Command, args []string) error {
	path := args[0]
	format := sessionsImportFormat
	if format == "" {
		format = formatFromExt(path)
	}
	format, err := stats.NormalizeFormat(format)
	if err != nil {
		return err
	}
	if format == stats.FormatText {
		return fmt.Errorf("--format must be json or yaml")
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only import.
			_ = cerr
		}
	}()
	sessions, err := stats.DecodeSessions(file, format)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()
	scope, _, err := currentScope(ctx, st)
	if err != nil {
		return err
	}
	n, err := st.AppendAll(ctx, scope, sessions)
	if err != nil {
		return fmt.Errorf("failed to import sessions: %w", err)
	}
	if skipped := len(sessions) - n; skipped > 0 {
		logErrf("Skipped %d invalid records.\n", skipped)
	}
	logErrf("Imported %d sessions.\n", n)
	return nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return stats.FormatYAML
	default:
		return stats.FormatJSON
	}
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s [y/N] ", question); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// writeFileAtomic writes through a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "focusflow-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return os.Rename(tmpPath, path)
}
