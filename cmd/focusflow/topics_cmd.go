package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/topics"
)

var topicsYes bool

func newTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List and edit study topics",
		Args:  cobra.NoArgs,
		RunE:  runTopicsListCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List topics; the selected one is marked with *",
		Args:  cobra.NoArgs,
		RunE:  runTopicsListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a topic and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withRegistry(func(ctx context.Context, reg *topics.Registry) error {
				return reg.Add(ctx, args[0])
			})
		},
	})
	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a topic; recorded sessions are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !topicsYes {
				ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Remove topic %q?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					logErrln("Aborted.")
					return nil
				}
			}
			return withRegistry(func(ctx context.Context, reg *topics.Registry) error {
				return reg.Remove(ctx, args[0])
			})
		},
	}
	removeCmd.Flags().BoolVar(&topicsYes, "yes", false, "do not ask for confirmation")
	cmd.AddCommand(removeCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "select <name>",
		Short: "Make a topic current",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withRegistry(func(ctx context.Context, reg *topics.Registry) error {
				return reg.Select(ctx, args[0])
			})
		},
	})
	return cmd
}

func runTopicsListCmd(cmd *cobra.Command, _ []string) error {
	return withRegistry(func(_ context.Context, reg *topics.Registry) error {
		selected := reg.Selected()
		for _, name := range reg.List() {
			marker := " "
			if name == selected {
				marker = "*"
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	})
}

// withRegistry opens the store and topic registry for one CLI action.
// The timer never runs inside a CLI process, so edits are always allowed.
func withRegistry(fn func(ctx context.Context, reg *topics.Registry) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := context.Background()
	reg, err := topics.Open(ctx, st, nil)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	return fn(ctx, reg)
}
