package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resolutehq/resolute/internal/export"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore from a backup envelope",
	Long:  "Replace all goals and the pending input queue with the contents of a backup envelope. Invalid envelopes are rejected without touching current state.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	envelope, err := export.ParseBackup(data)
	if err != nil {
		return err
	}

	state, err := openLocalState(ctx)
	if err != nil {
		return err
	}
	defer state.Close()

	if err := state.goals.ReplaceAll(ctx, envelope.Resolutions); err != nil {
		return err
	}
	if err := state.pending.ReplaceAll(ctx, envelope.PendingUpdates); err != nil {
		return err
	}

	cmd.Printf("Restored %d goals and %d pending inputs from backup created %s\n",
		len(envelope.Resolutions), len(envelope.PendingUpdates),
		envelope.CreatedAt.Format("2006-01-02"))
	return nil
}
