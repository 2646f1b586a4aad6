package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/resolutehq/resolute/internal/export"
)

var backupOut string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a backup envelope",
	Long:  "Capture all goals and the pending input queue into a backup envelope file.",
	RunE:  runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupOut, "out", "",
		"Output path (default: resolutions-backup-<date>.json)")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	state, err := openLocalState(ctx)
	if err != nil {
		return err
	}
	defer state.Close()

	now := time.Now().UTC()
	data, err := export.Backup(state.goals.Snapshot(), state.pending.Items(), now)
	if err != nil {
		return err
	}

	out := backupOut
	if out == "" {
		out = fmt.Sprintf("resolutions-backup-%s.json", now.Format("2006-01-02"))
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	cmd.Printf("Backup written to %s (%d goals, %d pending inputs)\n",
		out, state.goals.Count(), state.pending.Len())
	return nil
}
