package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/resolutehq/resolute/internal/analytics"
	"github.com/resolutehq/resolute/internal/export"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the goal set",
	Long:  "Export all goals (and, for JSON, the computed analytics report) to stdout without running the server.",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json",
		"Export format: json, csv")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	state, err := openLocalState(ctx)
	if err != nil {
		return err
	}
	defer state.Close()

	now := time.Now().UTC()
	goals := state.goals.Snapshot()

	switch exportFormat {
	case "json":
		data, err := export.JSON(goals, analytics.Analyze(goals, now), now)
		if err != nil {
			return err
		}
		cmd.Println(string(data))
	case "csv":
		cmd.Print(string(export.CSV(goals)))
	default:
		return fmt.Errorf("unknown export format %q", exportFormat)
	}

	return nil
}
