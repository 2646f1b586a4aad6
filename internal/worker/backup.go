package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/resolutehq/resolute/internal/export"
	"github.com/resolutehq/resolute/internal/types"
)

// BackupSource provides the state captured into backup envelopes.
// This interface allows testing with mock implementations.
type BackupSource interface {
	Goals() []types.Goal
	Pending() []types.PendingInput
}

// BackupCoordinator periodically writes a backup envelope to a local
// directory. A failed write is logged and retried on the next cycle; the
// live state is unaffected.
type BackupCoordinator struct {
	source   BackupSource
	dir      string
	interval time.Duration
	now      func() time.Time
}

// NewBackupCoordinator creates a coordinator writing into dir.
func NewBackupCoordinator(source BackupSource, dir string, interval time.Duration) *BackupCoordinator {
	return &BackupCoordinator{
		source:   source,
		dir:      dir,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run starts the coordinator loop.
func (c *BackupCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup-coordinator",
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			if err := c.WriteBackup(); err != nil {
				slog.Warn("backup write failed",
					"component", "worker",
					"worker", "backup-coordinator",
					"error", err,
				)
			}
		}
	}
}

// WriteBackup captures the current state into a dated envelope file.
func (c *BackupCoordinator) WriteBackup() error {
	now := c.now()
	data, err := export.Backup(c.source.Goals(), c.source.Pending(), now)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("resolutions-backup-%s.json", now.Format("2006-01-02")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}

	slog.Info("backup written",
		"component", "worker",
		"worker", "backup-coordinator",
		"path", path,
	)
	return nil
}
