package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/resolutehq/resolute/internal/config"
	"github.com/resolutehq/resolute/internal/queue"
	"github.com/resolutehq/resolute/internal/storage"
	"github.com/resolutehq/resolute/internal/store"
)

var dbPathOverride string

// localState bundles the store and queue opened directly against the
// database, for subcommands that run without the server.
type localState struct {
	blobs   *storage.SQLite
	goals   *store.GoalStore
	pending *queue.Pending
}

// openLocalState opens the configured database and loads the persisted goal
// set and pending queue. The --db flag overrides the configured path.
func openLocalState(ctx context.Context) (*localState, error) {
	_ = godotenv.Load()

	path := dbPathOverride
	if path == "" {
		// Subcommands run without the server and never call the classifier,
		// so skip the API key requirement.
		os.Setenv("RESOLUTE_DEV_MODE", "true")
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.Database.Path
	}

	blobs, err := storage.NewSQLite(path)
	if err != nil {
		return nil, err
	}

	goals := store.New(blobs)
	if err := goals.Load(ctx); err != nil {
		blobs.Close()
		return nil, err
	}

	pending := queue.New(blobs)
	if err := pending.Load(ctx); err != nil {
		blobs.Close()
		return nil, err
	}

	return &localState{blobs: blobs, goals: goals, pending: pending}, nil
}

// Close releases the underlying database.
func (s *localState) Close() error {
	return s.blobs.Close()
}
