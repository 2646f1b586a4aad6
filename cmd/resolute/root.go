package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/resolutehq/resolute/internal/api"
	"github.com/resolutehq/resolute/internal/classifier"
	"github.com/resolutehq/resolute/internal/config"
	"github.com/resolutehq/resolute/internal/queue"
	"github.com/resolutehq/resolute/internal/session"
	"github.com/resolutehq/resolute/internal/storage"
	"github.com/resolutehq/resolute/internal/store"
	"github.com/resolutehq/resolute/internal/types"
	"github.com/resolutehq/resolute/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "resolute",
	Short: "Resolute - Resolution Tracking Service",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and RESOLUTE_DB_PATH)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration (.env is optional, for local development)
	_ = godotenv.Load()
	if dbPathOverride != "" {
		os.Setenv("RESOLUTE_DB_PATH", dbPathOverride)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded")

	// 4. Initialize storage and load persisted state
	blobs, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("storage initialized", "path", cfg.Database.Path)

	goals := store.New(blobs)
	if err := goals.Load(ctx); err != nil {
		return err
	}
	pending := queue.New(blobs)
	if err := pending.Load(ctx); err != nil {
		return err
	}
	slog.Info("state loaded", "goals", goals.Count(), "pending_inputs", pending.Len())

	// 5. Initialize classifier gateway and session
	intents := classifier.NewOpenAI(cfg.Classifier.APIKey, cfg.Classifier.Model)
	slog.Info("classifier initialized", "model", cfg.Classifier.Model)

	sess := session.New(goals, intents, pending)

	// 6. Initialize HTTP router
	handler := api.NewHandler(sess, goals, pending, intents, cfg.Auth.APIKey, Version)
	router := api.NewRouter(handler)

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 8. Start background workers. The connectivity coordinator probes
	// immediately, which also replays any queue reloaded from disk.
	var wg sync.WaitGroup

	connectivity := worker.NewConnectivityCoordinator(
		sess,
		worker.NewHTTPProber(cfg.Worker.ProbeURL),
		time.Duration(cfg.Worker.ProbeInterval),
	)
	startWorker(ctx, &wg, "connectivity", connectivity.Run)

	backups := worker.NewBackupCoordinator(
		&stateSource{goals: goals, pending: pending},
		cfg.Worker.BackupPath,
		time.Duration(cfg.Worker.BackupInterval),
	)
	startWorker(ctx, &wg, "backup", backups.Run)

	// 9. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully; anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 10. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 11. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := goals.Save(shutdownCtx); err != nil {
		slog.Error("final state save error", "error", err)
	}
	if err := blobs.Close(); err != nil {
		slog.Error("storage close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// stateSource adapts the goal store and pending queue to the backup worker.
type stateSource struct {
	goals   *store.GoalStore
	pending *queue.Pending
}

func (s *stateSource) Goals() []types.Goal           { return s.goals.Snapshot() }
func (s *stateSource) Pending() []types.PendingInput { return s.pending.Items() }

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Debug("starting worker", "worker", name)
		fn(ctx)
	}()
}
