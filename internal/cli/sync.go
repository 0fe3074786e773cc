package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"finboard/internal/storage"
	"finboard/internal/worker"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Drain the local capture queue to the backend",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, client, err := loadSetup()
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open capture store: %w", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	pending, err := repo.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending: %w", err)
	}
	if pending == 0 {
		fmt.Println("Nothing to sync.")
		return nil
	}
	fmt.Printf("Syncing %d pending expense(s)...\n", pending)

	w := worker.NewSyncWorker(repo, client, cfg.SyncBatchSize)
	if err := w.StartupSyncCheck(ctx); err != nil {
		return fmt.Errorf("sync pending: %w", err)
	}

	remaining, err := repo.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending: %w", err)
	}
	fmt.Printf("Done. %d expense(s) still pending.\n", remaining)
	return nil
}
