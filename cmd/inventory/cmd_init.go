package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the inventory table",
	Long: `Create the inventory table (or database bucket) if it does not exist.

With the DynamoDB backend the command then waits for the table to become
active, up to store.wait.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// activeWaiter is implemented by backends whose schema is created asynchronously.
type activeWaiter interface {
	WaitUntilActive(ctx context.Context, maxWait time.Duration) error
}

func runInit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conn, closeFn, err := openConnector(ctx, nil)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := conn.Init(ctx); err != nil {
		return err
	}
	if w, ok := conn.(activeWaiter); ok {
		logger.Info("waiting for table", "table", cfg.Store.Table, "maxWait", cfg.Store.Wait)
		if err := w.WaitUntilActive(ctx, cfg.Store.Wait); err != nil {
			return err
		}
	}
	logger.Info("store initialized", "backend", cfg.Store.Backend)
	return nil
}
