package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacentio/inventory/internal/config"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "inventory",
		Short: "Cloud resource inventory",
		Long: `Inventory - cloud resource inventory

Inventory discovers cloud resources across accounts and regions, stores
them in a sharded DynamoDB table (or a local bbolt file) and reconciles
the stored set against what was observed.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

var (
	configPath   string
	outputFormat string

	backendFlag string
	tableFlag   string
	pathFlag    string

	cfg    *config.Config
	logger *slog.Logger
)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Inventory {{.Version}}
`)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (TOML)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatJSON, "Output format: json or yaml")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: dynamodb or bolt (overrides config)")
	rootCmd.PersistentFlags().StringVar(&tableFlag, "table", "", "DynamoDB table name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&pathFlag, "db", "", "bbolt database path (overrides config)")
}

// setup loads the configuration and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if configPath == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	applyFlagOverrides(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if outputFormat != formatJSON && outputFormat != formatYAML {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	level, _ := cfg.LogLevel()
	logger = newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)
	return nil
}

// applyFlagOverrides lets explicitly set flags win over file values.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Store.Backend = backendFlag
	}
	if flags.Changed("table") {
		cfg.Store.Table = tableFlag
	}
	if flags.Changed("db") {
		cfg.Store.Path = pathFlag
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
