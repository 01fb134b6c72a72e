package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-pipeline/internal/config"
	"github.com/jonathan/job-pipeline/internal/observability"
	"github.com/jonathan/job-pipeline/internal/store"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show how many records sit in each workflow status",
	RunE:  runStatus,
}

var (
	statusConfigPath  string
	statusDatabaseURL string
)

func init() {
	statusCommand.Flags().StringVar(&statusConfigPath, "config", "", "Path to config.json file")
	statusCommand.Flags().StringVar(&statusDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(statusCommand)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	dbURL, err := resolveDatabaseURL(statusConfigPath, statusDatabaseURL)
	if err != nil {
		return err
	}

	st, err := store.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	counts, err := st.StatusCounts(ctx)
	if err != nil {
		return fmt.Errorf("counting statuses: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintStatusCounts(counts)
	return nil
}

// resolveDatabaseURL picks the connection URL from the flag, then the config
// file, then the DATABASE_URL environment variable.
func resolveDatabaseURL(configPath, flagURL string) (string, error) {
	if flagURL != "" {
		return flagURL, nil
	}
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.DatabaseURL != "" {
			return cfg.DatabaseURL, nil
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
}
