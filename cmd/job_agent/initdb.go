package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-pipeline/internal/store"
)

var initDBCommand = &cobra.Command{
	Use:   "init-db",
	Short: "Create the job records table and indexes",
	RunE:  runInitDB,
}

var (
	initDBConfigPath  string
	initDBDatabaseURL string
)

func init() {
	initDBCommand.Flags().StringVar(&initDBConfigPath, "config", "", "Path to config.json file")
	initDBCommand.Flags().StringVar(&initDBDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(initDBCommand)
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	dbURL, err := resolveDatabaseURL(initDBConfigPath, initDBDatabaseURL)
	if err != nil {
		return err
	}

	st, err := store.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	if err := st.InitSchema(ctx); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	fmt.Println("Database schema initialized.")
	return nil
}
