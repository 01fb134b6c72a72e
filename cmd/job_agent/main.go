// Package main provides the entry point for the job application pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_agent",
	Short: "Job application pipeline",
	Long: "job_agent scrapes job board listings, scores each posting against a base\n" +
		"resume, and generates one-page tailored resumes, tracking every posting\n" +
		"through a per-record status workflow stored in Postgres.",

	// Run errors are pipeline failures, not usage mistakes, and main
	// already reports them once.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Pick up GEMINI_API_KEY and DATABASE_URL from .env when present.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
