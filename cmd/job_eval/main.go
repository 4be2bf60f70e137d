// Package main provides the entry point for the job evaluation CLI and
// HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_eval",
	Short: "AI-assisted job evaluation and description tooling",
	Long:  "job_eval compares position description versions, gauges whether changes warrant re-evaluation against a 17-level grading matrix, recommends classification levels, and generates new job descriptions via multiple LLM providers.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
