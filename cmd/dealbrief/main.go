// Package main provides the entry point for the Deal Brief API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dealbrief",
	Short: "Deal Brief extraction service",
	Long:  "Deal Brief ingests free-form deal-memo text, deduplicates it by content, and extracts structured venture-deal fields through an LLM pipeline with live status streaming.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
