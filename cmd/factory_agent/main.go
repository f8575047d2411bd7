// Package main provides the entry point for the product factory CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "factory_agent",
	Short: "Automated digital product factory",
	Long:  "factory_agent discovers product opportunities, generates product drafts, and lists them on a marketplace in a staged pipeline with quality gating.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
