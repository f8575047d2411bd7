package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/product-forge/internal/config"
	"github.com/jonathan/product-forge/internal/db"
	"github.com/jonathan/product-forge/internal/observability"
	"github.com/jonathan/product-forge/internal/types"
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Print per-status entity counts",
	RunE:  runStatusCmd,
}

var (
	statusConfigPath  string
	statusDatabaseURL string
)

func init() {
	statusCommand.Flags().StringVar(&statusConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	statusCommand.Flags().StringVar(&statusDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(statusCommand)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(statusConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = statusDatabaseURL
		}
	})
	if err != nil {
		return err
	}
	if err := resolveConnections(&cfg, false); err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	report := &observability.StatusReport{}

	for _, status := range []types.OpportunityStatus{
		types.OpportunityDiscovered, types.OpportunityInProgress, types.OpportunityCompleted, types.OpportunityFailed,
	} {
		count, err := database.CountOpportunitiesByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to count opportunities: %w", err)
		}
		report.Opportunities = append(report.Opportunities, observability.StatusCount{Status: string(status), Count: count})
	}

	for _, status := range []types.ProductStatus{
		types.ProductCreated, types.ProductListing, types.ProductListed, types.ProductStatusDraft, types.ProductFailed,
	} {
		count, err := database.CountProductsByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		report.Products = append(report.Products, observability.StatusCount{Status: string(status), Count: count})
	}

	for _, status := range []types.ListingStatus{
		types.ListingDraft, types.ListingPublished, types.ListingFailed,
	} {
		count, err := database.CountListingsByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to count listings: %w", err)
		}
		report.Listings = append(report.Listings, observability.StatusCount{Status: string(status), Count: count})
	}

	observability.NewPrinter(os.Stdout).PrintStatusReport(report)
	return nil
}
