package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/product-forge/internal/config"
	"github.com/jonathan/product-forge/internal/creation"
	"github.com/jonathan/product-forge/internal/discovery"
	"github.com/jonathan/product-forge/internal/listing"
	"github.com/jonathan/product-forge/internal/observability"
	"github.com/jonathan/product-forge/internal/pipeline"
)

var cycleCommand = &cobra.Command{
	Use:   "cycle",
	Short: "Run the discovery -> creation -> listing pipeline",
	Long: `Runs one full factory cycle: discover product opportunities, turn the
oldest discovered opportunities into products, and list created products.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runCycleCmd,
}

var (
	cycleConfigPath  string
	cycleContinuous  bool
	cycleInterval    int
	cycleDatabaseURL string
	cycleAPIKey      string
	cycleVerbose     bool
	cycleSeed        int64
)

func init() {
	cycleCommand.Flags().StringVar(&cycleConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cycleCommand.Flags().BoolVar(&cycleContinuous, "continuous", false, "Run continuously on a fixed interval instead of once")
	cycleCommand.Flags().IntVar(&cycleInterval, "interval", 60, "Minutes between cycles in continuous mode")
	cycleCommand.Flags().StringVar(&cycleDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cycleCommand.Flags().StringVar(&cycleAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	cycleCommand.Flags().BoolVarP(&cycleVerbose, "verbose", "v", false, "Print detailed debug information")
	cycleCommand.Flags().Int64Var(&cycleSeed, "seed", 0, "Discovery sampling seed (0 uses the current time)")

	rootCmd.AddCommand(cycleCommand)
}

func runCycleCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadMergedConfig(cycleConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("interval") {
			cfg.IntervalMinutes = cycleInterval
		}
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = cycleDatabaseURL
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey = cycleAPIKey
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = cycleVerbose
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = cycleSeed
		}
	})
	if err != nil {
		return err
	}
	if err := resolveConnections(&cfg, true); err != nil {
		return err
	}

	database, client, sink, err := connectAll(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	defer client.Close()

	discoverer := discovery.New(database, client, sink, discovery.Options{
		MaxQueue:       cfg.MaxOpportunityQueue,
		ItemsPerCycle:  cfg.ItemsPerCycle,
		TrendThreshold: cfg.TrendThreshold,
		CallTimeout:    cfg.CallTimeout(),
		Seed:           cfg.Seed,
	})
	creator := creation.New(database, client, sink, creation.Options{
		MaxQueue:      cfg.MaxProductQueue,
		ItemsPerCycle: cfg.ItemsPerCycle,
		MinFeatures:   cfg.MinFeatures,
		CallTimeout:   cfg.CallTimeout(),
	})
	lister := listing.New(database, client, nil, sink, listing.Options{
		ItemsPerCycle: cfg.ItemsPerCycle,
		CallTimeout:   cfg.CallTimeout(),
	})

	orchestrator := pipeline.NewOrchestrator([]pipeline.Stage{discoverer, creator, lister}, sink)
	printer := observability.NewPrinter(os.Stdout)

	if !cycleContinuous {
		summary := orchestrator.RunCycle(ctx)
		printer.PrintCycleSummary(&summary)
		return nil
	}

	fmt.Printf("Starting continuous mode (every %d minutes). Press Ctrl+C to stop.\n", cfg.IntervalMinutes)
	err = orchestrator.RunContinuous(ctx, cfg.Interval(), func(summary pipeline.Summary) {
		printer.PrintCycleSummary(&summary)
	})
	if errors.Is(err, context.Canceled) {
		fmt.Println("Shutdown requested, stopping factory.")
		return nil
	}
	return err
}
