package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/product-forge/internal/config"
	"github.com/jonathan/product-forge/internal/llm"
	"github.com/jonathan/product-forge/internal/observability"
	"github.com/jonathan/product-forge/internal/quality"
	"github.com/jonathan/product-forge/internal/types"
)

var reviewCommand = &cobra.Command{
	Use:   "review",
	Short: "Run the quality gate on an existing product",
	Long: `Evaluates a stored product through the three-rater quality gate and the
bounded improve/retry loop, then prints the outcome. The stored product is
not modified; the improved artifact (if any) is printed for manual use.`,
	RunE: runReviewCmd,
}

var (
	reviewConfigPath  string
	reviewProductID   string
	reviewDatabaseURL string
	reviewAPIKey      string
	reviewVerbose     bool
)

func init() {
	reviewCommand.Flags().StringVar(&reviewConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	reviewCommand.Flags().StringVar(&reviewProductID, "product", "", "Product UUID to review (required)")
	reviewCommand.Flags().StringVar(&reviewDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	reviewCommand.Flags().StringVar(&reviewAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	reviewCommand.Flags().BoolVarP(&reviewVerbose, "verbose", "v", false, "Print detailed debug information")

	_ = reviewCommand.MarkFlagRequired("product")

	rootCmd.AddCommand(reviewCommand)
}

func runReviewCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	productID, err := uuid.Parse(reviewProductID)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", reviewProductID, err)
	}

	cfg, err := loadMergedConfig(reviewConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("db-url") {
			cfg.DatabaseURL = reviewDatabaseURL
		}
		if cmd.Flags().Changed("api-key") {
			cfg.APIKey = reviewAPIKey
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = reviewVerbose
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

	product, err := database.GetProductByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return fmt.Errorf("product %s not found", productID)
	}

	gate, err := quality.NewGate(quality.DefaultRaters(client), sink, cfg.CallTimeout())
	if err != nil {
		return err
	}
	workflow := quality.NewWorkflow(gate, quality.NewLLMImprover(client, llm.TierStandard), sink, quality.WorkflowOptions{
		MaxRetries:  cfg.MaxRetries,
		CallTimeout: cfg.CallTimeout(),
	})

	artifact, err := productArtifact(product)
	if err != nil {
		return err
	}

	fmt.Printf("Reviewing product %q (%s)...\n", product.Title, product.ID)
	outcome, err := workflow.Run(ctx, artifact, productRequirements(ctx, database, product, cfg.MinFeatures))
	if err != nil {
		return fmt.Errorf("quality workflow failed: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintQualityResult(outcome.Result)
	}
	printer.PrintOutcome(outcome)

	if !outcome.Approved || outcome.Retries == 0 {
		return nil
	}
	fmt.Println("\nImproved artifact:")
	fmt.Println(outcome.Artifact)
	return nil
}

// productArtifact renders a product as the JSON document the raters see.
func productArtifact(p *types.Product) (string, error) {
	doc := types.ProductDraft{
		Title:          p.Title,
		Description:    p.Description,
		Features:       p.Features,
		SuggestedPrice: p.SuggestedPrice,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode product artifact: %w", err)
	}
	return string(data), nil
}

// productRequirements reconstructs the requirements the product was
// generated against. The originating opportunity is best effort; the
// feature minimum always applies.
func productRequirements(ctx context.Context, store opportunityGetter, p *types.Product, minFeatures int) string {
	var sb strings.Builder
	if opp, err := store.GetOpportunityByID(ctx, p.OpportunityID); err == nil && opp != nil {
		sb.WriteString(fmt.Sprintf("Digital product for the %q niche (%s): %s\n", opp.Niche, opp.Type, opp.Description))
	}
	sb.WriteString(fmt.Sprintf("The product must include at least %d concrete features, a clear title, and a compelling description with a realistic price.", minFeatures))
	return sb.String()
}

type opportunityGetter interface {
	GetOpportunityByID(ctx context.Context, id uuid.UUID) (*types.Opportunity, error)
}
