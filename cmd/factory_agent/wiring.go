package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/product-forge/internal/config"
	"github.com/jonathan/product-forge/internal/db"
	"github.com/jonathan/product-forge/internal/events"
	"github.com/jonathan/product-forge/internal/llm"
)

// resolveConnections fills connection settings from the environment and
// checks the required ones are present. Called after config file values
// and flag overrides are merged.
func resolveConnections(cfg *config.Config, needAPIKey bool) error {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if needAPIKey && cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	return nil
}

// connectAll opens the repository and generator clients. Any failure here
// is fatal: no stage may run without both collaborators.
func connectAll(ctx context.Context, cfg config.Config) (*db.DB, llm.Client, events.Sink, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, nil, nil, fmt.Errorf("failed to create generator client: %w", err)
	}

	return database, client, events.NewActionLogSink(database), nil
}

// loadMergedConfig loads the optional config file, applies the given
// overrides, and merges in defaults.
func loadMergedConfig(path string, apply func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}

	if apply != nil {
		apply(&cfg)
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}
