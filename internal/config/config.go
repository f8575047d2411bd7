// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the immutable configuration injected into each stage and
// controller. All fields are optional in the JSON file; missing values use
// defaults or must be provided via CLI flags.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key

	// Queue thresholds (backpressure)
	MaxOpportunityQueue int `json:"max_opportunity_queue,omitempty" validate:"gte=0"` // pending discovered opportunities
	MaxProductQueue     int `json:"max_product_queue,omitempty" validate:"gte=0"`     // pending created products

	// Stage limits
	ItemsPerCycle      int `json:"items_per_cycle,omitempty" validate:"gte=0"`         // items each stage attempts per cycle
	TrendThreshold     int `json:"trend_threshold,omitempty" validate:"gte=0,lte=100"` // minimum trend score to keep a candidate
	MinFeatures        int `json:"min_features,omitempty" validate:"gte=0"`            // minimum features per product draft
	MaxRetries         int `json:"max_retries,omitempty" validate:"gte=0"`             // improvement cycles before rejection
	IntervalMinutes    int `json:"interval_minutes,omitempty" validate:"gte=0"`        // continuous mode cadence
	CallTimeoutSeconds int `json:"call_timeout_seconds,omitempty" validate:"gte=0"`    // per external call

	// Behavior
	Verbose bool  `json:"verbose,omitempty"` // Print detailed debug information
	Seed    int64 `json:"seed,omitempty"`    // Discovery sampling seed; 0 means time-based
}

// Defaults returns the configuration used when neither the config file nor
// the CLI flags set a value.
func Defaults() Config {
	return Config{
		MaxOpportunityQueue: 10,
		MaxProductQueue:     10,
		ItemsPerCycle:       3,
		TrendThreshold:      70,
		MinFeatures:         3,
		MaxRetries:          2,
		IntervalMinutes:     60,
		CallTimeoutSeconds:  120,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required fields
// are not checked here; those are handled by CLI flag validation after
// merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			first := fields[0]
			return fmt.Errorf("config error: %q fails %q validation", first.Field(), first.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled
// from defaults. This is used to apply config file values as defaults for
// CLI flags.
//
// A zero value in the file is indistinguishable from an absent key, so an
// explicit trend_threshold of 0 or max_retries of 0 snaps to the default.
// An effective zero is not expressible through the config file.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}

	// Int fields: use default if zero
	if result.MaxOpportunityQueue == 0 {
		result.MaxOpportunityQueue = defaults.MaxOpportunityQueue
	}
	if result.MaxProductQueue == 0 {
		result.MaxProductQueue = defaults.MaxProductQueue
	}
	if result.ItemsPerCycle == 0 {
		result.ItemsPerCycle = defaults.ItemsPerCycle
	}
	if result.TrendThreshold == 0 {
		result.TrendThreshold = defaults.TrendThreshold
	}
	if result.MinFeatures == 0 {
		result.MinFeatures = defaults.MinFeatures
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.IntervalMinutes == 0 {
		result.IntervalMinutes = defaults.IntervalMinutes
	}
	if result.CallTimeoutSeconds == 0 {
		result.CallTimeoutSeconds = defaults.CallTimeoutSeconds
	}
	if result.Seed == 0 {
		result.Seed = defaults.Seed
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// CallTimeout returns the per-call timeout as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// Interval returns the continuous mode cadence as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
