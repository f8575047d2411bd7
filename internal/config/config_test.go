package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"database_url": "postgres://localhost/factory",
		"trend_threshold": 85,
		"max_retries": 1,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/factory", cfg.DatabaseURL)
	assert.Equal(t, 85, cfg.TrendThreshold)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.True(t, cfg.Verbose)
	assert.Zero(t, cfg.MinFeatures, "unset fields stay zero until merged")
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "Empty path", path: ""},
		{name: "Missing file", path: "/nonexistent/config.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			assert.Error(t, err)
		})
	}

	t.Run("Malformed JSON", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, `{"trend_threshold": `))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "Defaults are valid", cfg: Defaults(), wantErr: false},
		{name: "Zero config is valid", cfg: Config{}, wantErr: false},
		{name: "Negative queue rejected", cfg: Config{MaxOpportunityQueue: -1}, wantErr: true},
		{name: "Threshold above 100 rejected", cfg: Config{TrendThreshold: 101}, wantErr: true},
		{name: "Negative retries rejected", cfg: Config{MaxRetries: -2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{TrendThreshold: 90, APIKey: "key-from-file"}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 90, merged.TrendThreshold, "explicit values win")
	assert.Equal(t, "key-from-file", merged.APIKey)
	assert.Equal(t, 10, merged.MaxOpportunityQueue)
	assert.Equal(t, 3, merged.MinFeatures)
	assert.Equal(t, 2, merged.MaxRetries)
	assert.Equal(t, 60, merged.IntervalMinutes)
}

func TestMergeWithDefaults_ZeroSnapsToDefault(t *testing.T) {
	// An explicit zero in the file cannot be told apart from an absent
	// key, so it takes the default.
	cfg := Config{TrendThreshold: 0, MaxRetries: 0}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 70, merged.TrendThreshold)
	assert.Equal(t, 2, merged.MaxRetries)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Config{CallTimeoutSeconds: 30, IntervalMinutes: 15}
	assert.Equal(t, 30*time.Second, cfg.CallTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Interval())
}
