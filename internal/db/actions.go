package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// LogAction appends a row to the append-only action log. The log is
// observational; failures here must never break pipeline progress, so
// callers typically ignore the returned error.
func (db *DB) LogAction(ctx context.Context, source, event, status string, metadata map[string]any) error {
	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal action metadata: %w", err)
		}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO actions (source, event, status, metadata) VALUES ($1, $2, $3, $4)`,
		source, event, status, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}
	return nil
}
