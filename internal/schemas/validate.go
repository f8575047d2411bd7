// Package schemas provides JSON Schema validation for structured generator output.
// Schemas are embedded at compile time so validation never depends on the
// working directory.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Embedded schema names.
const (
	ProductDraftSchema = "product_draft.schema.json"
	ReviewSchema       = "review.schema.json"
	TrendScoreSchema   = "trend_score.schema.json"
)

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Validate checks a JSON document against one of the embedded schemas.
// Returns *ValidationError when the document is well-formed JSON but does
// not match the schema.
func Validate(schemaName, jsonContent string) error {
	schemaContent, err := schemaFiles.ReadFile(schemaName)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema %s: %w", schemaName, err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", schemaName, err)
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
