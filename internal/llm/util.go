// Package llm - util.go provides shared utilities for generator response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// Models often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// DecodeJSON cleans and unmarshals a generator JSON response into v.
// Failures are reported as *ParseError so callers can treat malformed
// output as an ordinary per-item failure.
func DecodeJSON(raw string, v any) error {
	cleaned := CleanJSONBlock(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Message: "failed to decode generator response", Content: cleaned, Cause: err}
	}
	return nil
}
