package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain JSON untouched",
			input:    `{"score": 85}`,
			expected: `{"score": 85}`,
		},
		{
			name:     "json fenced block",
			input:    "```json\n{\"score\": 85}\n```",
			expected: `{"score": 85}`,
		},
		{
			name:     "Generic fenced block",
			input:    "```\n{\"score\": 85}\n```",
			expected: `{"score": 85}`,
		},
		{
			name:     "Surrounding whitespace",
			input:    "  \n{\"score\": 85}\n  ",
			expected: `{"score": 85}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestDecodeJSON_Success(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	err := DecodeJSON("```json\n{\"score\": 92}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, 92, out.Score)
}

func TestDecodeJSON_MalformedReturnsParseError(t *testing.T) {
	var out map[string]any
	err := DecodeJSON("not json at all", &out)
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Content, "not json")
}
