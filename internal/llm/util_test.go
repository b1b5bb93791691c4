package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"generic fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with language id", "```javascript\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
		{"fence containing backticks in body", "```json\n{\"a\":\"x\"}\n```", `{"a":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestConfig_GetModelFallback(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{TierLite: "gemini-2.5-flash-lite"}}
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierAdvanced))

	cfg = DefaultConfig()
	assert.Equal(t, "gemini-2.5-pro", cfg.GetModel(TierAdvanced))
}
