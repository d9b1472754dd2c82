package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsageAddSumsFieldwise(t *testing.T) {
	a := TokenUsage{InputTokens: 10, OutputTokens: 5, CacheWriteTokens: 2, CacheReadTokens: 1}
	b := TokenUsage{InputTokens: 3, OutputTokens: 7, CacheWriteTokens: 0, CacheReadTokens: 4}

	sum := a.Add(b)

	assert.Equal(t, TokenUsage{InputTokens: 13, OutputTokens: 12, CacheWriteTokens: 2, CacheReadTokens: 5}, sum)
	// Add must not mutate either operand.
	assert.Equal(t, TokenUsage{InputTokens: 10, OutputTokens: 5, CacheWriteTokens: 2, CacheReadTokens: 1}, a)
}

func TestEphemeralCacheControlIsSharedSingleton(t *testing.T) {
	assert.Equal(t, "ephemeral", Ephemeral.Type)
}
