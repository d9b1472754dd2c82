package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentrt/runtime/model"
)

func TestLastMatchingToolUseIDReturnsMostRecentMatch(t *testing.T) {
	blocks := []model.Block{
		{Type: model.BlockToolUse, ID: "first", Name: "generate_output"},
		{Type: model.BlockText, Text: "thinking..."},
		{Type: model.BlockToolUse, ID: "second", Name: "generate_output"},
		{Type: model.BlockToolUse, ID: "other", Name: "lookup"},
	}
	assert.Equal(t, "second", lastMatchingToolUseID(blocks, "generate_output"))
	assert.Equal(t, "other", lastMatchingToolUseID(blocks, "lookup"))
	assert.Equal(t, "", lastMatchingToolUseID(blocks, "missing"))
}

func TestAppendTurnsDoesNotMutateCallerSlice(t *testing.T) {
	base := []model.Message{{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: "hi"}}}}
	baseCopy := append([]model.Message(nil), base...)

	extended := appendTurns(base, model.Message{Role: model.RoleAssistant, Content: []model.Block{{Type: model.BlockText, Text: "hello"}}})

	assert.Len(t, extended, 2)
	assert.Equal(t, baseCopy, base)

	// Mutating the returned slice's backing array must not reach back into base.
	extended = append(extended, model.Message{Role: model.RoleUser})
	assert.Len(t, base, 1)
}
