package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrt/runtime/model"
)

func TestApplyMarksSystemAndLastUserBlock(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: "hi"}}},
		{Role: model.RoleAssistant, Content: []model.Block{{Type: model.BlockText, Text: "hello"}}},
		{Role: model.RoleUser, Content: []model.Block{
			{Type: model.BlockText, Text: "first"},
			{Type: model.BlockToolResult, ToolUseID: "t1", Content: "{}"},
		}},
	}

	system, out := Apply("you are an agent", history)

	require.Len(t, system, 1)
	assert.Equal(t, model.Ephemeral, system[0].CacheControl)
	assert.Equal(t, "you are an agent", system[0].Text)

	lastUserContent := out[2].Content
	assert.Nil(t, lastUserContent[0].CacheControl)
	assert.Equal(t, model.Ephemeral, lastUserContent[1].CacheControl)

	for _, msg := range out {
		if msg.Role != model.RoleAssistant {
			continue
		}
		for _, b := range msg.Content {
			assert.Nil(t, b.CacheControl, "assistant blocks never receive cache markers")
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: "only turn"}}},
	}
	_, _ = Apply("sys", history)
	assert.Nil(t, history[0].Content[0].CacheControl, "original history must be untouched")
}

func TestApplyWithNoUserTurnStillReturnsSystemBlock(t *testing.T) {
	system, out := Apply("sys", nil)
	require.Len(t, system, 1)
	assert.Empty(t, out)
}
