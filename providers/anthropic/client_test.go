package anthropic

import (
	"context"
	"encoding/json"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrt/runtime/model"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func baseRequest() *model.Request {
	return &model.Request{
		Model:     "claude-opus-4",
		MaxTokens: 1024,
		System:    []model.Block{{Type: model.BlockText, Text: "You are a helpful assistant.", CacheControl: model.Ephemeral}},
		Messages: []model.Message{
			{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: "hello", CacheControl: model.Ephemeral}}},
		},
	}
}

func TestCompleteTextOnly(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			ID: "msg_1",
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "hi there"},
			},
			StopReason: sdk.StopReasonEndTurn,
			Usage:      sdk.Usage{InputTokens: 10, OutputTokens: 5},
		},
	}
	cl, err := New(stub)
	require.NoError(t, err)

	resp, err := cl.Complete(context.Background(), baseRequest())
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, model.BlockText, resp.Content[0].Type)
	assert.Equal(t, "hi there", resp.Content[0].Text)
	assert.Equal(t, model.StopEndTurn, resp.StopReason)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	assert.Equal(t, 5, resp.Usage.OutputTokens)

	require.Len(t, stub.lastParams.System, 1)
	assert.NotNil(t, stub.lastParams.System[0].CacheControl)
}

func TestCompleteToolUse(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{
			ID: "msg_2",
			Content: []sdk.ContentBlockUnion{
				{Type: "tool_use", ID: "toolu_1", Name: "lookup", Input: json.RawMessage(`{"query":"x"}`)},
			},
			StopReason: sdk.StopReasonToolUse,
		},
	}
	cl, err := New(stub)
	require.NoError(t, err)

	req := baseRequest()
	req.Tools = []model.ToolDefinition{
		{Name: "lookup", Description: "looks things up", InputSchema: json.RawMessage(`{"type":"object"}`)},
	}

	resp, err := cl.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, model.BlockToolUse, resp.Content[0].Type)
	assert.Equal(t, "lookup", resp.Content[0].Name)
	assert.Equal(t, model.StopToolUse, resp.StopReason)
	require.Len(t, stub.lastParams.Tools, 1)
}

func TestCompleteToolResultTurn(t *testing.T) {
	stub := &stubMessagesClient{
		resp: &sdk.Message{ID: "msg_3", StopReason: sdk.StopReasonEndTurn},
	}
	cl, err := New(stub)
	require.NoError(t, err)

	req := baseRequest()
	req.Messages = append(req.Messages,
		model.Message{Role: model.RoleAssistant, Content: []model.Block{
			{Type: model.BlockToolUse, ID: "toolu_1", Name: "lookup", Input: json.RawMessage(`{}`)},
		}},
		model.Message{Role: model.RoleUser, Content: []model.Block{
			{Type: model.BlockToolResult, ToolUseID: "toolu_1", Content: "result text"},
		}},
	)

	_, err = cl.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, stub.lastParams.Messages, 3)
}

func TestCompleteRequiresMessages(t *testing.T) {
	stub := &stubMessagesClient{}
	cl, err := New(stub)
	require.NoError(t, err)

	req := baseRequest()
	req.Messages = nil
	_, err = cl.Complete(context.Background(), req)
	assert.Error(t, err)
}

func TestCompletePropagatesTransportError(t *testing.T) {
	stub := &stubMessagesClient{err: assertErr("rate limited")}
	cl, err := New(stub)
	require.NoError(t, err)

	_, err = cl.Complete(context.Background(), baseRequest())
	assert.Error(t, err)
}

func TestNewRejectsNilClient(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
