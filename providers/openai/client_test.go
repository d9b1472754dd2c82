package openai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrt/runtime/model"
)

type stubCompletionsClient struct {
	lastParams openai.ChatCompletionNewParams
	resp       *openai.ChatCompletion
	err        error
}

func (s *stubCompletionsClient) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.lastParams = body
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func baseRequest() *model.Request {
	return &model.Request{
		Model:     "gpt-4.1",
		MaxTokens: 1024,
		System:    []model.Block{{Type: model.BlockText, Text: "You are a helpful assistant."}},
		Messages: []model.Message{
			{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: "hello"}}},
		},
	}
}

func TestCompleteTextOnly(t *testing.T) {
	stub := &stubCompletionsClient{
		resp: &openai.ChatCompletion{
			ID: "chatcmpl_1",
			Choices: []openai.ChatCompletionChoice{
				{FinishReason: "stop", Message: openai.ChatCompletionMessage{Content: "hi there"}},
			},
			Usage: openai.CompletionUsage{PromptTokens: 12, CompletionTokens: 4},
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
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 4, resp.Usage.OutputTokens)

	require.NotEmpty(t, stub.lastParams.Messages)
}

func TestCompleteToolCall(t *testing.T) {
	stub := &stubCompletionsClient{
		resp: &openai.ChatCompletion{
			ID: "chatcmpl_2",
			Choices: []openai.ChatCompletionChoice{
				{
					FinishReason: "tool_calls",
					Message: openai.ChatCompletionMessage{
						ToolCalls: []openai.ChatCompletionMessageToolCall{
							{
								ID: "call_1",
								Function: openai.ChatCompletionMessageToolCallFunction{
									Name:      "lookup",
									Arguments: `{"query":"x"}`,
								},
							},
						},
					},
				},
			},
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

func TestCompleteRequiresMessages(t *testing.T) {
	stub := &stubCompletionsClient{}
	cl, err := New(stub)
	require.NoError(t, err)

	req := baseRequest()
	req.Messages = nil
	_, err = cl.Complete(context.Background(), req)
	assert.Error(t, err)
}

func TestCompletePropagatesTransportError(t *testing.T) {
	stub := &stubCompletionsClient{err: assertErr("rate limited")}
	cl, err := New(stub)
	require.NoError(t, err)

	_, err = cl.Complete(context.Background(), baseRequest())
	assert.Error(t, err)
}

func TestNewRejectsNilClient(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	stub := &stubCompletionsClient{resp: &openai.ChatCompletion{ID: "chatcmpl_3"}}
	cl, err := New(stub)
	require.NoError(t, err)

	_, err = cl.Complete(context.Background(), baseRequest())
	assert.Error(t, err)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
