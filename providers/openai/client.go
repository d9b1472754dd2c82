// Package openai provides a model.Client implementation backed by the OpenAI
// Chat Completions API, translating the runtime's provider-agnostic
// model.Request/model.Response into github.com/openai/openai-go calls and
// back. It mirrors providers/anthropic in shape so the two adapters can be
// swapped behind the same model.Client contract.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/agentrt/runtime/model"
)

// CompletionsClient captures the subset of the OpenAI SDK client used by the
// adapter, satisfied by openai.Client's Chat.Completions service or a test
// stub.
type CompletionsClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Client implements model.Client on top of OpenAI Chat Completions.
//
// OpenAI has no first-class prompt-cache annotation the way Anthropic does
// (its prefix caching is automatic and unmarked), so model.Block.CacheControl
// is accepted but has no wire effect here; the runtime's cache discipline
// (spec §4.7) still applies the marker uniformly across providers, it is
// simply a no-op for this adapter.
type Client struct {
	completions CompletionsClient
	model       string
}

// New builds an OpenAI-backed model client from a Chat Completions client.
func New(completions CompletionsClient) (*Client, error) {
	if completions == nil {
		return nil, errors.New("openai: completions client is required")
	}
	return &Client{completions: completions}, nil
}

// NewFromAPIKey constructs a client using the default OpenAI HTTP client,
// authenticated with apiKey.
func NewFromAPIKey(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	oc := openai.NewClient(option.WithAPIKey(apiKey))
	return New(&oc.Chat.Completions)
}

// Complete issues a non-streaming Chat Completions request and translates
// the response into the runtime's model.Response shape (spec §6).
func (c *Client) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	params, err := prepareRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.completions.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("openai chat.completions.new: %w", err)
	}
	return translateResponse(resp)
}

func prepareRequest(req *model.Request) (*openai.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("openai: messages are required")
	}
	if req.Model == "" {
		return nil, errors.New("openai: model identifier is required")
	}
	if req.MaxTokens <= 0 {
		return nil, errors.New("openai: max_tokens must be positive")
	}

	messages, err := encodeMessages(req.System, req.Messages)
	if err != nil {
		return nil, err
	}
	tools, err := encodeTools(req.Tools)
	if err != nil {
		return nil, err
	}

	params := &openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(req.Model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
	}
	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params, nil
}

func encodeMessages(system []model.Block, msgs []model.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	for _, b := range system {
		if b.Type != model.BlockText || b.Text == "" {
			continue
		}
		out = append(out, openai.SystemMessage(b.Text))
	}

	for _, m := range msgs {
		switch m.Role {
		case model.RoleUser:
			encoded, err := encodeUserTurn(m)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded...)
		case model.RoleAssistant:
			encoded, err := encodeAssistantTurn(m)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded)
		default:
			return nil, fmt.Errorf("openai: unsupported message role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("openai: at least one user/assistant message is required")
	}
	return out, nil
}

// encodeUserTurn splits a user turn into one message per block: plain text
// becomes a user message, tool_result blocks become separate tool messages,
// since the Chat Completions wire format has no single container for mixed
// content the way Anthropic's message blocks do.
func encodeUserTurn(m model.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	for _, b := range m.Content {
		switch b.Type {
		case model.BlockText:
			out = append(out, openai.UserMessage(b.Text))
		case model.BlockToolResult:
			out = append(out, openai.ToolMessage(b.Content, b.ToolUseID))
		default:
			return nil, fmt.Errorf("openai: unsupported user block type %q", b.Type)
		}
	}
	return out, nil
}

func encodeAssistantTurn(m model.Message) (openai.ChatCompletionMessageParamUnion, error) {
	var text string
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, b := range m.Content {
		switch b.Type {
		case model.BlockText:
			text += b.Text
		case model.BlockToolUse:
			input := b.Input
			if len(input) == 0 {
				input = json.RawMessage("{}")
			}
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID: b.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      b.Name,
					Arguments: string(input),
				},
			})
		default:
			return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unsupported assistant block type %q", b.Type)
		}
	}
	asst := openai.AssistantMessage(text)
	if asst.OfAssistant != nil && len(calls) > 0 {
		asst.OfAssistant.ToolCalls = calls
	}
	return asst, nil
}

func encodeTools(defs []model.ToolDefinition) ([]openai.ChatCompletionToolParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		if def.Description == "" {
			return nil, fmt.Errorf("openai: tool %q is missing description", def.Name)
		}
		schema, err := toolParameters(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("openai: tool %q schema: %w", def.Name, err)
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        string(def.Name),
				Description: openai.String(def.Description),
				Parameters:  schema,
			},
		})
	}
	return out, nil
}

func toolParameters(raw json.RawMessage) (shared.FunctionParameters, error) {
	if len(raw) == 0 {
		return shared.FunctionParameters{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return shared.FunctionParameters(m), nil
}

func translateResponse(resp *openai.ChatCompletion) (*model.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	choice := resp.Choices[0]
	out := &model.Response{ID: resp.ID}

	if text := choice.Message.Content; text != "" {
		out.Content = append(out.Content, model.Block{Type: model.BlockText, Text: text})
	}
	for _, call := range choice.Message.ToolCalls {
		out.Content = append(out.Content, model.Block{
			Type:  model.BlockToolUse,
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: json.RawMessage(call.Function.Arguments),
		})
	}

	out.StopReason = translateFinishReason(choice.FinishReason)
	out.Usage = model.TokenUsage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if cached := resp.Usage.PromptTokensDetails.CachedTokens; cached > 0 {
		out.Usage.CacheReadTokens = int(cached)
	}
	return out, nil
}

func translateFinishReason(r string) model.StopReason {
	switch r {
	case "stop":
		return model.StopEndTurn
	case "length":
		return model.StopMaxTokens
	case "tool_calls":
		return model.StopToolUse
	default:
		return model.StopEndTurn
	}
}
