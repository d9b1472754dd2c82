// Package anthropic provides a model.Client implementation backed by the
// Anthropic Claude Messages API, translating the runtime's provider-agnostic
// model.Request/model.Response into github.com/anthropics/anthropic-sdk-go
// calls and back.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentrt/runtime/model"
)

// MessagesClient captures the subset of the Anthropic SDK client used by the
// adapter. It is satisfied by *sdk.MessageService so callers can pass either
// a real client or a test stub.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements model.Client on top of Anthropic Claude Messages.
type Client struct {
	msg MessagesClient
}

// New builds an Anthropic-backed model client from an Anthropic Messages
// client.
func New(msg MessagesClient) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	return &Client{msg: msg}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP
// client, authenticated with apiKey.
func NewFromAPIKey(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages)
}

// Complete issues a non-streaming Messages.New request and translates the
// response into the runtime's model.Response shape (spec §6).
func (c *Client) Complete(ctx context.Context, req *model.Request) (*model.Response, error) {
	params, err := prepareRequest(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateResponse(msg)
}

func prepareRequest(req *model.Request) (*sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	if req.Model == "" {
		return nil, errors.New("anthropic: model identifier is required")
	}
	if req.MaxTokens <= 0 {
		return nil, errors.New("anthropic: max_tokens must be positive")
	}

	system, err := encodeSystem(req.System)
	if err != nil {
		return nil, err
	}
	msgs, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	toolParams, err := encodeTools(req.Tools)
	if err != nil {
		return nil, err
	}

	params := &sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(toolParams) > 0 {
		params.Tools = toolParams
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	return params, nil
}

func encodeSystem(blocks []model.Block) ([]sdk.TextBlockParam, error) {
	out := make([]sdk.TextBlockParam, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != model.BlockText {
			continue
		}
		tb := sdk.TextBlockParam{Text: b.Text}
		if b.CacheControl != nil {
			tb.CacheControl = cacheControlParam()
		}
		out = append(out, tb)
	}
	return out, nil
}

func encodeMessages(msgs []model.Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			block, err := encodeBlock(b)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case model.RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case model.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return out, nil
}

func encodeBlock(b model.Block) (sdk.ContentBlockParamUnion, error) {
	var block sdk.ContentBlockParamUnion
	switch b.Type {
	case model.BlockText:
		block = sdk.NewTextBlock(b.Text)
		if b.CacheControl != nil && block.OfText != nil {
			block.OfText.CacheControl = cacheControlParam()
		}
	case model.BlockToolUse:
		var input any
		if len(b.Input) > 0 {
			if err := json.Unmarshal(b.Input, &input); err != nil {
				return block, fmt.Errorf("anthropic: decoding tool_use input: %w", err)
			}
		}
		block = sdk.NewToolUseBlock(b.ID, input, b.Name)
	case model.BlockToolResult:
		block = sdk.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError)
		if b.CacheControl != nil && block.OfToolResult != nil {
			block.OfToolResult.CacheControl = cacheControlParam()
		}
	default:
		return block, fmt.Errorf("anthropic: unsupported block type %q", b.Type)
	}
	return block, nil
}

func encodeTools(defs []model.ToolDefinition) ([]sdk.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		if def.Description == "" {
			return nil, fmt.Errorf("anthropic: tool %q is missing description", def.Name)
		}
		schema, err := toolInputSchema(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("anthropic: tool %q schema: %w", def.Name, err)
		}
		u := sdk.ToolUnionParamOfTool(schema, string(def.Name))
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func toolInputSchema(raw json.RawMessage) (sdk.ToolInputSchemaParam, error) {
	if len(raw) == 0 {
		return sdk.ToolInputSchemaParam{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return sdk.ToolInputSchemaParam{}, err
	}
	return sdk.ToolInputSchemaParam{ExtraFields: m}, nil
}

// cacheControlParam builds the ephemeral prompt-cache marker the runtime
// applies (spec §4.7); this adapter only ever emits the ephemeral kind.
func cacheControlParam() sdk.CacheControlEphemeralParam {
	return sdk.NewCacheControlEphemeralParam()
}

func translateResponse(msg *sdk.Message) (*model.Response, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	resp := &model.Response{ID: msg.ID}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			resp.Content = append(resp.Content, model.Block{Type: model.BlockText, Text: block.Text})
		case "tool_use":
			resp.Content = append(resp.Content, model.Block{
				Type:  model.BlockToolUse,
				ID:    block.ID,
				Name:  block.Name,
				Input: json.RawMessage(block.Input),
			})
		}
	}
	resp.StopReason = translateStopReason(msg.StopReason)
	resp.Usage = model.TokenUsage{
		InputTokens:      int(msg.Usage.InputTokens),
		OutputTokens:     int(msg.Usage.OutputTokens),
		CacheReadTokens:  int(msg.Usage.CacheReadInputTokens),
		CacheWriteTokens: int(msg.Usage.CacheCreationInputTokens),
	}
	return resp, nil
}

func translateStopReason(r sdk.StopReason) model.StopReason {
	switch r {
	case sdk.StopReasonEndTurn:
		return model.StopEndTurn
	case sdk.StopReasonMaxTokens:
		return model.StopMaxTokens
	case sdk.StopReasonStopSequence:
		return model.StopSequence
	case sdk.StopReasonToolUse:
		return model.StopToolUse
	default:
		return model.StopEndTurn
	}
}
