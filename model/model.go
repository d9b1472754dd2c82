// Package model defines the provider-agnostic wire types for the agent
// runtime's model client contract (spec §6): requests, responses, messages,
// content blocks, tool definitions, and token usage. Concrete providers
// (providers/anthropic, providers/openai) translate to and from these types;
// the core loop never imports a provider SDK directly.
package model

import (
	"context"
	"encoding/json"

	"github.com/agentrt/runtime/tools"
)

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates the union of content block shapes a Block may
// carry. Only the fields relevant to Type are meaningful on a given Block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// CacheControl annotates a block as an ephemeral prompt-cache boundary.
// Ephemeral is the only mode this runtime ever emits (spec §4.7).
type CacheControl struct {
	Type string `json:"type"`
}

// Ephemeral is the shared cache_control value applied by package cache.
var Ephemeral = &CacheControl{Type: "ephemeral"}

// Block is a single content block within a turn. The zero value of fields
// not relevant to Type is simply unused; JSON encoding is left to provider
// adapters, which know which fields their wire format expects.
type Block struct {
	Type BlockType

	// Text carries BlockText content.
	Text string

	// ID, Name, and Input carry BlockToolUse content, verbatim from the
	// model's response.
	ID    string
	Name  string
	Input json.RawMessage

	// ToolUseID, Content, and IsError carry BlockToolResult content.
	ToolUseID string
	Content   string
	IsError   bool

	// CacheControl marks this block as a prompt-cache boundary, when set.
	CacheControl *CacheControl
}

// Message is one turn of the conversation: a role plus its ordered content
// blocks. User turns carry Text/ToolResult blocks; assistant turns carry the
// model's verbatim Text/ToolUse blocks.
type Message struct {
	Role    Role
	Content []Block
}

// ToolDefinition describes a callable tool for the model's tool-use protocol.
type ToolDefinition struct {
	Name        tools.Ident
	Description string
	InputSchema json.RawMessage
}

// StopReason is the provider's reason for ending generation of a turn.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopSequence  StopReason = "stop_sequence"
	StopToolUse   StopReason = "tool_use"
)

// TokenUsage accumulates token counts from one or more model calls. All
// fields are non-negative and monotonically accumulated across an execution.
type TokenUsage struct {
	InputTokens      int
	OutputTokens     int
	CacheWriteTokens int
	CacheReadTokens  int
}

// Add returns the element-wise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:      u.InputTokens + other.InputTokens,
		OutputTokens:     u.OutputTokens + other.OutputTokens,
		CacheWriteTokens: u.CacheWriteTokens + other.CacheWriteTokens,
		CacheReadTokens:  u.CacheReadTokens + other.CacheReadTokens,
	}
}

// Request is one outgoing request to a model provider.
type Request struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// System holds the system prompt as one or more text blocks; the core
	// loop always sends exactly one, marked ephemeral by package cache.
	System   []Block
	Messages []Message
	Tools    []ToolDefinition
}

// Response is a model provider's reply to one Request.
type Response struct {
	ID         string
	Content    []Block
	StopReason StopReason
	Usage      TokenUsage
}

// Client is the provider-agnostic model contract the iteration loop drives.
// Complete is the only method the control loop calls; it must be safe to
// call repeatedly with ctx cancellation propagated to the underlying
// transport (spec §4.8, §5).
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
