// Package toolproc implements the tool-use dispatch rules of spec §4.3: for
// one assistant turn's tool_use blocks, dispatch submit/output/helper tools
// in order, producing ordered tool_result blocks with full exception
// safety and state threading. Grounded on
// other_examples/1c1d85bd_..._tool_loop.go's executeSingleTool/executeTools
// shape (emit lifecycle events around each call, convert handler errors into
// tool_result content rather than propagating) and the teacher's per-block
// ordered processing, adapted from Temporal-activity dispatch to direct
// synchronous handler invocation.
package toolproc

import (
	"context"
	"encoding/json"
	"fmt"

	"dario.cat/mergo"

	"github.com/agentrt/runtime/hooks"
	"github.com/agentrt/runtime/model"
	"github.com/agentrt/runtime/toolerrors"
	"github.com/agentrt/runtime/tools"
)

// SubmitToolName is the fixed identifier of the runtime-injected submit tool
// (spec §4.4 step 1, glossary "Submit tool").
const SubmitToolName tools.Ident = "submit"

// ReflectionVerdict is the result of consulting an OutputTool's
// ReflectionHandler after an output-tool call.
type ReflectionVerdict struct {
	// Accepted is true when the handler is satisfied with the candidate.
	Accepted bool
	// Message is fed back to the model as the tool_result content, either a
	// continuation prompt (rejected) or an acknowledgement (accepted).
	Message string
}

// ReflectionHandler is consulted after every output-tool call when
// reflection is enabled (spec §4.6).
type ReflectionHandler func(candidate json.RawMessage) (ReflectionVerdict, error)

// OutputTool describes the tool through which the model emits its candidate
// output. A nil ReflectionHandler disables reflection for this attempt.
type OutputTool struct {
	Name              tools.Ident
	ReflectionHandler ReflectionHandler
}

// HandlerSuccess is the state/result tuple a helper tool handler returns on
// success (spec §3: "{newState:{run,attempt}, toolResult}").
type HandlerSuccess[Run, Attempt any] struct {
	Run        Run
	Attempt    Attempt
	ToolResult any
}

// HelperTool is one user-supplied helper tool. Handler returns a
// *toolerrors.ToolError (or any error) on failure; the error's message
// becomes the tool_result content.
type HelperTool[Run, Attempt any] struct {
	Spec    tools.Spec
	Handler func(run Run, attempt Attempt, input json.RawMessage) (HandlerSuccess[Run, Attempt], error)
}

// Input bundles one call to Process: the tool_use blocks of a single
// assistant turn, the state to thread through helper calls, and the tool
// tables needed to dispatch them.
type Input[Run, Attempt any] struct {
	Blocks  []model.Block
	Run     Run
	Attempt Attempt
	Output  OutputTool
	Helpers map[tools.Ident]HelperTool[Run, Attempt]
	Observer hooks.Observer
}

// Outcome is the result of processing one assistant turn's tool_use blocks.
type Outcome[Run, Attempt any] struct {
	// ToolResults are the tool_result blocks to send back, in block order.
	ToolResults []model.Block
	// WasOutputFound is true if the output tool was called at least once
	// in this turn.
	WasOutputFound bool
	// WasSubmitFound is true if the submit tool was called in this turn.
	WasSubmitFound bool
	// LastOutputInput is the most recently observed output-tool input in
	// this turn (nil if none).
	LastOutputInput json.RawMessage
	// Run and Attempt are the state tiers after applying every successful
	// helper call's returned state, in block order.
	Run     Run
	Attempt Attempt
}

// Process dispatches every tool_use block in in.Blocks, left to right,
// applying the submit/output/helper rules of spec §4.3.
func Process[Run, Attempt any](ctx context.Context, in Input[Run, Attempt]) Outcome[Run, Attempt] {
	observer := in.Observer
	if observer == nil {
		observer = hooks.NoopObserver{}
	}
	out := Outcome[Run, Attempt]{Run: in.Run, Attempt: in.Attempt}
	var callbackErrs []error

	for _, block := range in.Blocks {
		if block.Type != model.BlockToolUse {
			continue
		}
		name := tools.Ident(block.Name)

		switch {
		case name == SubmitToolName:
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolCall(name, block.Input) })
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, nil) })
			out.WasSubmitFound = true

		case name == in.Output.Name:
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolCall(name, block.Input) })
			out.WasOutputFound = true
			out.LastOutputInput = block.Input

			if in.Output.ReflectionHandler != nil {
				verdict, content, isError := invokeReflection(in.Output.ReflectionHandler, block.Input)
				out.ToolResults = append(out.ToolResults, model.Block{
					Type:      model.BlockToolResult,
					ToolUseID: block.ID,
					Content:   content,
					IsError:   isError,
				})
				hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, verdict) })
			} else {
				hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, nil) })
			}

		default:
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolCall(name, block.Input) })
			helper, ok := in.Helpers[name]
			if !ok {
				content := fmt.Sprintf("unknown tool %q", block.Name)
				out.ToolResults = append(out.ToolResults, errorResult(block.ID, content))
				hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, content) })
				continue
			}
			success, herr := invokeHandler(helper.Handler, out.Run, out.Attempt, block.Input)
			if herr != nil {
				tagged := toolerrors.FromError(herr).WithTool(name)
				out.ToolResults = append(out.ToolResults, errorResult(block.ID, tagged.Error()))
				hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, tagged) })
				continue
			}
			out.Run = mergeRun(out.Run, success.Run)
			out.Attempt = success.Attempt
			payload, err := json.Marshal(success.ToolResult)
			if err != nil {
				out.ToolResults = append(out.ToolResults, errorResult(block.ID, err.Error()))
				hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, err.Error()) })
				continue
			}
			out.ToolResults = append(out.ToolResults, model.Block{
				Type:      model.BlockToolResult,
				ToolUseID: block.ID,
				Content:   string(payload),
				IsError:   false,
			})
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnToolResult(name, success.ToolResult) })
		}
	}

	return out
}

func errorResult(toolUseID, content string) model.Block {
	return model.Block{Type: model.BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: true}
}

// invokeReflection calls handler with panic recovery, converting a panic or
// error into an error tool_result per spec §4.3 rule 2.
func invokeReflection(handler ReflectionHandler, input json.RawMessage) (verdict ReflectionVerdict, content string, isError bool) {
	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("%v", r)
			}
		}()
		verdict, callErr = handler(input)
	}()
	if callErr != nil {
		return ReflectionVerdict{}, "Error: " + callErr.Error(), true
	}
	return verdict, verdict.Message, !verdict.Accepted
}

// invokeHandler calls handler with panic recovery, converting a panic into a
// *toolerrors.ToolError per spec §4.3 rule 3.
func invokeHandler[Run, Attempt any](
	handler func(run Run, attempt Attempt, input json.RawMessage) (HandlerSuccess[Run, Attempt], error),
	run Run, attempt Attempt, input json.RawMessage,
) (success HandlerSuccess[Run, Attempt], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = toolerrors.Errorf("tool handler panicked: %v", r)
		}
	}()
	return handler(run, attempt, input)
}

// mergeRun implements the shallow-overlay merge policy of spec §3/§4.5:
// fields present in incoming overwrite existing, fields absent are left
// untouched. Both Run values must be structs (or pointers to structs) for
// mergo to reflect over; this is the one place in the runtime that performs
// the run-state merge, since helper calls within a single turn must thread
// state sequentially.
func mergeRun[Run any](existing, incoming Run) Run {
	if err := mergo.Merge(&existing, incoming, mergo.WithOverride); err != nil {
		return incoming
	}
	return existing
}
