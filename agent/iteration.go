package agent

import (
	"context"
	"encoding/json"

	"github.com/agentrt/runtime/cache"
	"github.com/agentrt/runtime/hooks"
	"github.com/agentrt/runtime/model"
	"github.com/agentrt/runtime/result"
	"github.com/agentrt/runtime/toolproc"
	"github.com/agentrt/runtime/tools"
)

// iterationOutcome is the result of one attempt's iteration loop (spec §4.4).
// On success, Candidate carries the adopted output-tool input and History is
// the conversation *before* the final assistant turn that produced it (the
// attempt controller appends that turn itself, since it is needed whether
// validation subsequently succeeds or fails).
type iterationOutcome[Run, Attempt any] struct {
	Candidate            json.RawMessage
	LastAssistantContent []model.Block
	LastOutputToolUseID  string

	Run     Run
	Attempt Attempt
	History []model.Message
	Usage   model.TokenUsage

	Err *result.AgentError
}

// runIterationLoop runs one attempt's request/response rounds (spec §4.4).
func runIterationLoop[Input, Output, Run, Attempt any](
	ctx context.Context,
	defn *Definition[Input, Output, Run, Attempt],
	client model.Client,
	systemPrompt string,
	history []model.Message,
	state State[Run, Attempt],
	toolDefs []model.ToolDefinition,
	observer hooks.Observer,
	callbackErrs *[]error,
) iterationOutcome[Run, Attempt] {
	run := state.Run
	attempt := state.Attempt
	var usage model.TokenUsage
	var hadOutput bool
	var lastOutputInput json.RawMessage
	var lastOutputToolUseID string
	ranOutOfIterations := false

	for iteration := 1; iteration <= defn.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return iterationOutcome[Run, Attempt]{Run: run, Attempt: attempt, History: history, Usage: usage,
				Err: cancelledError(state.Context.Attempt, "iteration")}
		}

		systemBlocks, historyForRequest := cache.Apply(systemPrompt, history)
		req := &model.Request{
			Model:       defn.Model.Name,
			MaxTokens:   defn.Model.MaxTokens,
			Temperature: defn.Model.Temperature,
			System:      systemBlocks,
			Messages:    historyForRequest,
			Tools:       toolDefs,
		}

		resp, err := client.Complete(ctx, req)
		if err != nil {
			return iterationOutcome[Run, Attempt]{Run: run, Attempt: attempt, History: history, Usage: usage,
				Err: apiError(state.Context.Attempt, err)}
		}
		usage = usage.Add(resp.Usage)

		if resp.StopReason != model.StopToolUse {
			break
		}

		outcome := toolproc.Process(ctx, toolproc.Input[Run, Attempt]{
			Blocks:  resp.Content,
			Run:     run,
			Attempt: attempt,
			Output: toolproc.OutputTool{
				Name:              defn.Tools.Output.Name,
				ReflectionHandler: defn.Tools.Output.ReflectionHandler,
			},
			Helpers:  defn.Tools.Helpers,
			Observer: observer,
		})
		run = outcome.Run
		attempt = outcome.Attempt

		if outcome.WasOutputFound {
			hadOutput = true
			lastOutputInput = outcome.LastOutputInput
			lastOutputToolUseID = lastMatchingToolUseID(resp.Content, defn.Tools.Output.Name)
		}

		if outcome.WasSubmitFound {
			if !hadOutput {
				return iterationOutcome[Run, Attempt]{Run: run, Attempt: attempt, History: history, Usage: usage,
					Err: submitBeforeOutputError(state.Context.Attempt)}
			}
			return iterationOutcome[Run, Attempt]{
				Candidate: lastOutputInput, LastAssistantContent: resp.Content, LastOutputToolUseID: lastOutputToolUseID,
				Run: run, Attempt: attempt, History: history, Usage: usage,
			}
		}

		if outcome.WasOutputFound && defn.Tools.Output.ReflectionHandler == nil {
			return iterationOutcome[Run, Attempt]{
				Candidate: lastOutputInput, LastAssistantContent: resp.Content, LastOutputToolUseID: lastOutputToolUseID,
				Run: run, Attempt: attempt, History: history, Usage: usage,
			}
		}

		history = appendTurns(history,
			model.Message{Role: model.RoleAssistant, Content: resp.Content},
			model.Message{Role: model.RoleUser, Content: outcome.ToolResults},
		)

		if iteration == defn.MaxIterations {
			ranOutOfIterations = true
		}
	}

	if ranOutOfIterations {
		return iterationOutcome[Run, Attempt]{Run: run, Attempt: attempt, History: history, Usage: usage,
			Err: maxIterationsError(state.Context.Attempt, defn.MaxIterations)}
	}
	return iterationOutcome[Run, Attempt]{Run: run, Attempt: attempt, History: history, Usage: usage,
		Err: outputToolNotUsedError(state.Context.Attempt)}
}

func lastMatchingToolUseID(blocks []model.Block, name tools.Ident) string {
	id := ""
	for _, b := range blocks {
		if b.Type == model.BlockToolUse && tools.Ident(b.Name) == name {
			id = b.ID
		}
	}
	return id
}

// appendTurns returns history with turns appended, without mutating the
// backing array of the caller's slice.
func appendTurns(history []model.Message, turns ...model.Message) []model.Message {
	out := make([]model.Message, 0, len(history)+len(turns))
	out = append(out, history...)
	out = append(out, turns...)
	return out
}
