package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agentrt/runtime/hooks"
	"github.com/agentrt/runtime/model"
	"github.com/agentrt/runtime/result"
	"github.com/agentrt/runtime/validation"
)

// ExecuteOptions carries per-execution inputs: the typed Input, the model
// client to drive, and an optional MaxAttempts override.
type ExecuteOptions[Input any] struct {
	Input       Input
	Client      model.Client
	MaxAttempts int // overrides Definition.MaxAttempts when > 0
}

// ExecuteOutput is the successful result of Execute (spec §6: "{output,
// attempts, metadata, stateProjection?}").
type ExecuteOutput[Output any] struct {
	Output          Output
	Attempts        int
	Metadata        hooks.Metadata
	StateProjection any
}

// ExecuteFailure is the terminal failure result of Execute (spec §6:
// "{errors, metadata}"). It implements error so it can ride as the error
// side of result.Result.
type ExecuteFailure struct {
	Errors   []*result.AgentError
	Metadata hooks.Metadata
}

func (f *ExecuteFailure) Error() string {
	if formatted := result.FormatErrors(f.Errors, nil); formatted != "" {
		return formatted
	}
	return "agent execution failed"
}

// Execute drives one complete execution of defn to a validated output or a
// terminal failure (spec §4.4-§4.5, §6). It is the sole entrypoint of the
// core runtime.
func Execute[Input, Output, Run, Attempt any](
	ctx context.Context,
	defn *Definition[Input, Output, Run, Attempt],
	opts ExecuteOptions[Input],
) result.Result[*ExecuteOutput[Output]] {
	observer := defn.Observer
	if observer == nil {
		observer = hooks.NoopObserver{}
	}

	maxAttempts := defn.MaxAttempts
	if opts.MaxAttempts > 0 {
		maxAttempts = opts.MaxAttempts
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	outputSchemaLayer, err := validation.NewSchemaLayer(string(defn.Tools.Output.Name), defn.Tools.Output.Description, defn.Tools.Output.InputSchema)
	if err != nil {
		failure := &ExecuteFailure{Errors: []*result.AgentError{
			result.New(result.CodeValidationFailed, result.SeverityFatal, result.CategorySpec, "failed to compile output schema", nil).WithCause(err),
		}}
		return result.Err[*ExecuteOutput[Output]](failure)
	}
	layers := make([]validation.Layer, 0, len(defn.Validation.Layers)+1)
	layers = append(layers, outputSchemaLayer)
	layers = append(layers, defn.Validation.Layers...)

	toolDefs := buildToolDefinitions(defn)

	start := time.Now()
	run := defn.InitialRun
	var allErrors []*result.AgentError
	var totalUsage model.TokenUsage
	var callbackErrs []error
	var history []model.Message

	buildMetadata := func() hooks.Metadata {
		md := hooks.Metadata{CallbackErrors: callbackErrs}
		if defn.Observability.TrackLatency {
			elapsed := time.Since(start)
			md.Latency = &elapsed
		}
		if defn.Observability.TrackTokens {
			u := totalUsage
			md.Tokens = &u
		}
		return md
	}

	fail := func(errs []*result.AgentError) result.Result[*ExecuteOutput[Output]] {
		metadata := buildMetadata()
		hooks.SafeInvoke(&callbackErrs, func() { observer.OnFailure(errs, metadata) })
		metadata.CallbackErrors = callbackErrs
		return result.Err[*ExecuteOutput[Output]](&ExecuteFailure{Errors: errs, Metadata: metadata})
	}

	for attemptNum := 1; attemptNum <= maxAttempts; attemptNum++ {
		attemptState := defn.InitialAttempt
		execCtx := Context{Attempt: attemptNum, MaxAttempts: maxAttempts, MaxIterations: defn.MaxIterations}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail([]*result.AgentError{cancelledError(attemptNum, "prompt-build")})
		}

		hooks.SafeInvoke(&callbackErrs, func() { observer.OnAttemptStart(execCtx.toHooks()) })

		systemPrompt, sErr := defn.Prompts.System(ctx)
		if sErr != nil {
			return fail([]*result.AgentError{promptBuildError(attemptNum, "system", sErr)})
		}

		if history == nil {
			initialUserText, uErr := defn.Prompts.InitialUser(ctx, opts.Input)
			if uErr != nil {
				return fail([]*result.AgentError{promptBuildError(attemptNum, "initial-user", uErr)})
			}
			history = []model.Message{{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: initialUserText}}}}
		}

		iterOut := runIterationLoop(ctx, defn, opts.Client, systemPrompt, history,
			State[Run, Attempt]{Context: execCtx, Run: run, Attempt: attemptState}, toolDefs, observer, &callbackErrs)
		totalUsage = totalUsage.Add(iterOut.Usage)
		run = iterOut.Run

		if iterOut.Err != nil {
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnAttemptComplete(execCtx.toHooks(), false) })
			allErrors = append(allErrors, iterOut.Err)
			return fail(allErrors)
		}

		historyWithAssistant := appendTurns(iterOut.History,
			model.Message{Role: model.RoleAssistant, Content: iterOut.LastAssistantContent})

		var candidate any
		if decodeErr := json.Unmarshal(iterOut.Candidate, &candidate); decodeErr != nil {
			return fail([]*result.AgentError{malformedOutputError(attemptNum, decodeErr)})
		}

		var layerStartErrs, layerCompleteErrs []error
		pipeline := validation.Pipeline{
			Layers: layers,
			OnLayerStart: func(l validation.Layer) {
				hooks.SafeInvoke(&layerStartErrs, func() { observer.OnValidationLayerStart(l) })
			},
			OnLayerComplete: func(r validation.LayerResult) {
				hooks.SafeInvoke(&layerCompleteErrs, func() { observer.OnValidationLayerComplete(r) })
			},
		}
		narrowed, failedLayer, cancelErr := pipeline.Run(ctx, candidate)
		callbackErrs = append(callbackErrs, layerStartErrs...)
		callbackErrs = append(callbackErrs, layerCompleteErrs...)

		if cancelErr != nil {
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnAttemptComplete(execCtx.toHooks(), false) })
			return fail([]*result.AgentError{cancelledError(attemptNum, "validation")})
		}

		if failedLayer != nil {
			agentErr := validation.ToAgentError(*failedLayer, attemptNum)
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnAttemptComplete(execCtx.toHooks(), false) })
			hooks.SafeInvoke(&callbackErrs, func() { observer.OnValidationFailure([]*result.AgentError{agentErr}) })
			allErrors = append(allErrors, agentErr)

			formatted := validation.Format(*failedLayer)
			toolResultTurn := model.Message{Role: model.RoleUser, Content: []model.Block{{
				Type:      model.BlockToolResult,
				ToolUseID: iterOut.LastOutputToolUseID,
				Content:   "Validation failed:\n" + formatted,
				IsError:   true,
			}}}
			feedbackText, fErr := defn.Prompts.ErrorFeedback(ctx, formatted, execCtx)
			if fErr != nil {
				feedbackText = formatted
			}
			feedbackTurn := model.Message{Role: model.RoleUser, Content: []model.Block{{Type: model.BlockText, Text: feedbackText}}}

			history = appendTurns(historyWithAssistant, toolResultTurn, feedbackTurn)
			continue
		}

		var typedOutput Output
		outputJSON, marshalErr := json.Marshal(narrowed)
		if marshalErr != nil {
			return fail([]*result.AgentError{malformedOutputError(attemptNum, marshalErr)})
		}
		if unmarshalErr := json.Unmarshal(outputJSON, &typedOutput); unmarshalErr != nil {
			return fail([]*result.AgentError{malformedOutputError(attemptNum, unmarshalErr)})
		}

		hooks.SafeInvoke(&callbackErrs, func() { observer.OnAttemptComplete(execCtx.toHooks(), true) })

		var projection any
		if defn.ProjectFinalState != nil {
			p, pErr := safeProjectFinalState(defn.ProjectFinalState, State[Run, Attempt]{Context: execCtx, Run: run, Attempt: iterOut.Attempt})
			if pErr != nil {
				return fail([]*result.AgentError{stateProjectionError(attemptNum, pErr)})
			}
			projection = p
		}

		metadata := buildMetadata()
		out := &ExecuteOutput[Output]{Output: typedOutput, Attempts: attemptNum, Metadata: metadata, StateProjection: projection}
		hooks.SafeInvoke(&callbackErrs, func() { observer.OnSuccess(typedOutput, metadata) })
		metadata.CallbackErrors = callbackErrs
		out.Metadata = metadata
		return result.Ok(out)
	}

	return fail(allErrors)
}

// safeProjectFinalState invokes fn with panic recovery; a panicking
// projection becomes STATE_PROJECTION_FAILED (spec §4.5 step 6).
func safeProjectFinalState[Run, Attempt any](fn func(State[Run, Attempt]) (any, error), state State[Run, Attempt]) (projection any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r)
		}
	}()
	return fn(state)
}

func panicToError(r any) error {
	if e, ok := r.(error); ok {
		return e
	}
	return &stringError{msg: jsonifyPanic(r)}
}

func jsonifyPanic(r any) string {
	if s, ok := r.(string); ok {
		return s
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "panic"
	}
	return string(b)
}

type stringError struct{ msg string }

func (e *stringError) Error() string { return e.msg }
