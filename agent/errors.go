package agent

import "github.com/agentrt/runtime/result"

// codePromptBuildFailed is a local extension of the stable error-code list
// (spec §6 describes the list as "non-exhaustive"): a Prompts builder
// returning an error has no dedicated spec code, so it is reported as a
// spec-category failure with this code rather than overloading one of the
// seven stable codes.
const codePromptBuildFailed = "PROMPT_BUILD_FAILED"

func cancelledError(attempt int, phase string) *result.AgentError {
	return result.New(result.CodeExecutionCancelled, result.SeverityError, result.CategoryExecution,
		"execution cancelled", map[string]any{"attempt": attempt, "phase": phase})
}

func apiError(attempt int, cause error) *result.AgentError {
	return result.New(result.CodeAPIError, result.SeverityError, result.CategoryModel,
		"model request failed", map[string]any{"attempt": attempt}).WithCause(cause)
}

func submitBeforeOutputError(attempt int) *result.AgentError {
	return result.New(result.CodeSubmitBeforeOutput, result.SeverityError, result.CategoryModel,
		"submit called before any output was produced in this attempt", map[string]any{"attempt": attempt})
}

func maxIterationsError(attempt, iterationCount int) *result.AgentError {
	return result.New(result.CodeMaxIterationsExceeded, result.SeverityFatal, result.CategoryExecution,
		"maximum iterations exceeded without producing an output", map[string]any{"attempt": attempt, "iterationCount": iterationCount})
}

func outputToolNotUsedError(attempt int) *result.AgentError {
	return result.New(result.CodeOutputToolNotUsed, result.SeverityError, result.CategoryModel,
		"model ended its turn without ever calling the output tool", map[string]any{"attempt": attempt})
}

func stateProjectionError(attempt int, cause error) *result.AgentError {
	return result.New(result.CodeStateProjectionFailed, result.SeverityFatal, result.CategoryExecution,
		"state projection failed", map[string]any{"attempt": attempt}).WithCause(cause)
}

func promptBuildError(attempt int, phase string, cause error) *result.AgentError {
	return result.New(codePromptBuildFailed, result.SeverityFatal, result.CategorySpec,
		"prompt builder failed", map[string]any{"attempt": attempt, "phase": phase}).WithCause(cause)
}

func malformedOutputError(attempt int, cause error) *result.AgentError {
	return result.New(result.CodeValidationFailed, result.SeverityFatal, result.CategoryValidation,
		"output tool input could not be decoded as JSON", map[string]any{"attempt": attempt}).WithCause(cause)
}
