package validation

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentrt/runtime/result"
)

// Format renders a failing LayerResult into a model-facing explanation: which
// layer failed, its description, why, and — for schema-typed layers — a
// flattened list of path/message pairs from the schema library's structured
// error (spec §4.2).
func Format(res LayerResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Layer %q failed", res.Name)
	if res.Description != "" {
		fmt.Fprintf(&b, " (%s)", res.Description)
	}
	b.WriteString(":\n")
	if ve, ok := res.Err.(*jsonschema.ValidationError); ok {
		for _, line := range flattenValidationError(ve) {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return strings.TrimRight(b.String(), "\n")
	}
	if res.Err != nil {
		b.WriteString(res.Err.Error())
	}
	return strings.TrimRight(b.String(), "\n")
}

// flattenValidationError walks a jsonschema.ValidationError's cause tree into
// a flat list of "<instance path>: <message>" lines, one per leaf cause.
func flattenValidationError(ve *jsonschema.ValidationError) []string {
	var lines []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "/" + strings.Join(e.InstanceLocation, "/")
			lines = append(lines, fmt.Sprintf("%s: %s", path, e.Kind))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)
	if len(lines) == 0 {
		lines = append(lines, ve.Error())
	}
	return lines
}

// ToAgentError converts a failing LayerResult into a structured
// *result.AgentError with the VALIDATION_FAILED code (spec §6/§7).
func ToAgentError(res LayerResult, attempt int) *result.AgentError {
	return result.New(
		result.CodeValidationFailed,
		result.SeverityError,
		result.CategoryValidation,
		Format(res),
		map[string]any{"attempt": attempt, "layer": res.Name},
	)
}
