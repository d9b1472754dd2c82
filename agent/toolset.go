package agent

import (
	"encoding/json"

	"github.com/agentrt/runtime/model"
	"github.com/agentrt/runtime/toolproc"
)

// submitToolSchema is the fixed no-arg schema of the runtime-injected submit
// tool (spec §4.4 step 1: "no-arg object schema, fixed description").
var submitToolSchema = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)

const submitToolDescription = "Call with no arguments once you are satisfied with your most recently submitted output and are ready to finalize it."

// buildToolDefinitions builds the tool list for one attempt: the output
// tool, every helper tool, and — when reflection is enabled — the injected
// submit tool (spec §4.4 step 1). The list is built once per execution and
// reused across every iteration and attempt, since the agent Definition is
// frozen for the lifetime of an execution.
func buildToolDefinitions[Input, Output, Run, Attempt any](defn *Definition[Input, Output, Run, Attempt]) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(defn.Tools.Helpers)+2)
	defs = append(defs, model.ToolDefinition{
		Name:        defn.Tools.Output.Name,
		Description: defn.Tools.Output.Description,
		InputSchema: defn.Tools.Output.InputSchema,
	})
	for _, h := range defn.Tools.Helpers {
		defs = append(defs, model.ToolDefinition{
			Name:        h.Spec.Name,
			Description: h.Spec.Description,
			InputSchema: h.Spec.InputSchema,
		})
	}
	if defn.Tools.Output.ReflectionHandler != nil {
		defs = append(defs, model.ToolDefinition{
			Name:        toolproc.SubmitToolName,
			Description: submitToolDescription,
			InputSchema: submitToolSchema,
		})
	}
	return defs
}
