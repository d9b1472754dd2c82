// Package agent implements the iteration loop, attempt controller,
// reflection plumbing, and the agent definition/state surface of spec §3-§5.
// Grounded on the teacher's runtime/workflow_loop.go for the loop-state-object
// shape (bundle fields into a struct with a run method rather than threading
// long parameter lists) and runtime/handlers.go/workflow_turn.go for per-turn
// bookkeeping, re-targeted from Temporal engine.WorkflowContext replay
// semantics to a plain context.Context (spec §5: single-threaded cooperative,
// no durable replay).
package agent

import (
	"context"
	"encoding/json"

	"github.com/agentrt/runtime/hooks"
	"github.com/agentrt/runtime/toolproc"
	"github.com/agentrt/runtime/tools"
	"github.com/agentrt/runtime/validation"
)

// ModelParams are the per-request model parameters (spec §3: "model").
type ModelParams struct {
	Name        string
	MaxTokens   int
	Temperature float64
}

// OutputToolDef describes the tool through which the model emits its
// candidate output (spec §3: "tools.output"). A non-nil ReflectionHandler
// enables the reflection sub-protocol (spec §4.6) for this agent.
type OutputToolDef[Output any] struct {
	Name              tools.Ident
	Description       string
	InputSchema       json.RawMessage
	ReflectionHandler toolproc.ReflectionHandler
}

// Tools bundles the output tool and the helper-tool table (spec §3:
// "tools.helpers").
type Tools[Run, Attempt, Output any] struct {
	Output  OutputToolDef[Output]
	Helpers map[tools.Ident]toolproc.HelperTool[Run, Attempt]
}

// ValidationSpec is the ordered list of extra layers run after the output
// tool's own schema validation (spec §3: "validation.layers"). The output
// tool's InputSchema is always validated first; Layers run after it.
type ValidationSpec struct {
	Layers []validation.Layer
}

// Prompts are the agent's async-capable prompt builders (spec §3: "prompts").
type Prompts[Input any] struct {
	System        func(ctx context.Context) (string, error)
	InitialUser   func(ctx context.Context, input Input) (string, error)
	ErrorFeedback func(ctx context.Context, formattedError string, execCtx Context) (string, error)
}

// Observability are the per-execution tracking flags (spec §3). TrackCost
// has no concrete pricing model in this runtime's scope (that belongs to a
// host application's billing integration) and is carried inertly, like the
// glossary's "Affordance" concept, for callers that want to gate their own
// cost-estimation on it.
type Observability struct {
	TrackLatency  bool
	TrackTokens   bool
	TrackAttempts bool
	TrackCost     bool
}

// Definition is the immutable description of an agent (spec §3:
// "AgentDefinition<Input, Output, Run, Attempt>"). A Definition is never
// mutated during execution; all mutable state lives in State.
type Definition[Input, Output, Run, Attempt any] struct {
	Model         ModelParams
	Tools         Tools[Run, Attempt, Output]
	Validation    ValidationSpec
	Prompts       Prompts[Input]
	Observability Observability

	MaxAttempts   int
	MaxIterations int

	// InitialRun and InitialAttempt are the declared starting values for
	// their respective state tiers. InitialAttempt is reinstated at the
	// start of every attempt (spec §4.5: "attempt is reset to its initial
	// value ... at the start of each new attempt").
	InitialRun     Run
	InitialAttempt Attempt

	// ProjectFinalState optionally extracts a user-visible projection from
	// the final state on success (spec §3).
	ProjectFinalState func(state State[Run, Attempt]) (any, error)

	// Observer receives the lifecycle callbacks of spec §4.8. A nil Observer
	// is treated as hooks.NoopObserver.
	Observer hooks.Observer
}
