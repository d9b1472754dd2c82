package agent

import "github.com/agentrt/runtime/hooks"

// Context is the framework-owned portion of State (spec §3: "context").
// Handlers must not modify it directly; they return only replacement
// Run/Attempt tiers.
type Context struct {
	Attempt       int
	MaxAttempts   int
	Iteration     int
	MaxIterations int
}

func (c Context) toHooks() hooks.AttemptContext {
	return hooks.AttemptContext{
		Attempt:       c.Attempt,
		MaxAttempts:   c.MaxAttempts,
		Iteration:     c.Iteration,
		MaxIterations: c.MaxIterations,
	}
}

// State is the mutable state threaded through one execution (spec §3:
// "AgentState<Run, Attempt>"). It is owned exclusively by the attempt
// controller; handlers receive it read-only and return replacement tiers.
type State[Run, Attempt any] struct {
	Context Context
	Run     Run
	Attempt Attempt
}
