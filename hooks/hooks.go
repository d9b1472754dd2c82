// Package hooks provides the observability surface of spec §4.8: a
// fire-and-forget, panic-isolated lifecycle Observer plus the execution
// Metadata it is ultimately reported alongside. Grounded on the teacher's
// runtime/agent/hooks/bus.go registration idiom and doc density, but the
// fail-fast fan-out semantics of that bus are not reused — spec §4.8 is
// explicit that a callback's failure is never user-visible, the opposite of
// a bus that aborts publication on the first subscriber error.
package hooks

import (
	"fmt"
	"time"

	"github.com/agentrt/runtime/model"
	"github.com/agentrt/runtime/result"
	"github.com/agentrt/runtime/tools"
	"github.com/agentrt/runtime/validation"
)

// AttemptContext mirrors the framework-owned portion of agent.State.Context
// at the moment a lifecycle callback fires. It is duplicated here (rather
// than imported from package agent) so hooks has no dependency on agent,
// which itself depends on hooks.
type AttemptContext struct {
	Attempt       int
	MaxAttempts   int
	Iteration     int
	MaxIterations int
}

// Metadata is execution metadata populated per the agent definition's
// Observability flags; it is always produced for both success and failure
// outcomes (spec §3).
type Metadata struct {
	Latency        *time.Duration
	Tokens         *model.TokenUsage
	CallbackErrors []error
}

// Observer is the full lifecycle callback set of spec §4.8. All methods are
// invoked synchronously and fire-and-forget: a panicking implementation must
// not abort the run (see SafeInvoke). Embed NoopObserver to implement only
// the callbacks you need.
type Observer interface {
	OnAttemptStart(ctx AttemptContext)
	OnAttemptComplete(ctx AttemptContext, success bool)
	OnValidationFailure(errs []*result.AgentError)
	OnValidationLayerStart(layer validation.Layer)
	OnValidationLayerComplete(res validation.LayerResult)
	OnToolCall(name tools.Ident, input any)
	OnToolResult(name tools.Ident, output any)
	OnSuccess(output any, metadata Metadata)
	OnFailure(errs []*result.AgentError, metadata Metadata)
}

// NoopObserver implements Observer with no-op methods. Embed it in a partial
// observer to only override the callbacks of interest.
type NoopObserver struct{}

func (NoopObserver) OnAttemptStart(AttemptContext)                   {}
func (NoopObserver) OnAttemptComplete(AttemptContext, bool)          {}
func (NoopObserver) OnValidationFailure([]*result.AgentError)        {}
func (NoopObserver) OnValidationLayerStart(validation.Layer)         {}
func (NoopObserver) OnValidationLayerComplete(validation.LayerResult) {}
func (NoopObserver) OnToolCall(tools.Ident, any)                     {}
func (NoopObserver) OnToolResult(tools.Ident, any)                   {}
func (NoopObserver) OnSuccess(any, Metadata)                         {}
func (NoopObserver) OnFailure([]*result.AgentError, Metadata)        {}

var _ Observer = NoopObserver{}

// SafeInvoke calls fn and recovers any panic, appending it to *callbackErrors
// instead of letting it propagate. Every call site into an Observer method
// goes through SafeInvoke so a misbehaving callback can never fail the run.
func SafeInvoke(callbackErrors *[]error, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			*callbackErrors = append(*callbackErrors, fmt.Errorf("observer callback panicked: %v", r))
		}
	}()
	fn()
}
