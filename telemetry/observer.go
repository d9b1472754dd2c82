package telemetry

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentrt/runtime/hooks"
	"github.com/agentrt/runtime/result"
	"github.com/agentrt/runtime/tools"
	"github.com/agentrt/runtime/validation"
)

// Observer adapts the runtime's hooks.Observer lifecycle callbacks (spec
// §4.8) onto Logger/Metrics/Tracer, so a host application gets structured
// logs, counters, and spans for every attempt, tool call, and validation
// layer without writing its own Observer.
type Observer struct {
	hooks.NoopObserver
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer

	// RunID correlates every log line this Observer emits back to a single
	// agent.Execute call; spans and metrics are not tagged with it. It is opaque to this package; callers
	// typically set it to a freshly generated UUID before execution starts.
	RunID string
}

// NewObserver constructs an Observer. Any of logger/metrics/tracer may be
// nil, in which case the corresponding no-op implementation is used.
func NewObserver(logger Logger, metrics Metrics, tracer Tracer) *Observer {
	if logger == nil {
		logger = NewNoopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	return &Observer{Logger: logger, Metrics: metrics, Tracer: tracer}
}

// fields prepends the runID keyval pair, when set, to an observer callback's
// own structured fields.
func (o *Observer) fields(kv ...any) []any {
	if o.RunID == "" {
		return kv
	}
	return append([]any{"runID", o.RunID}, kv...)
}

func (o *Observer) OnAttemptStart(ctx hooks.AttemptContext) {
	o.Logger.Info(context.Background(), "attempt started", o.fields("attempt", ctx.Attempt, "maxAttempts", ctx.MaxAttempts)...)
	o.Metrics.IncCounter("agent.attempt.start", 1, "attempt", strconv.Itoa(ctx.Attempt))
}

func (o *Observer) OnAttemptComplete(ctx hooks.AttemptContext, success bool) {
	o.Logger.Info(context.Background(), "attempt completed", o.fields("attempt", ctx.Attempt, "success", success)...)
	o.Metrics.IncCounter("agent.attempt.complete", 1, "attempt", strconv.Itoa(ctx.Attempt), "success", strconv.FormatBool(success))
}

func (o *Observer) OnValidationFailure(errs []*result.AgentError) {
	o.Metrics.IncCounter("agent.validation.failure", float64(len(errs)))
	for _, e := range errs {
		o.Logger.Warn(context.Background(), "validation failed", o.fields("code", e.Code, "message", e.Message)...)
	}
}

func (o *Observer) OnValidationLayerStart(layer validation.Layer) {
	o.Logger.Debug(context.Background(), "validation layer started", o.fields("layer", layer.Name())...)
}

func (o *Observer) OnValidationLayerComplete(res validation.LayerResult) {
	_, span := o.Tracer.Start(context.Background(), "validation."+res.Name)
	defer span.End()
	span.AddEvent("layer.type", "type", string(res.Type))
	if !res.Success {
		span.SetStatus(codes.Error, "validation layer failed")
		if res.Err != nil {
			span.RecordError(res.Err)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

func (o *Observer) OnToolCall(name tools.Ident, input any) {
	o.Logger.Debug(context.Background(), "tool call", o.fields("tool", string(name))...)
	o.Metrics.IncCounter("agent.tool.call", 1, "tool", string(name))
}

func (o *Observer) OnToolResult(name tools.Ident, output any) {
	o.Logger.Debug(context.Background(), "tool result", o.fields("tool", string(name))...)
}

func (o *Observer) OnSuccess(output any, metadata hooks.Metadata) {
	o.Logger.Info(context.Background(), "execution succeeded", o.fields()...)
	o.Metrics.IncCounter("agent.execution.success", 1)
	if metadata.Tokens != nil {
		o.Metrics.RecordGauge("agent.tokens.input", float64(metadata.Tokens.InputTokens))
		o.Metrics.RecordGauge("agent.tokens.output", float64(metadata.Tokens.OutputTokens))
	}
	if metadata.Latency != nil {
		o.Metrics.RecordTimer("agent.execution.latency", *metadata.Latency)
	}
}

func (o *Observer) OnFailure(errs []*result.AgentError, metadata hooks.Metadata) {
	o.Metrics.IncCounter("agent.execution.failure", 1)
	for _, e := range errs {
		o.Logger.Error(context.Background(), "execution failed", o.fields("code", e.Code, "message", e.Message)...)
	}
}

