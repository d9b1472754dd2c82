// Package validation implements the ordered validation-layer pipeline of
// spec §4.2: candidate outputs flow through a sequence of layers, the first
// failure short-circuits the rest, and the failing layer's error is paired
// with its name/description for model-facing formatting.
package validation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// LayerType distinguishes a schema-backed layer from an arbitrary predicate.
type LayerType string

const (
	LayerSchema LayerType = "schema"
	LayerCustom LayerType = "custom"
)

// LayerResult records the outcome of running one Layer.
type LayerResult struct {
	Name        string
	Description string
	Type        LayerType
	Success     bool
	// Err carries the layer's raw, library-specific error on failure. It is
	// deliberately unconstrained (spec §3); formatting is a separate concern
	// handled by Format.
	Err error
}

// Layer is one stage of the validation pipeline. Validate must not mutate
// candidate; it may return a narrowed or normalised value that subsequent
// layers observe instead of the original.
type Layer interface {
	Name() string
	Description() string
	Type() LayerType
	Validate(ctx context.Context, candidate any) (narrowed any, err error)
}

// LayerStartFunc and LayerCompleteFunc let callers observe layer execution
// without the validation package depending on the hooks package (hooks
// depends on validation, not the reverse).
type (
	LayerStartFunc    func(layer Layer)
	LayerCompleteFunc func(result LayerResult)
)

// Pipeline runs an ordered sequence of Layers against a candidate output.
type Pipeline struct {
	Layers []Layer
	// OnLayerStart and OnLayerComplete, when set, are invoked around every
	// layer (spec §4.2: "onValidationLayerStart"/"onValidationLayerComplete").
	OnLayerStart    LayerStartFunc
	OnLayerComplete LayerCompleteFunc
}

// Run executes the pipeline. It returns the final narrowed value on success,
// the LayerResult of the first failing layer on a validation failure, or a
// non-nil cancellation error if ctx is found cancelled when a layer is about
// to start (ctx is checked before each layer, not after the last one) —
// the two are distinct outcomes (spec §4.8's cancellation checkpoints are
// not validation failures) and callers must not conflate them into the same
// "validation failed" code path.
func (p Pipeline) Run(ctx context.Context, candidate any) (any, *LayerResult, error) {
	current := candidate
	for _, layer := range p.Layers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if p.OnLayerStart != nil {
			p.OnLayerStart(layer)
		}
		narrowed, err := layer.Validate(ctx, current)
		res := LayerResult{Name: layer.Name(), Description: layer.Description(), Type: layer.Type(), Success: err == nil}
		if err != nil {
			res.Err = err
			if p.OnLayerComplete != nil {
				p.OnLayerComplete(res)
			}
			return nil, &res, nil
		}
		if p.OnLayerComplete != nil {
			p.OnLayerComplete(res)
		}
		current = narrowed
	}
	return current, nil, nil
}

// SchemaLayer validates a candidate (expected to be, or decodable to, a plain
// JSON-compatible value) against a compiled JSON-Schema document.
type SchemaLayer struct {
	name        string
	description string
	schema      *jsonschema.Schema
}

// NewSchemaLayer compiles schemaJSON once and returns a reusable Layer.
func NewSchemaLayer(name, description string, schemaJSON json.RawMessage) (*SchemaLayer, error) {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("validation: unmarshal schema %q: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	resourceID := "schema-" + name + ".json"
	if err := c.AddResource(resourceID, doc); err != nil {
		return nil, fmt.Errorf("validation: add schema resource %q: %w", name, err)
	}
	schema, err := c.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema %q: %w", name, err)
	}
	return &SchemaLayer{name: name, description: description, schema: schema}, nil
}

func (l *SchemaLayer) Name() string        { return l.name }
func (l *SchemaLayer) Description() string { return l.description }
func (l *SchemaLayer) Type() LayerType     { return LayerSchema }

// Validate validates candidate against the compiled schema. candidate must be
// a plain JSON-compatible value (map[string]any, []any, string, float64,
// bool, nil) as produced by json.Unmarshal into `any`; it is never mutated.
func (l *SchemaLayer) Validate(_ context.Context, candidate any) (any, error) {
	if err := l.schema.Validate(candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// PredicateFunc is an arbitrary validation predicate. It returns a narrowed
// value on success or an error describing the failure.
type PredicateFunc func(ctx context.Context, candidate any) (any, error)

// PredicateLayer wraps an arbitrary PredicateFunc as a Layer (spec §9: "unified
// behind the validation-layer interface").
type PredicateLayer struct {
	name        string
	description string
	fn          PredicateFunc
}

// NewPredicateLayer builds a custom Layer from fn.
func NewPredicateLayer(name, description string, fn PredicateFunc) *PredicateLayer {
	return &PredicateLayer{name: name, description: description, fn: fn}
}

func (l *PredicateLayer) Name() string        { return l.name }
func (l *PredicateLayer) Description() string { return l.description }
func (l *PredicateLayer) Type() LayerType     { return LayerCustom }

func (l *PredicateLayer) Validate(ctx context.Context, candidate any) (any, error) {
	return l.fn(ctx, candidate)
}
