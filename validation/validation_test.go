package validation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRunSuccessThreadsNarrowedValue(t *testing.T) {
	upper := NewPredicateLayer("upper", "requires non-empty", func(_ context.Context, candidate any) (any, error) {
		m := candidate.(map[string]any)
		if m["result"] == "" {
			return nil, errors.New("result must not be empty")
		}
		return map[string]any{"result": m["result"], "seen": true}, nil
	})
	lenLayer := NewPredicateLayer("len", "requires length >= 3", func(_ context.Context, candidate any) (any, error) {
		m := candidate.(map[string]any)
		require.True(t, m["seen"].(bool), "should observe narrowed value from prior layer")
		s := m["result"].(string)
		if len(s) < 3 {
			return nil, errors.New("too short")
		}
		return candidate, nil
	})
	p := Pipeline{Layers: []Layer{upper, lenLayer}}
	out, failed, cancelled := p.Run(context.Background(), map[string]any{"result": "hello"})
	require.Nil(t, failed)
	require.NoError(t, cancelled)
	assert.Equal(t, "hello", out.(map[string]any)["result"])
}

func TestPipelineRunShortCircuitsOnFirstFailure(t *testing.T) {
	var secondCalled bool
	first := NewPredicateLayer("first", "", func(_ context.Context, _ any) (any, error) {
		return nil, errors.New("always fails")
	})
	second := NewPredicateLayer("second", "", func(_ context.Context, c any) (any, error) {
		secondCalled = true
		return c, nil
	})
	p := Pipeline{Layers: []Layer{first, second}}
	_, failed, cancelled := p.Run(context.Background(), map[string]any{})
	require.NotNil(t, failed)
	require.NoError(t, cancelled)
	assert.Equal(t, "first", failed.Name)
	assert.False(t, secondCalled)
}

func TestPipelineObserverHooksFire(t *testing.T) {
	var started, completed []string
	layer := NewPredicateLayer("only", "desc", func(_ context.Context, c any) (any, error) {
		return c, nil
	})
	p := Pipeline{
		Layers: []Layer{layer},
		OnLayerStart: func(l Layer) {
			started = append(started, l.Name())
		},
		OnLayerComplete: func(r LayerResult) {
			completed = append(completed, r.Name)
		},
	}
	_, failed, cancelled := p.Run(context.Background(), "candidate")
	require.Nil(t, failed)
	require.NoError(t, cancelled)
	assert.Equal(t, []string{"only"}, started)
	assert.Equal(t, []string{"only"}, completed)
}

func TestPipelineRunReturnsCancellationDistinctFromLayerResult(t *testing.T) {
	var layerCalled bool
	var onCompleteCalled bool
	layer := NewPredicateLayer("only", "desc", func(_ context.Context, c any) (any, error) {
		layerCalled = true
		return c, nil
	})
	p := Pipeline{
		Layers: []Layer{layer},
		OnLayerComplete: func(r LayerResult) {
			onCompleteCalled = true
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	narrowed, failed, cancelled := p.Run(ctx, "candidate")

	require.Error(t, cancelled)
	assert.ErrorIs(t, cancelled, context.Canceled)
	assert.Nil(t, failed)
	assert.Nil(t, narrowed)
	assert.False(t, layerCalled, "a cancelled context must be observed before invoking any layer")
	assert.False(t, onCompleteCalled, "cancellation is not a layer outcome and must not fire OnLayerComplete")
}

func TestSchemaLayerValidatesAgainstCompiledSchema(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"result": {"type": "string", "minLength": 10}},
		"required": ["result"]
	}`)
	layer, err := NewSchemaLayer("output", "the output schema", schema)
	require.NoError(t, err)

	_, failErr := layer.Validate(context.Background(), map[string]any{"result": "short"})
	assert.Error(t, failErr)

	narrowed, okErr := layer.Validate(context.Background(), map[string]any{"result": "long enough value"})
	require.NoError(t, okErr)
	assert.Equal(t, "long enough value", narrowed.(map[string]any)["result"])
}

func TestFormatIncludesLayerNameAndDescription(t *testing.T) {
	res := LayerResult{Name: "output", Description: "the output schema", Type: LayerSchema, Err: errors.New("boom")}
	out := Format(res)
	assert.Contains(t, out, `"output"`)
	assert.Contains(t, out, "the output schema")
	assert.Contains(t, out, "boom")
}

func TestToAgentErrorCarriesAttemptAndLayerContext(t *testing.T) {
	res := LayerResult{Name: "output", Err: errors.New("bad")}
	agentErr := ToAgentError(res, 2)
	assert.Equal(t, "VALIDATION_FAILED", agentErr.Code)
	assert.Equal(t, 2, agentErr.Context["attempt"])
	assert.Equal(t, "output", agentErr.Context["layer"])
}
