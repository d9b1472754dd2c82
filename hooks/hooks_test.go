package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeInvokeRunsFunction(t *testing.T) {
	var called bool
	var errs []error
	SafeInvoke(&errs, func() { called = true })
	assert.True(t, called)
	assert.Empty(t, errs)
}

func TestSafeInvokeRecoversPanic(t *testing.T) {
	var errs []error
	SafeInvoke(&errs, func() { panic("boom") })
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "boom")
}

func TestSafeInvokeAccumulatesAcrossCalls(t *testing.T) {
	var errs []error
	SafeInvoke(&errs, func() { panic("first") })
	SafeInvoke(&errs, func() {})
	SafeInvoke(&errs, func() { panic("second") })
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "first")
	assert.Contains(t, errs[1].Error(), "second")
}

func TestNoopObserverSatisfiesInterface(t *testing.T) {
	var o Observer = NoopObserver{}
	o.OnAttemptStart(AttemptContext{Attempt: 1})
	o.OnSuccess(nil, Metadata{})
}
