package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOkErr(t *testing.T) {
	ok := Ok(42)
	assert.True(t, ok.IsOk())
	assert.False(t, ok.IsErr())
	v, present := ok.Value()
	assert.True(t, present)
	assert.Equal(t, 42, v)
	assert.NoError(t, ok.Error())

	failure := Err[int](errors.New("boom"))
	assert.True(t, failure.IsErr())
	_, present = failure.Value()
	assert.False(t, present)
	assert.EqualError(t, failure.Error(), "boom")
}

func TestErrNilReplacedWithGenericFailure(t *testing.T) {
	r := Err[string](nil)
	require.True(t, r.IsErr())
	assert.Error(t, r.Error())
}

func TestUnwrapOr(t *testing.T) {
	assert.Equal(t, 1, UnwrapOr(Ok(1), 99))
	assert.Equal(t, 99, UnwrapOr(Err[int](errors.New("x")), 99))
}

func TestMap(t *testing.T) {
	doubled := Map(Ok(21), func(n int) int { return n * 2 })
	v, _ := doubled.Value()
	assert.Equal(t, 42, v)

	failed := Err[int](errors.New("nope"))
	mapped := Map(failed, func(n int) int {
		t.Fatal("f must not be called on a failed Result")
		return n
	})
	assert.True(t, mapped.IsErr())
}

func TestMapError(t *testing.T) {
	wrapped := MapError(Err[int](errors.New("low level")), func(err error) error {
		return errors.New("wrapped: " + err.Error())
	})
	assert.EqualError(t, wrapped.Error(), "wrapped: low level")

	untouched := MapError(Ok(5), func(err error) error {
		t.Fatal("f must not be called on a successful Result")
		return err
	})
	v, _ := untouched.Value()
	assert.Equal(t, 5, v)
}

func TestChain(t *testing.T) {
	parseThenDouble := Chain(Ok(10), func(n int) Result[int] {
		return Ok(n * 2)
	})
	v, _ := parseThenDouble.Value()
	assert.Equal(t, 20, v)

	shortCircuited := Chain(Err[int](errors.New("fail")), func(n int) Result[int] {
		t.Fatal("f must not be called on a failed Result")
		return Ok(n)
	})
	assert.True(t, shortCircuited.IsErr())
}

func TestAll(t *testing.T) {
	all := All([]Result[int]{Ok(1), Ok(2), Ok(3)})
	v, ok := all.Value()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, v)

	withFailure := All([]Result[int]{Ok(1), Err[int](errors.New("second failed")), Ok(3)})
	assert.True(t, withFailure.IsErr())
	assert.EqualError(t, withFailure.Error(), "second failed")
}
