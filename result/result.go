// Package result provides the success/failure vocabulary used throughout the
// agent runtime. No internal operation throws across a component boundary;
// every call that can fail returns a Result[T] (or, for APIs that have to
// interoperate with stdlib-shaped callers, a plain error built from the same
// AgentError taxonomy). Result is deliberately small: construct with Ok/Err,
// inspect with IsOk/IsErr, and transform with Map/MapError/Chain/UnwrapOr.
package result

import "fmt"

// Result is a tagged success/failure value. The zero Result is a failure
// with a nil error; callers should always construct Results via Ok or Err.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok constructs a successful Result carrying value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err constructs a failed Result carrying err. A nil err is replaced with a
// generic failure so IsErr is always true for the returned Result.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("result: nil error")
	}
	return Result[T]{err: err}
}

// IsOk reports whether r represents success.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether r represents failure.
func (r Result[T]) IsErr() bool { return !r.ok }

// Value returns the success value and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) { return r.value, r.ok }

// Error returns the failure error, or nil if r is successful.
func (r Result[T]) Error() error { return r.err }

// UnwrapOr returns the success value, or fallback if r is a failure.
func UnwrapOr[T any](r Result[T], fallback T) T {
	if r.ok {
		return r.value
	}
	return fallback
}

// Map transforms a successful Result's value with f, leaving a failed
// Result untouched. f is not called when r is a failure.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.ok {
		return Result[U]{err: r.err}
	}
	return Ok(f(r.value))
}

// MapError transforms a failed Result's error with f, leaving a successful
// Result untouched. f is not called when r is a success.
func MapError[T any](r Result[T], f func(error) error) Result[T] {
	if r.ok {
		return r
	}
	return Err[T](f(r.err))
}

// Chain sequences a fallible operation after a successful Result. If r is a
// failure, its error is propagated without calling f.
func Chain[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.ok {
		return Result[U]{err: r.err}
	}
	return f(r.value)
}

// All collects a slice of Results into a single Result of the slice of
// values. It fails on the first failure encountered, in order.
func All[T any](rs []Result[T]) Result[[]T] {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		if !r.ok {
			return Result[[]T]{err: r.err}
		}
		out = append(out, r.value)
	}
	return Ok(out)
}
