package extension

import (
	"context"
	"fmt"

	"github.com/panelkit/panel/internal/state"
)

// Args is the ordered, untyped argument list of a call.
type Args []any

// Arg returns args[i] as a T. ok is false when i is out of range or the value
// has a different concrete type.
func Arg[T any](args Args, i int) (T, bool) {
	if i < 0 || i >= len(args) {
		var zero T
		return zero, false
	}
	return As[T](args[i])
}

// As returns v as a T. ok is false on a type mismatch, including a nil v.
func As[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// CallAs dispatches name through c and converts the result to T.
//
// handled is false when no extension recognized name; that is not an error.
// When the handler answered with an error value (and T is not itself an error
// type) that error is returned. Any other mismatch yields ErrResultType.
func CallAs[T any](ctx context.Context, c state.Caller, name string, args ...any) (result T, handled bool, err error) {
	v, handled := c.Call(ctx, name, args...)
	if !handled {
		return result, false, nil
	}
	if t, ok := As[T](v); ok {
		return t, true, nil
	}
	if e, ok := v.(error); ok {
		return result, true, e
	}
	return result, true, fmt.Errorf("%w: call %q returned %T, want %T", ErrResultType, name, v, result)
}
