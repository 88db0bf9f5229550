package pool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/transcoder"
)

// PanicHandler decides what a caught panic becomes. It receives the panic
// message and returns either a Value to hand back to the runtime or an
// error whose message is raised with Failwith.
type PanicHandler func(msg string) (ocamlrep.Value, error)

// CatchPanic runs f and returns its result. A panic in f is recovered and
// raised on h as a failure carrying the panic message, so it never unwinds
// into the foreign runtime.
func CatchPanic(h Heap, f func() ocamlrep.Value) ocamlrep.Value {
	return CatchPanicWithHandler(h, f, func(msg string) (ocamlrep.Value, error) {
		return 0, fmt.Errorf("%s", msg)
	})
}

// CatchPanicWithHandler is CatchPanic with the recovered message passed to
// handler first.
func CatchPanicWithHandler(h Heap, f func() ocamlrep.Value, handler PanicHandler) (result ocamlrep.Value) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		msg := panicMessage(r)
		Logger().Debug("panic captured", zap.String("message", msg))
		v, err := handler(msg)
		if err != nil {
			result = h.Failwith(err.Error())
			return
		}
		result = v
	}()
	return f()
}

func panicMessage(r any) string {
	switch x := r.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("panicked with non-string object: %v", x)
	}
}

// Func0 adapts f into a foreign entry point taking unit. The result is
// converted with ToOCaml; panics become failures.
func Func0[R any](h Heap, f func() R) func(ocamlrep.Value) ocamlrep.Value {
	return func(ocamlrep.Value) ocamlrep.Value {
		return CatchPanic(h, func() ocamlrep.Value {
			return ToOCaml(h, f())
		})
	}
}

// Func1 adapts f into a foreign entry point of one argument. A malformed
// argument is raised as a failure naming the decode error.
func Func1[A, R any](h Heap, f func(A) R) func(ocamlrep.Value) ocamlrep.Value {
	return func(arg ocamlrep.Value) ocamlrep.Value {
		return CatchPanic(h, func() ocamlrep.Value {
			return ToOCaml(h, f(mustDecode[A](arg)))
		})
	}
}

// Func2 is Func1 for two arguments.
func Func2[A, B, R any](h Heap, f func(A, B) R) func(ocamlrep.Value, ocamlrep.Value) ocamlrep.Value {
	return func(a, b ocamlrep.Value) ocamlrep.Value {
		return CatchPanic(h, func() ocamlrep.Value {
			return ToOCaml(h, f(mustDecode[A](a), mustDecode[B](b)))
		})
	}
}

func mustDecode[T any](v ocamlrep.Value) T {
	var out T
	if err := transcoder.Decode(v, &out); err != nil {
		panic(err)
	}
	return out
}
