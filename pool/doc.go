// Package pool allocates OCaml values directly on a foreign runtime's
// garbage-collected heap.
//
// A Pool wraps a Heap, the runtime's block-reservation service. Opening a
// Pool enters the runtime's allocation section and closing it leaves the
// section; in between, blocks are reserved on the runtime's heap and every
// field is written through the runtime's managed write, so values built
// through a Pool are ordinary runtime values.
//
//	v := pool.ToOCaml(heap, map[string]int{"a": 1})
//
// # Panics at the boundary
//
// A panic must not unwind into the foreign runtime. CatchPanic recovers it
// and raises the panic message as a runtime failure instead:
//
//	entry := pool.Func1(heap, func(names []string) int { return len(names) })
//	result := entry(arg) // failure when arg is not a string list
//
// The failure comes back as an exception result; IsExceptionResult and
// ExceptionResult inspect it.
//
// # Concurrency
//
// The allocation section is process-wide state. At most one Pool may be
// open at a time, on one goroutine.
package pool
