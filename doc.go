// Package ocamlrep converts Go values to and from the OCaml runtime's uniform
// memory representation.
//
// Every OCaml value is one machine word. A word with its low bit set is an
// immediate integer; any other word is the address of a block's first field,
// with the block header stored in the word just below it.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	ocamlrep/            Value, Block, Header, the Allocator interface and
//	                     the shared encoding helpers (lists, strings, trees)
//	├── arena/           Private, growable, non-collected Allocator
//	├── pool/            Allocator bracketed by a foreign runtime's heap
//	├── wasmheap/        pool.Heap backed by a WebAssembly guest's memory
//	├── transcoder/      Reflection-driven conversion of Go types
//	├── schema/          Conversion of dynamic values against WIT shapes
//	├── bump/            Scratch arena for borrowed decoding
//	├── errors/          Structured decode and conversion errors
//	└── cmd/repview      Inspect the representation of data files
//
// # Quick Start
//
// Encode a Go value into an arena and read it back:
//
//	a := arena.New()
//	v := transcoder.AddRoot(a, map[string][]int{"a": {1, 2}})
//
//	var out map[string][]int
//	if err := transcoder.Decode(v, &out); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sharing
//
// Within one AddRoot call, sources reached more than once (pointers, slices
// and strings with the same address and length) are encoded once, and every
// reference receives the same Value. The cache is dropped when the call
// returns.
//
// The cache key is the address and byte size of the source, not its type.
// Two differently typed sources that start at the same address and span the
// same bytes collide: in one root, a one-element []int and a pointer to that
// element are encoded as the same list block, and the pointer no longer
// decodes as an int. Encode such values in separate roots, or copy the
// element.
//
// # Thread Safety
//
// Allocators are single-threaded. Values are only valid while the allocator
// that produced them is alive.
package ocamlrep
