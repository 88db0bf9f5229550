// Package transcoder converts Go values to and from OCaml values by
// reflection.
//
// The shape of each Go type is compiled once into a CompiledType that
// decides its OCaml representation:
//
//	Go type                     OCaml value
//	───────────────────────────────────────────────────────────────
//	bool                        immediate 0 / 1
//	int*, uint*                 immediate (decode range-checked)
//	float32, float64            Double block (tag 253)
//	string, []byte              byte string (tag 252)
//	[]T, [N]T                   cons list, [] is immediate 0
//	struct                      tag-0 block of exported fields, or unit
//	*T                          T, shared when reached twice
//	map[K]V                     balanced Map tree over sorted keys
//	map[K]struct{}              balanced Set tree
//	registered interface        sum type (see RegisterVariants)
//	ocamlrep.Value              raw word
//	any                         the dynamic type's representation
//
// Types that implement ocamlrep.ToOCamlRep or ocamlrep.FromOCamlRep (with
// a pointer receiver for the latter) convert themselves. Fields tagged
// `ocaml:"-"` are not encoded and decode to their zero value.
//
// # Encoding Flow
//
//  1. Compiler.Compile(goType) → CompiledType
//  2. Encoder.Encode(value) → ocamlrep.Value, allocating through the
//     Encoder's ocamlrep.Allocator
//
// AddRoot wraps step 2 in the allocator's root scope so that pointers,
// slices and strings reached more than once are encoded once.
//
// # Decoding Flow
//
//  1. Compiler.Compile(goType) → CompiledType
//  2. Decoder.Decode(value, &out) validates tags, sizes and ranges and
//     reports the first mismatch as an *errors.Error, attributing nested
//     failures to their field index
//
// A Decoder created with NewScratchDecoder copies strings, byte slices and
// pointer-free slices into a bump arena instead of the Go heap.
//
// # Thread Safety
//
// Compiler and CompiledType are safe for concurrent use. Encoders share
// the single-threaded discipline of their Allocator.
//
// # Error Handling
//
// Encoding is total over supported types; an unsupported type or a nil
// pointer panics with an *errors.Error. Decoding returns errors:
//
//	[decode] error_in_field: failed to convert field 1 (caused by: [decode] wrong_block_size: ...)
package transcoder
