package ocamlrep

import (
	"fmt"
	"unsafe"
)

// WordSize is the size in bytes of one Value.
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// Value is one machine word of the OCaml runtime's uniform representation.
//
// Encoding scheme:
//   - Immediate: lowest bit 1, payload (word >> 1) read as a signed integer
//   - Block: lowest bit 0, address of the block's first field; the header
//     word sits one word below that address
//
// A Value pointing into an allocator's memory is only valid while the
// allocator is alive.
type Value uintptr

// Unit is the immediate 0, also used for (), false, None and [].
const Unit Value = 1

// Int returns the immediate encoding of n. The top bit of n is lost.
func Int(n int) Value {
	return Value(uintptr(n)<<1 | 1)
}

// Bool returns the immediate encoding of b.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// FromBits reinterprets raw bits as a Value. The caller guarantees that the
// bits are either an immediate or the address of a live block.
func FromBits(bits uintptr) Value {
	return Value(bits)
}

// Bits returns the raw word.
func (v Value) Bits() uintptr {
	return uintptr(v)
}

// IsInt reports whether v is an immediate integer.
func (v Value) IsInt() bool {
	return v&1 == 1
}

// IsBlock reports whether v is a pointer to a block.
func (v Value) IsBlock() bool {
	return v&1 == 0
}

// AsInt returns the immediate payload of v.
func (v Value) AsInt() (int, bool) {
	if !v.IsInt() {
		return 0, false
	}
	return int(v) >> 1, true
}

// AsBlock returns the block v points to.
func (v Value) AsBlock() (Block, bool) {
	if !v.IsBlock() {
		return Block{}, false
	}
	return Block{addr: uintptr(v)}, true
}

// String renders immediates as numbers and blocks by tag and size only.
func (v Value) String() string {
	if n, ok := v.AsInt(); ok {
		return fmt.Sprintf("%d", n)
	}
	b, _ := v.AsBlock()
	return fmt.Sprintf("<block tag=%d size=%d at 0x%x>", b.Tag(), b.Size(), b.addr)
}
