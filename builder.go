package ocamlrep

import (
	"fmt"
	"unsafe"
)

// BlockBuilder is a block whose fields are still being written. Fields are
// written through the Allocator that reserved the block; Build freezes it.
type BlockBuilder struct {
	addr uintptr
	size int
}

// NewBlockBuilder wraps storage for size fields starting at addr. The header
// must already be written at addr - WordSize. Size 0 is not a block and panics.
func NewBlockBuilder(addr uintptr, size int) BlockBuilder {
	if size <= 0 {
		panic("ocamlrep: block size must be positive")
	}
	return BlockBuilder{addr: addr, size: size}
}

func (b BlockBuilder) Size() int {
	return b.size
}

// Address returns the address of field 0.
func (b BlockBuilder) Address() uintptr {
	return b.addr
}

// FieldAddress returns the address of field i, panicking when i >= Size().
func (b BlockBuilder) FieldAddress(i int) uintptr {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("ocamlrep: set_field index %d out of range for block of size %d", i, b.size))
	}
	return b.addr + uintptr(i*WordSize)
}

// StoreField writes field i with a plain store. Allocators whose memory is
// never observed by a collector use it to implement SetField.
func (b BlockBuilder) StoreField(i int, v Value) {
	*(*Value)(unsafe.Pointer(b.FieldAddress(i))) = v
}

// Bytes returns the raw field storage for byte-level writes (strings, doubles).
func (b BlockBuilder) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b.addr)), b.size*WordSize)
}

// Build returns the pointer Value of the finished block.
func (b BlockBuilder) Build() Value {
	return Value(b.addr)
}
