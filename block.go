package ocamlrep

import (
	"fmt"
	"unsafe"
)

// Block is a read-only view of a heap block: the header word followed by
// Size() fields. The zero Block is invalid.
type Block struct {
	addr uintptr
}

// BlockAt returns the block whose first field is at addr.
func BlockAt(addr uintptr) Block {
	return Block{addr: addr}
}

func (b Block) Header() Header {
	return *(*Header)(unsafe.Pointer(b.addr - uintptr(WordSize)))
}

func (b Block) Size() int {
	return b.Header().Size()
}

func (b Block) Tag() uint8 {
	return b.Header().Tag()
}

// Address returns the address of field 0.
func (b Block) Address() uintptr {
	return b.addr
}

// Value returns the pointer Value of this block.
func (b Block) Value() Value {
	return Value(b.addr)
}

// Field returns field i. It panics if i is out of range.
func (b Block) Field(i int) Value {
	if i < 0 || i >= b.Size() {
		panic(fmt.Sprintf("ocamlrep: field index %d out of range for block of size %d", i, b.Size()))
	}
	return *(*Value)(unsafe.Pointer(b.addr + uintptr(i*WordSize)))
}

// Fields returns the fields as a slice aliasing block memory.
func (b Block) Fields() []Value {
	n := b.Size()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*Value)(unsafe.Pointer(b.addr)), n)
}

// Bytes returns the raw field storage, Size()*WordSize bytes aliasing block memory.
func (b Block) Bytes() []byte {
	n := b.Size() * WordSize
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(b.addr)), n)
}

// StringBytes returns the content of a byte-string block. The trailing byte of
// the last word holds the padding count, so the length is
// Size()*WordSize - padding - 1. The result aliases block memory.
func (b Block) StringBytes() []byte {
	raw := b.Bytes()
	if len(raw) == 0 {
		return nil
	}
	padding := int(raw[len(raw)-1])
	n := len(raw) - padding - 1
	if n < 0 {
		n = 0
	}
	return raw[:n:n]
}
