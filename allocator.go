package ocamlrep

import (
	"math"
)

// Allocator reserves blocks in some heap and writes their fields.
//
// Allocation failure is fatal: implementations panic rather than return
// errors. SetField with an index past the block's size panics.
type Allocator interface {
	// Generation identifies the allocation session. Values cached under one
	// generation must not be reused under another.
	Generation() uint64

	// BlockWithSizeAndTag reserves a block of size fields (size > 0).
	BlockWithSizeAndTag(size int, tag uint8) BlockBuilder

	// SetField writes field index of b.
	SetField(b *BlockBuilder, index int, v Value)

	// Memoized returns the Value cached for (addr, size) in the active root
	// conversion, or calls compute and caches its result.
	Memoized(addr uintptr, size int, compute func() Value) Value

	// AddRoot runs a top-level conversion inside a fresh memoization scope.
	// Nested AddRoot calls panic.
	AddRoot(f func() Value) Value
}

// BlockWithSize reserves a tag-0 block.
func BlockWithSize(a Allocator, size int) BlockBuilder {
	return a.BlockWithSizeAndTag(size, 0)
}

// NewBlock reserves a block holding fields. Zero fields yield Unit.
func NewBlock(a Allocator, tag uint8, fields ...Value) Value {
	if len(fields) == 0 {
		return Unit
	}
	b := a.BlockWithSizeAndTag(len(fields), tag)
	for i, f := range fields {
		a.SetField(&b, i, f)
	}
	return b.Build()
}

// AllocList builds a cons list from vals, last element innermost.
func AllocList(a Allocator, vals []Value) Value {
	list := Int(0)
	for i := len(vals) - 1; i >= 0; i-- {
		b := BlockWithSize(a, 2)
		a.SetField(&b, 0, vals[i])
		a.SetField(&b, 1, list)
		list = b.Build()
	}
	return list
}

// AllocBytes writes data as a byte-string block.
//
// The block has (len+WordSize)/WordSize words. The bytes after data are zero
// except the very last one, which holds the padding count
// words*WordSize - len - 1.
func AllocBytes(a Allocator, data []byte) Value {
	words := (len(data) + WordSize) / WordSize
	b := a.BlockWithSizeAndTag(words, StringTag)
	raw := b.Bytes()
	n := copy(raw, data)
	clear(raw[n:])
	raw[len(raw)-1] = byte(len(raw) - len(data) - 1)
	return b.Build()
}

// AllocString writes s as a byte-string block.
func AllocString(a Allocator, s string) Value {
	return AllocBytes(a, []byte(s))
}

// AllocFloat boxes f in a single-field DoubleTag block.
func AllocFloat(a Allocator, f float64) Value {
	b := a.BlockWithSizeAndTag(1, DoubleTag)
	a.SetField(&b, 0, Value(uintptr(math.Float64bits(f))))
	return b.Build()
}
