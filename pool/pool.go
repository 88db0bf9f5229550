package pool

import (
	"go.uber.org/zap"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/transcoder"
)

// Heap is the block-reservation service of a foreign runtime whose heap is
// garbage collected.
//
// Enter and Leave bracket an allocation section. Between them ReserveBlock
// returns the address of field 0 of a fresh block whose header is already
// written, and Initialize performs the runtime's managed write of one field.
// Generation reports the runtime's current allocation generation.
//
// Failwith turns msg into the runtime's failure signal and returns it as an
// exception result (see IsExceptionResult). It may be called inside an
// allocation section held further up the stack, and must then allocate in
// that section without entering a new one.
type Heap interface {
	Enter()
	Leave()
	ReserveBlock(tag uint8, size int) uintptr
	Initialize(addr uintptr, v ocamlrep.Value)
	Generation() uint64
	Failwith(msg string) ocamlrep.Value
}

// Pool allocates directly on a Heap.
//
// A Pool owns the heap's allocation section from New until Close. The
// section is global runtime state: at most one Pool may be open in the
// process at any time, and only one goroutine may use it. This is a
// precondition, not something Pool checks.
type Pool struct {
	heap   Heap
	cache  ocamlrep.MemoCache
	closed bool
}

var _ ocamlrep.Allocator = (*Pool)(nil)

// New enters h's allocation section.
func New(h Heap) *Pool {
	h.Enter()
	Logger().Debug("pool entered", zap.Uint64("generation", h.Generation()))
	return &Pool{heap: h}
}

// Close leaves the allocation section. Closing twice is a no-op.
func (p *Pool) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.heap.Leave()
	Logger().Debug("pool left")
}

// Generation is read from the heap on every call: the runtime allocates on
// its own behalf and advances it independently of this Pool.
func (p *Pool) Generation() uint64 {
	return p.heap.Generation()
}

func (p *Pool) BlockWithSizeAndTag(size int, tag uint8) ocamlrep.BlockBuilder {
	if size <= 0 {
		panic("pool: block size must be positive")
	}
	return ocamlrep.NewBlockBuilder(p.heap.ReserveBlock(tag, size), size)
}

// SetField bounds-checks index and writes through the heap's Initialize.
func (p *Pool) SetField(b *ocamlrep.BlockBuilder, index int, v ocamlrep.Value) {
	p.heap.Initialize(b.FieldAddress(index), v)
}

func (p *Pool) Memoized(addr uintptr, size int, compute func() ocamlrep.Value) ocamlrep.Value {
	return p.cache.Memoized(addr, size, compute)
}

func (p *Pool) AddRoot(f func() ocamlrep.Value) ocamlrep.Value {
	return p.cache.WithCache(f)
}

// Add encodes v on the heap without opening a root scope.
func (p *Pool) Add(v any) ocamlrep.Value {
	return transcoder.Encode(p, v)
}

// ToOCaml opens a Pool on h, converts v as one root conversion and closes
// the Pool again.
func ToOCaml(h Heap, v any) ocamlrep.Value {
	p := New(h)
	defer p.Close()
	return transcoder.AddRoot(p, v)
}

// AddToAmbientPool converts v on h while some caller further up the stack
// holds the allocation section open. Nothing is entered or left, and sharing
// between references to the same source is not preserved.
func AddToAmbientPool(h Heap, v any) ocamlrep.Value {
	p := &Pool{heap: h}
	return transcoder.Encode(p, v)
}

// IsExceptionResult reports whether v is an exception result: a block
// pointer with bit 1 set.
func IsExceptionResult(v ocamlrep.Value) bool {
	return v&3 == 2
}

// ExceptionResult returns the exception carried by the exception result v.
func ExceptionResult(v ocamlrep.Value) ocamlrep.Value {
	return v &^ 3
}

// MakeExceptionResult marks the exception value exn as an exception result.
func MakeExceptionResult(exn ocamlrep.Value) ocamlrep.Value {
	return exn | 2
}
