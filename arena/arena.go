package arena

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/ocamlrep"
)

// DefaultCapacity is the size in bytes of the first chunk of an arena
// created with New.
const DefaultCapacity = 4096

const minCapacityWords = 2

// Config holds configuration for arena creation
type Config struct {
	// InitialCapacity is the size in bytes of the first chunk.
	// 0 means DefaultCapacity. Values below two words are rounded up.
	InitialCapacity int
}

type chunk struct {
	words []uintptr
	used  int
}

func newChunk(capacityWords int) chunk {
	return chunk{words: make([]uintptr, capacityWords)}
}

func (c *chunk) remaining() int {
	return len(c.words) - c.used
}

// Arena is a private, growable allocator. Blocks live in Go-allocated word
// chunks that are never moved or freed before the arena itself is dropped,
// so every Value it returns stays valid for the arena's lifetime.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	current    chunk
	previous   []chunk
	generation uint64
	cache      ocamlrep.MemoCache
}

var _ ocamlrep.Allocator = (*Arena)(nil)

// New creates an arena with DefaultCapacity.
func New() *Arena {
	return NewWithConfig(nil)
}

// WithCapacity creates an arena whose first chunk holds capacity bytes.
func WithCapacity(capacity int) *Arena {
	return NewWithConfig(&Config{InitialCapacity: capacity})
}

// NewWithConfig creates an arena with custom configuration
func NewWithConfig(cfg *Config) *Arena {
	capacity := DefaultCapacity
	if cfg != nil && cfg.InitialCapacity > 0 {
		capacity = cfg.InitialCapacity
	}
	words := max(capacity/ocamlrep.WordSize, minCapacityWords)
	a := &Arena{
		current:    newChunk(words),
		generation: ocamlrep.NextGeneration(),
	}
	Logger().Debug("arena created",
		zap.Uint64("generation", a.generation),
		zap.Int("capacity_words", words))
	return a
}

// Generation returns the session identifier assigned at construction.
func (a *Arena) Generation() uint64 {
	return a.generation
}

// alloc reserves n contiguous words and returns the index-0 address.
func (a *Arena) alloc(n int) uintptr {
	if a.current.remaining() < n {
		a.grow(n)
	}
	c := &a.current
	addr := uintptr(unsafe.Pointer(&c.words[c.used]))
	c.used += n
	return addr
}

func (a *Arena) grow(requested int) {
	prevCap := len(a.current.words)
	newCap := max(2*requested, prevCap)
	a.previous = append(a.previous, a.current)
	a.current = newChunk(newCap)
	Logger().Debug("arena chunk added",
		zap.Uint64("generation", a.generation),
		zap.Int("requested_words", requested),
		zap.Int("previous_capacity", prevCap),
		zap.Int("capacity_words", newCap),
		zap.Int("chunks", len(a.previous)+1))
}

// BlockWithSizeAndTag reserves size fields plus a header word. The header is
// written directly: arena memory is never scanned by a collector.
func (a *Arena) BlockWithSizeAndTag(size int, tag uint8) ocamlrep.BlockBuilder {
	if size <= 0 {
		panic("arena: block size must be positive")
	}
	base := a.alloc(size + 1)
	*(*ocamlrep.Header)(unsafe.Pointer(base)) = ocamlrep.NewHeader(size, tag)
	return ocamlrep.NewBlockBuilder(base+uintptr(ocamlrep.WordSize), size)
}

// SetField writes field index with a plain store.
func (a *Arena) SetField(b *ocamlrep.BlockBuilder, index int, v ocamlrep.Value) {
	b.StoreField(index, v)
}

func (a *Arena) Memoized(addr uintptr, size int, compute func() ocamlrep.Value) ocamlrep.Value {
	return a.cache.Memoized(addr, size, compute)
}

// AddRoot runs f as one root conversion. Sources reached more than once
// inside f are encoded once. Nested calls panic.
func (a *Arena) AddRoot(f func() ocamlrep.Value) ocamlrep.Value {
	return a.cache.WithCache(f)
}
