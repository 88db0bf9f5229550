// Package bump implements the scratch arena used by arena-scoped decoding.
//
// Decoding into an Arena places the backing storage of strings, byte slices and
// slices of pointer-free elements in arena chunks instead of individually owned
// heap allocations, so a whole decoded structure shares the arena's lifetime.
// Chunks are plain byte buffers and are never scanned for pointers, so only
// pointer-free data may live in them.
package bump

import (
	"reflect"
	"unsafe"
)

// DefaultChunkSize is the default chunk size for new arenas (16 KiB).
const DefaultChunkSize = 1 << 14

type chunk struct {
	buf    []byte
	offset uintptr
}

// Arena is a chunked bump allocator. Not goroutine-safe.
type Arena struct {
	chunks    []chunk
	chunkSize int
	released  bool
}

// New creates an Arena with the given chunk size.
// If chunkSize <= 0, DefaultChunkSize is used.
func New(chunkSize int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	a.grow(chunkSize)
	return a
}

// AllocBytes returns n zeroed bytes inside the arena, aligned to a machine word.
// Returns nil if n <= 0.
func (a *Arena) AllocBytes(n int) []byte {
	if a.released {
		panic("bump: use after Release()")
	}
	if n <= 0 {
		return nil
	}
	c := &a.chunks[len(a.chunks)-1]
	off := alignWord(c.offset)
	if off+uintptr(n) > uintptr(len(c.buf)) {
		a.grow(n)
		c = &a.chunks[len(a.chunks)-1]
		off = 0
	}
	c.offset = off + uintptr(n)
	return c.buf[off:c.offset:c.offset]
}

// CopyBytes copies b into the arena.
func (a *Arena) CopyBytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte{}
	}
	dst := a.AllocBytes(len(b))
	copy(dst, b)
	return dst
}

// CopyString copies b into the arena and returns it as a string that aliases
// arena memory.
func (a *Arena) CopyString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	dst := a.CopyBytes(b)
	return unsafe.String(&dst[0], len(dst))
}

// AllocSlice returns a zeroed slice of n elements of T inside the arena.
// T must not contain pointers.
func AllocSlice[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	b := a.AllocBytes(int(unsafe.Sizeof(zero)) * n)
	if len(b) == 0 {
		return make([]T, n)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// MakeSlice is the reflective form of AllocSlice. It returns false when
// elem holds pointers or is zero-sized and therefore cannot live in the arena.
func (a *Arena) MakeSlice(sliceType reflect.Type, n int) (reflect.Value, bool) {
	elem := sliceType.Elem()
	if n <= 0 || elem.Size() == 0 || HasPointers(elem) {
		return reflect.Value{}, false
	}
	b := a.AllocBytes(int(elem.Size()) * n)
	return reflect.SliceAt(elem, unsafe.Pointer(&b[0]), n).Convert(sliceType), true
}

// Reset keeps the most recent chunk and makes all of its memory available again.
// Slices and strings handed out earlier must no longer be used.
func (a *Arena) Reset() {
	if a.released {
		panic("bump: use after Release()")
	}
	for i := range a.chunks {
		clear(a.chunks[i].buf[:a.chunks[i].offset])
		a.chunks[i].offset = 0
	}
	if len(a.chunks) > 1 {
		a.chunks = a.chunks[len(a.chunks)-1:]
	}
}

// Release drops all chunks and makes the arena unusable.
func (a *Arena) Release() {
	a.chunks = nil
	a.released = true
}

// SizeInUse returns the number of bytes handed out, including alignment padding.
func (a *Arena) SizeInUse() int {
	sum := 0
	for _, c := range a.chunks {
		sum += int(c.offset)
	}
	return sum
}

// NumChunks returns the number of chunks currently owned by the arena.
func (a *Arena) NumChunks() int {
	return len(a.chunks)
}

func (a *Arena) grow(minSize int) {
	size := a.chunkSize
	if minSize > size {
		size = minSize
	}
	a.chunks = append(a.chunks, chunk{buf: make([]byte, size)})
}

func alignWord(off uintptr) uintptr {
	const mask = unsafe.Sizeof(uintptr(0)) - 1
	return (off + mask) &^ mask
}

// HasPointers reports whether values of t contain Go pointers.
func HasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && HasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if HasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
