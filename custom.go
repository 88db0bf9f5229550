package ocamlrep

import (
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/ocamlrep/errors"
)

// CustomOperations stands in for a runtime's custom-operations descriptor
// when no real runtime supplies one. Only its address matters.
type CustomOperations struct {
	Identifier string
}

var (
	defaultInt64Ops = CustomOperations{Identifier: "_j"}
	int64Ops        atomic.Uintptr
)

func init() {
	int64Ops.Store(uintptr(unsafe.Pointer(&defaultInt64Ops)))
}

// Int64Ops returns the descriptor address written into boxed Int64 blocks.
func Int64Ops() uintptr {
	return int64Ops.Load()
}

// SetInt64Ops installs the runtime's caml_int64_ops address and returns the
// previous one. Boxed Int64 values decode only against the current address.
func SetInt64Ops(addr uintptr) uintptr {
	return int64Ops.Swap(addr)
}

// Int64 is OCaml's boxed Int64.t: a two-field CustomTag block holding the
// operations pointer and the raw 64-bit payload.
type Int64 int64

func (i Int64) ToOCamlRep(e Encoder) Value {
	a := e.Alloc()
	b := a.BlockWithSizeAndTag(2, CustomTag)
	a.SetField(&b, 0, Value(Int64Ops()))
	a.SetField(&b, 1, Value(uintptr(i)))
	return b.Build()
}

func (i *Int64) FromOCamlRep(_ Decoder, v Value) error {
	b, err := ExpectBlockWithSizeAndTag(v, 2, CustomTag)
	if err != nil {
		return err
	}
	if ops := uintptr(b.Field(0)); ops != Int64Ops() {
		return errors.UnexpectedCustomOps(Int64Ops(), ops)
	}
	*i = Int64(int64(b.Field(1)))
	return nil
}

const intBits = 8 * WordSize

// OCamlInt is an int guaranteed to fit OCaml's tagged integer range, i.e.
// its two most significant bits are equal.
type OCamlInt int

// NewOCamlInt accepts i only when its two most significant bits are equal.
func NewOCamlInt(i int) (OCamlInt, error) {
	msbs := uint(i) & (uint(3) << (intBits - 2))
	if msbs == 0 || msbs == uint(3)<<(intBits-2) {
		return OCamlInt(i), nil
	}
	return 0, errors.Expected63BitInt(i)
}

// OCamlIntEraseMSB brings any int into range by replacing the most
// significant bit with the second one. Values already in range are unchanged.
func OCamlIntEraseMSB(i int) OCamlInt {
	top := uint(1) << (intBits - 1)
	second := uint(1) << (intBits - 2)
	u := uint(i)
	return OCamlInt((u &^ top) | ((u & second) << 1))
}

func (i OCamlInt) ToOCamlRep(Encoder) Value {
	return Int(int(i))
}

func (i *OCamlInt) FromOCamlRep(_ Decoder, v Value) error {
	n, err := ExpectInt(v)
	if err != nil {
		return err
	}
	*i = OCamlInt(n)
	return nil
}
