package ocamlrep

import (
	"github.com/wippyai/ocamlrep/bump"
	"github.com/wippyai/ocamlrep/errors"
)

// Encoder converts Go values through an Allocator. Encoding is total:
// values with no representation are programming errors and panic.
type Encoder interface {
	Alloc() Allocator
	Encode(v any) Value
}

// Decoder converts Values back into Go values. out must be a non-nil pointer.
//
// Scratch returns the arena that receives the storage of decoded strings,
// byte slices and pointer-free slices, or nil for an owned decode where
// every allocation is an ordinary Go allocation.
type Decoder interface {
	Decode(v Value, out any) error
	Scratch() *bump.Arena
}

// ToOCamlRep is implemented by types that encode themselves.
type ToOCamlRep interface {
	ToOCamlRep(e Encoder) Value
}

// FromOCamlRep is implemented (on the pointer receiver) by types that decode
// themselves. Implementations that borrow nothing ignore d.Scratch().
type FromOCamlRep interface {
	FromOCamlRep(d Decoder, v Value) error
}

// decodeField decodes field i of b into out, attributing failures to i.
func decodeField(d Decoder, b Block, i int, out any) error {
	if err := d.Decode(b.Field(i), out); err != nil {
		return errors.InField(i, err)
	}
	return nil
}
