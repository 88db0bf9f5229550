package ocamlrep

import (
	"sync"
)

// Option is OCaml's 'a option: None is the immediate 0, Some x a one-field
// tag-0 block.
type Option[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{Value: v, Valid: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

func (o Option[T]) ToOCamlRep(e Encoder) Value {
	if !o.Valid {
		return Int(0)
	}
	a := e.Alloc()
	b := BlockWithSize(a, 1)
	a.SetField(&b, 0, e.Encode(o.Value))
	return b.Build()
}

func (o *Option[T]) FromOCamlRep(d Decoder, v Value) error {
	if v.IsInt() {
		if _, err := ExpectNullaryVariant(v, 0); err != nil {
			return err
		}
		*o = Option[T]{}
		return nil
	}
	b, err := ExpectBlockWithSizeAndTag(v, 1, 0)
	if err != nil {
		return err
	}
	var val T
	if err := decodeField(d, b, 0, &val); err != nil {
		return err
	}
	*o = Option[T]{Value: val, Valid: true}
	return nil
}

// Result is OCaml's ('a, 'e) result: Ok x is a one-field block with tag 0,
// Error e one with tag 1.
type Result[T, E any] struct {
	Ok    T
	Err   E
	IsErr bool
}

func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{Ok: v}
}

func Err[T, E any](e E) Result[T, E] {
	return Result[T, E]{Err: e, IsErr: true}
}

func (r Result[T, E]) ToOCamlRep(e Encoder) Value {
	a := e.Alloc()
	if r.IsErr {
		b := a.BlockWithSizeAndTag(1, 1)
		a.SetField(&b, 0, e.Encode(r.Err))
		return b.Build()
	}
	b := a.BlockWithSizeAndTag(1, 0)
	a.SetField(&b, 0, e.Encode(r.Ok))
	return b.Build()
}

func (r *Result[T, E]) FromOCamlRep(d Decoder, v Value) error {
	b, err := ExpectVariantBlock(v, 1)
	if err != nil {
		return err
	}
	if err := ExpectBlockSize(b, 1); err != nil {
		return err
	}
	var out Result[T, E]
	if b.Tag() == 0 {
		err = decodeField(d, b, 0, &out.Ok)
	} else {
		out.IsErr = true
		err = decodeField(d, b, 0, &out.Err)
	}
	if err != nil {
		return err
	}
	*r = out
	return nil
}

// Tuples. Any struct encodes as a tag-0 block of its fields; these exist so
// callers need not declare one-off structs.
type (
	Tuple2[A, B any] struct {
		F0 A
		F1 B
	}
	Tuple3[A, B, C any] struct {
		F0 A
		F1 B
		F2 C
	}
	Tuple4[A, B, C, D any] struct {
		F0 A
		F1 B
		F2 C
		F3 D
	}
	Tuple5[A, B, C, D, E any] struct {
		F0 A
		F1 B
		F2 C
		F3 D
		F4 E
	}
	Tuple6[A, B, C, D, E, F any] struct {
		F0 A
		F1 B
		F2 C
		F3 D
		F4 E
		F5 F
	}
	Tuple7[A, B, C, D, E, F, G any] struct {
		F0 A
		F1 B
		F2 C
		F3 D
		F4 E
		F5 F
		F6 G
	}
	Tuple8[A, B, C, D, E, F, G, H any] struct {
		F0 A
		F1 B
		F2 C
		F3 D
		F4 E
		F5 F
		F6 G
		F7 H
	}
)

// Char is OCaml's char: an immediate in 0..255.
type Char byte

func (c Char) ToOCamlRep(Encoder) Value {
	return Int(int(c))
}

func (c *Char) FromOCamlRep(_ Decoder, v Value) error {
	b, err := ExpectChar(v)
	if err != nil {
		return err
	}
	*c = Char(b)
	return nil
}

// NakedPtr is an address outside any OCaml heap, passed through as raw bits.
// The address must be word aligned so it is never mistaken for an immediate.
type NakedPtr uintptr

func (p NakedPtr) ToOCamlRep(Encoder) Value {
	return Value(p)
}

func (p *NakedPtr) FromOCamlRep(_ Decoder, v Value) error {
	*p = NakedPtr(v)
	return nil
}

// Ref is a mutable cell encoded as OCaml's 'a ref, a one-field tag-0 block.
// Encoding reads a snapshot under the read lock; callers must not mutate the
// cell from another goroutine while a root conversion that reaches it runs,
// because memoized sharing assumes stable sources.
type Ref[T any] struct {
	mu  sync.RWMutex
	val T
}

func NewRef[T any](v T) *Ref[T] {
	return &Ref[T]{val: v}
}

func (r *Ref[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.val
}

func (r *Ref[T]) Set(v T) {
	r.mu.Lock()
	r.val = v
	r.mu.Unlock()
}

func (r *Ref[T]) ToOCamlRep(e Encoder) Value {
	snapshot := r.Get()
	a := e.Alloc()
	b := BlockWithSize(a, 1)
	a.SetField(&b, 0, e.Encode(snapshot))
	return b.Build()
}

func (r *Ref[T]) FromOCamlRep(d Decoder, v Value) error {
	b, err := ExpectTuple(v, 1)
	if err != nil {
		return err
	}
	var val T
	if err := decodeField(d, b, 0, &val); err != nil {
		return err
	}
	r.Set(val)
	return nil
}
