package ocamlrep

import (
	"iter"

	"github.com/wippyai/ocamlrep/errors"
)

// OCaml's Map and Set are height-balanced binary trees:
//
//	map node: {left, key, value, right, height}   (5 fields, tag 0)
//	set node: {left, elem, right, height}         (4 fields, tag 0)
//	empty:    immediate 0
//
// SortedMap and SortedSet build the canonical tree for an ascending
// sequence: the left subtree takes size/2 elements, the node takes the
// next one, and the right subtree the remaining size-1-size/2. The
// sequence is pulled lazily, so entries are encoded in in-order position.

// SortedMap builds a Map from exactly size key/value pairs with strictly
// ascending keys. The input is trusted; a sequence shorter than size panics.
func SortedMap(a Allocator, entries iter.Seq2[Value, Value], size int) Value {
	if size == 0 {
		return Int(0)
	}
	next, stop := iter.Pull2(entries)
	defer stop()
	v, _ := buildMap(a, next, size)
	return v
}

func buildMap(a Allocator, next func() (Value, Value, bool), size int) (Value, int) {
	if size == 0 {
		return Int(0), 0
	}
	left, leftHeight := buildMap(a, next, size/2)
	key, val, ok := next()
	if !ok {
		panic("ocamlrep: sorted map sequence shorter than its size")
	}
	right, rightHeight := buildMap(a, next, size-1-size/2)
	height := max(leftHeight, rightHeight) + 1
	b := BlockWithSize(a, 5)
	a.SetField(&b, 0, left)
	a.SetField(&b, 1, key)
	a.SetField(&b, 2, val)
	a.SetField(&b, 3, right)
	a.SetField(&b, 4, Int(height))
	return b.Build(), height
}

// SortedSet builds a Set from exactly size strictly ascending elements.
func SortedSet(a Allocator, elems iter.Seq[Value], size int) Value {
	if size == 0 {
		return Int(0)
	}
	next, stop := iter.Pull(elems)
	defer stop()
	v, _ := buildSet(a, next, size)
	return v
}

func buildSet(a Allocator, next func() (Value, bool), size int) (Value, int) {
	if size == 0 {
		return Int(0), 0
	}
	left, leftHeight := buildSet(a, next, size/2)
	elem, ok := next()
	if !ok {
		panic("ocamlrep: sorted set sequence shorter than its size")
	}
	right, rightHeight := buildSet(a, next, size-1-size/2)
	height := max(leftHeight, rightHeight) + 1
	b := BlockWithSize(a, 4)
	a.SetField(&b, 0, left)
	a.SetField(&b, 1, elem)
	a.SetField(&b, 2, right)
	a.SetField(&b, 3, Int(height))
	return b.Build(), height
}

// MapEntries walks a Map in key order, passing fn the raw key and value of
// each node. fn attributes its own failures to field 1 (key) or 2 (value)
// with errors.InField. Leaves must be the immediate 0 and nodes 5-field
// tag-0 blocks.
func MapEntries(v Value, fn func(key, val Value) error) error {
	if v.IsInt() {
		_, err := ExpectNullaryVariant(v, 0)
		return err
	}
	b, err := ExpectBlockWithSizeAndTag(v, 5, 0)
	if err != nil {
		return err
	}
	if err := MapEntries(b.Field(0), fn); err != nil {
		return err
	}
	if err := fn(b.Field(1), b.Field(2)); err != nil {
		return err
	}
	return MapEntries(b.Field(3), fn)
}

// SetElements walks a Set in order. Leaves must be the immediate 0 and
// nodes 4-field tag-0 blocks. Errors from fn are attributed to field 1.
func SetElements(v Value, fn func(elem Value) error) error {
	if v.IsInt() {
		_, err := ExpectNullaryVariant(v, 0)
		return err
	}
	b, err := ExpectBlockWithSizeAndTag(v, 4, 0)
	if err != nil {
		return err
	}
	if err := SetElements(b.Field(0), fn); err != nil {
		return err
	}
	if err := fn(b.Field(1)); err != nil {
		return errors.InField(1, err)
	}
	return SetElements(b.Field(2), fn)
}

// TreeHeight returns the height stored in the root node of a Map or Set.
func TreeHeight(v Value) int {
	b, ok := v.AsBlock()
	if !ok {
		return 0
	}
	h, _ := b.Field(b.Size() - 1).AsInt()
	return h
}
