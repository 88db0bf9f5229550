package ocamlrep_test

import (
	"fmt"
	"math/bits"
	"runtime"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/arena"
	"github.com/wippyai/ocamlrep/errors"
)

func ints(n int) func(yield func(ocamlrep.Value) bool) {
	return func(yield func(ocamlrep.Value) bool) {
		for i := 0; i < n; i++ {
			if !yield(ocamlrep.Int(i)) {
				return
			}
		}
	}
}

func squares(n int) func(yield func(ocamlrep.Value, ocamlrep.Value) bool) {
	return func(yield func(ocamlrep.Value, ocamlrep.Value) bool) {
		for i := 0; i < n; i++ {
			if !yield(ocamlrep.Int(i), ocamlrep.Int(i*i)) {
				return
			}
		}
	}
}

// checkBalanced verifies stored heights against the subtrees and returns the height.
func checkBalanced(t *testing.T, v ocamlrep.Value) int {
	t.Helper()
	b, ok := v.AsBlock()
	if !ok {
		return 0
	}
	left := checkBalanced(t, b.Field(0))
	right := checkBalanced(t, b.Field(b.Size()-2))
	if d := left - right; d < -1 || d > 1 {
		t.Errorf("unbalanced node: left %d right %d", left, right)
	}
	h := max(left, right) + 1
	if ocamlrep.TreeHeight(v) != h {
		t.Errorf("stored height %d, computed %d", ocamlrep.TreeHeight(v), h)
	}
	return h
}

func TestSortedMap(t *testing.T) {
	a := arena.New()
	defer runtime.KeepAlive(a)

	for _, n := range []int{0, 1, 2, 3, 7, 8, 31, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			v := ocamlrep.SortedMap(a, squares(n), n)
			if h := checkBalanced(t, v); h != bits.Len(uint(n)) {
				t.Errorf("height = %d, want %d", h, bits.Len(uint(n)))
			}

			var keys, vals []int
			err := ocamlrep.MapEntries(v, func(k, val ocamlrep.Value) error {
				kn, _ := k.AsInt()
				vn, _ := val.AsInt()
				keys = append(keys, kn)
				vals = append(vals, vn)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			for i := range keys {
				if keys[i] != i || vals[i] != i*i {
					t.Fatalf("entry %d = (%d, %d)", i, keys[i], vals[i])
				}
			}
			if len(keys) != n {
				t.Errorf("walked %d entries, want %d", len(keys), n)
			}
		})
	}
}

func TestSortedSet(t *testing.T) {
	a := arena.New()
	defer runtime.KeepAlive(a)

	v := ocamlrep.SortedSet(a, ints(10), 10)
	b, _ := v.AsBlock()
	if b.Size() != 4 || b.Tag() != 0 {
		t.Fatalf("set node: size=%d tag=%d", b.Size(), b.Tag())
	}
	// Left subtree takes size/2 elements, so the root holds element 5.
	if root, _ := b.Field(1).AsInt(); root != 5 {
		t.Errorf("root element = %d, want 5", root)
	}
	checkBalanced(t, v)

	var got []int
	if err := ocamlrep.SetElements(v, func(e ocamlrep.Value) error {
		n, _ := e.AsInt()
		got = append(got, n)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	want := make([]int, 10)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("elements (-want +got):\n%s", diff)
	}
	if !slices.IsSorted(got) {
		t.Error("in-order walk is not sorted")
	}
}

func TestSortedShortSequence(t *testing.T) {
	a := arena.New()
	defer func() {
		if recover() == nil {
			t.Error("short sequence did not panic")
		}
	}()
	ocamlrep.SortedSet(a, ints(2), 3)
}

func TestTreeWalkErrors(t *testing.T) {
	a := arena.New()
	defer runtime.KeepAlive(a)

	leaf := ocamlrep.Int(0)
	set := ocamlrep.NewBlock(a, 0, leaf, ocamlrep.Int(9), leaf, ocamlrep.Int(1))

	tests := []struct {
		name  string
		walk  func() error
		kind  errors.Kind
		field []int
	}{
		{
			name: "map leaf not zero",
			walk: func() error { return ocamlrep.MapEntries(ocamlrep.Int(1), nil) },
			kind: errors.KindNullaryVariantTagOutOfRange,
		},
		{
			name: "set node given to map walk",
			walk: func() error {
				return ocamlrep.MapEntries(set, func(_, _ ocamlrep.Value) error { return nil })
			},
			kind: errors.KindWrongBlockSize,
		},
		{
			name: "set node with tag",
			walk: func() error {
				bad := ocamlrep.NewBlock(a, 1, leaf, ocamlrep.Int(9), leaf, ocamlrep.Int(1))
				return ocamlrep.SetElements(bad, func(ocamlrep.Value) error { return nil })
			},
			kind: errors.KindExpectedBlockTag,
		},
		{
			name: "set element",
			walk: func() error {
				return ocamlrep.SetElements(set, func(e ocamlrep.Value) error {
					_, err := ocamlrep.ExpectBool(e)
					return err
				})
			},
			kind:  errors.KindExpectedBool,
			field: []int{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.walk()
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("got %v", err)
			}
			if e.Root().Kind != tt.kind {
				t.Errorf("kind = %s, want %s", e.Root().Kind, tt.kind)
			}
			if diff := cmp.Diff(tt.field, e.FieldPath()); diff != "" {
				t.Errorf("field path (-want +got):\n%s", diff)
			}
		})
	}
}
