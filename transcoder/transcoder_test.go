package transcoder

import (
	"fmt"
	"math"
	"math/bits"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/arena"
	"github.com/wippyai/ocamlrep/bump"
)

type Expr interface{ isExpr() }

type (
	Zero struct{}
	One  struct{}
	Lit  struct{ N int }
	Add  struct{ L, R Expr }
	Name string
)

func (Zero) isExpr() {}
func (One) isExpr()  {}
func (Lit) isExpr()  {}
func (Add) isExpr()  {}
func (Name) isExpr() {}

func init() {
	// Zero -> 0, One -> 1; Lit -> tag 0, Add -> tag 1, Name -> tag 2
	MustRegisterVariants[Expr](Zero{}, Lit{}, One{}, Add{}, Name(""))
}

type Point struct {
	X, Y int
}

type Tree struct {
	Label string
	Kids  []Tree
}

type Record struct {
	ID      int64
	Name    string
	Tags    []string
	Weights map[string]float64
	Origin  *Point
	Active  bool
	Ratio   float32
	Code    ocamlrep.Char
	Cache   string `ocaml:"-"`
}

func roundTrip[T any](t *testing.T, in T) T {
	t.Helper()
	a := arena.New()
	v := AddRoot(a, in)
	var out T
	if err := Decode(v, &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	runtime.KeepAlive(a)
	return out
}

func checkRoundTrip[T any](t *testing.T, in T) {
	t.Helper()
	if diff := cmp.Diff(in, roundTrip(t, in)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripPrimitives(t *testing.T) {
	t.Run("bool", func(t *testing.T) {
		checkRoundTrip(t, true)
		checkRoundTrip(t, false)
	})
	t.Run("int", func(t *testing.T) {
		checkRoundTrip(t, 0)
		checkRoundTrip(t, -42)
		checkRoundTrip(t, math.MaxInt>>1)
		checkRoundTrip(t, math.MinInt>>1)
	})
	t.Run("sized", func(t *testing.T) {
		checkRoundTrip(t, int8(-128))
		checkRoundTrip(t, int16(math.MaxInt16))
		checkRoundTrip(t, int32(math.MinInt32))
		checkRoundTrip(t, uint8(255))
		checkRoundTrip(t, uint32(math.MaxUint32))
	})
	t.Run("float", func(t *testing.T) {
		checkRoundTrip(t, 3.25)
		checkRoundTrip(t, math.Inf(-1))
		checkRoundTrip(t, float32(1.5))
	})
	t.Run("string", func(t *testing.T) {
		checkRoundTrip(t, "")
		checkRoundTrip(t, "héllo wörld")
	})
	t.Run("bytes", func(t *testing.T) {
		checkRoundTrip(t, []byte{0, 1, 2, 0xff})
	})
	t.Run("char", func(t *testing.T) {
		checkRoundTrip(t, ocamlrep.Char('z'))
	})
}

func TestRoundTripComposites(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		checkRoundTrip(t, []int{1, 2, 3, 4, 5})
	})
	t.Run("array", func(t *testing.T) {
		checkRoundTrip(t, [3]string{"a", "b", "c"})
	})
	t.Run("record", func(t *testing.T) {
		checkRoundTrip(t, Record{
			ID:      -7,
			Name:    "widget",
			Tags:    []string{"x", "y"},
			Weights: map[string]float64{"a": 0.5, "b": 1.5},
			Origin:  &Point{X: 3, Y: -4},
			Active:  true,
			Ratio:   0.25,
			Code:    'q',
		})
	})
	t.Run("recursive", func(t *testing.T) {
		checkRoundTrip(t, Tree{Label: "root", Kids: []Tree{
			{Label: "a"},
			{Label: "b", Kids: []Tree{{Label: "c"}}},
		}})
	})
	t.Run("set", func(t *testing.T) {
		checkRoundTrip(t, map[int]struct{}{5: {}, -1: {}, 3: {}})
	})
	t.Run("nested map", func(t *testing.T) {
		checkRoundTrip(t, map[uint8][]bool{2: {true}, 1: {false, true}})
	})
	t.Run("variant", func(t *testing.T) {
		in := []Expr{
			Zero{},
			One{},
			Lit{N: 9},
			Name("x"),
			Add{L: Lit{N: 1}, R: Add{L: One{}, R: Name("y")}},
		}
		checkRoundTrip(t, in)
	})
}

func TestRoundTripTuples(t *testing.T) {
	checkRoundTrip(t, ocamlrep.Tuple2[int, string]{F0: 1, F1: "two"})
	checkRoundTrip(t, ocamlrep.Tuple3[bool, int, float64]{F0: true, F1: 2, F2: 3.5})
	checkRoundTrip(t, ocamlrep.Tuple4[int, int, int, int]{F0: 1, F1: 2, F2: 3, F3: 4})
	checkRoundTrip(t, ocamlrep.Tuple5[string, int, string, int, string]{F0: "a", F1: 1, F2: "b", F3: 2, F4: "c"})
	checkRoundTrip(t, ocamlrep.Tuple6[int, int, int, int, int, []int]{F5: []int{6}})
	checkRoundTrip(t, ocamlrep.Tuple7[int, int, int, int, int, int, int]{F0: 7, F6: 7})
	checkRoundTrip(t, ocamlrep.Tuple8[int, bool, string, float64, []int, ocamlrep.Char, int8, uint16]{
		F0: 1, F1: true, F2: "three", F3: 4.5, F4: []int{5}, F5: '6', F6: -7, F7: 8,
	})
}

func TestRoundTripHelperTypes(t *testing.T) {
	checkRoundTrip(t, ocamlrep.Some([]int{1, 2}))
	checkRoundTrip(t, ocamlrep.None[string]())
	checkRoundTrip(t, ocamlrep.Ok[int, string](5))
	checkRoundTrip(t, ocamlrep.Err[int, string]("boom"))
	checkRoundTrip(t, ocamlrep.Int64(math.MinInt64))
	checkRoundTrip(t, ocamlrep.OCamlIntEraseMSB(math.MaxInt))

	r := roundTrip(t, ocamlrep.NewRef([]string{"cell"}))
	if diff := cmp.Diff([]string{"cell"}, r.Get()); diff != "" {
		t.Errorf("Ref mismatch (-want +got):\n%s", diff)
	}
}

func TestByteStringLengths(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 7, 8, 9, 16} {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			a := arena.New()
			s := strings.Repeat("x", n)
			v := AddRoot(a, s)

			b, ok := v.AsBlock()
			if !ok || b.Tag() != ocamlrep.StringTag {
				t.Fatalf("expected string block, got %v", v)
			}
			wantWords := (n + ocamlrep.WordSize) / ocamlrep.WordSize
			if b.Size() != wantWords {
				t.Errorf("size = %d words, want %d", b.Size(), wantWords)
			}
			raw := b.Bytes()
			if pad := int(raw[len(raw)-1]); pad != wantWords*ocamlrep.WordSize-n-1 {
				t.Errorf("padding byte = %d", pad)
			}
			for i := n; i < len(raw)-1; i++ {
				if raw[i] != 0 {
					t.Errorf("byte %d = %d, want 0", i, raw[i])
				}
			}

			var out string
			if err := Decode(v, &out); err != nil {
				t.Fatal(err)
			}
			if out != s {
				t.Errorf("decoded %q, want %q", out, s)
			}
			runtime.KeepAlive(a)
		})
	}
}

func TestSharing(t *testing.T) {
	type pair struct {
		A, B []int
	}
	type strs struct {
		A, B string
	}
	type ptrs struct {
		A, B *Point
	}

	list := []int{1, 2, 3}
	s := strings.Repeat("shared", 3)
	p := &Point{X: 1, Y: 2}

	fieldsOf := func(v ocamlrep.Value) []ocamlrep.Value {
		b, _ := v.AsBlock()
		return b.Fields()
	}

	t.Run("inside root", func(t *testing.T) {
		a := arena.New()
		for _, v := range []ocamlrep.Value{
			AddRoot(a, pair{list, list}),
			AddRoot(a, strs{s, s}),
			AddRoot(a, ptrs{p, p}),
		} {
			f := fieldsOf(v)
			if f[0].Bits() != f[1].Bits() {
				t.Errorf("fields not shared: %x vs %x", f[0].Bits(), f[1].Bits())
			}
		}
		runtime.KeepAlive(a)
	})

	t.Run("sub-slice is distinct", func(t *testing.T) {
		a := arena.New()
		f := fieldsOf(AddRoot(a, pair{list, list[:2]}))
		if f[0].Bits() == f[1].Bits() {
			t.Error("different lengths must not share")
		}
		runtime.KeepAlive(a)
	})

	t.Run("key ignores type", func(t *testing.T) {
		type aliased struct {
			L []int
			P *int
		}
		xs := []int{42}
		a := arena.New()
		f := fieldsOf(AddRoot(a, aliased{xs, &xs[0]}))
		if f[0].Bits() != f[1].Bits() {
			t.Error("slice and element pointer with the same address and size should collide")
		}
		f = fieldsOf(Encode(a, aliased{xs, &xs[0]}))
		if f[1] != ocamlrep.Int(42) {
			t.Errorf("pointer outside a root = %v, want 42", f[1])
		}
		runtime.KeepAlive(a)
	})

	t.Run("outside root", func(t *testing.T) {
		a := arena.New()
		f := fieldsOf(Encode(a, pair{list, list}))
		if f[0].Bits() == f[1].Bits() {
			t.Error("no sharing expected without a root scope")
		}
		if !ocamlrep.Equal(f[0], f[1]) {
			t.Error("copies should still be structurally equal")
		}
		runtime.KeepAlive(a)
	})
}

func TestSomeListLayout(t *testing.T) {
	a := arena.New()
	v := AddRoot(a, ocamlrep.Some([]int{1, 2, 3}))

	some, ok := v.AsBlock()
	if !ok || some.Size() != 1 || some.Tag() != 0 {
		t.Fatalf("Some: got %v", v)
	}
	cell := some.Field(0)
	for _, want := range []int{1, 2, 3} {
		b, ok := cell.AsBlock()
		if !ok || b.Size() != 2 || b.Tag() != 0 {
			t.Fatalf("cons cell: got %v", cell)
		}
		if n, _ := b.Field(0).AsInt(); n != want {
			t.Fatalf("head = %d, want %d", n, want)
		}
		cell = b.Field(1)
	}
	if cell != ocamlrep.Int(0) {
		t.Fatalf("list terminator = %v, want 0", cell)
	}
	runtime.KeepAlive(a)
}

func TestMapEncoding(t *testing.T) {
	forward := map[string]int{}
	backward := map[string]int{}
	for _, k := range []string{"a", "b", "c"} {
		forward[k] = int(k[0] - 'a' + 1)
	}
	for _, k := range []string{"c", "b", "a"} {
		backward[k] = int(k[0] - 'a' + 1)
	}

	a := arena.New()
	v1 := AddRoot(a, forward)
	v2 := AddRoot(a, backward)
	if !ocamlrep.Equal(v1, v2) {
		t.Error("encoding depends on insertion order")
	}

	var keys []string
	err := ocamlrep.MapEntries(v1, func(k, _ ocamlrep.Value) error {
		s, err := ocamlrep.StringFromValue(k)
		keys = append(keys, s)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Errorf("in-order keys (-want +got):\n%s", diff)
	}

	var out map[string]int
	if err := Decode(v2, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{"a": 1, "b": 2, "c": 3}, out); diff != "" {
		t.Errorf("decoded map (-want +got):\n%s", diff)
	}
	runtime.KeepAlive(a)
}

func TestFloatKeyedMap(t *testing.T) {
	a := arena.New()
	in := map[float64]int{2: 3, math.NaN(): 1, -1: 5, math.Inf(-1): 7}
	v := AddRoot(a, in)

	var keys []float64
	err := ocamlrep.MapEntries(v, func(k, _ ocamlrep.Value) error {
		f, err := ocamlrep.FloatFromValue(k)
		keys = append(keys, f)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 4 || !math.IsNaN(keys[0]) {
		t.Fatalf("keys = %v, want NaN first", keys)
	}
	if diff := cmp.Diff([]float64{math.Inf(-1), -1, 2}, keys[1:]); diff != "" {
		t.Errorf("ordered keys (-want +got):\n%s", diff)
	}

	var out map[float64]int
	if err := Decode(v, &out); err != nil {
		t.Fatal(err)
	}
	for k, n := range out {
		if math.IsNaN(k) {
			if n != 1 {
				t.Errorf("NaN entry = %d, want 1", n)
			}
			continue
		}
		if in[k] != n {
			t.Errorf("entry %v = %d, want %d", k, n, in[k])
		}
	}
	if len(out) != len(in) {
		t.Errorf("decoded %d entries, want %d", len(out), len(in))
	}
	runtime.KeepAlive(a)
}

func TestTreeShape(t *testing.T) {
	a := arena.New()
	for n := 0; n <= 100; n++ {
		set := make(map[int]struct{}, n)
		for i := 0; i < n; i++ {
			set[i*3] = struct{}{}
		}
		v := AddRoot(a, set)

		if got, want := ocamlrep.TreeHeight(v), bits.Len(uint(n)); got != want {
			t.Fatalf("n=%d: height %d, want %d", n, got, want)
		}
		next := 0
		err := ocamlrep.SetElements(v, func(elem ocamlrep.Value) error {
			if k, _ := elem.AsInt(); k != next*3 {
				t.Fatalf("n=%d: element %d = %d", n, next, k)
			}
			next++
			return nil
		})
		if err != nil || next != n {
			t.Fatalf("n=%d: visited %d elements, err %v", n, next, err)
		}
	}
	runtime.KeepAlive(a)
}

func TestSkipField(t *testing.T) {
	a := arena.New()
	v := AddRoot(a, Record{Name: "n", Cache: "dropped", Origin: &Point{}})
	b, _ := v.AsBlock()
	if b.Size() != 8 {
		t.Fatalf("record size = %d, want 8 (skipped field excluded)", b.Size())
	}

	out := Record{Cache: "stale"}
	if err := Decode(v, &out); err != nil {
		t.Fatal(err)
	}
	if out.Cache != "" {
		t.Errorf("skipped field = %q, want zero value", out.Cache)
	}
	runtime.KeepAlive(a)
}

func TestScratchDecode(t *testing.T) {
	a := arena.New()
	v := AddRoot(a, ocamlrep.Tuple3[string, []int64, []byte]{F0: "text", F1: []int64{1, 2, 3}, F2: []byte("raw")})

	scratch := bumpArena(t)
	var out ocamlrep.Tuple3[string, []int64, []byte]
	if err := DecodeIn(v, &out, scratch); err != nil {
		t.Fatal(err)
	}
	if out.F0 != "text" || len(out.F1) != 3 || out.F1[2] != 3 || string(out.F2) != "raw" {
		t.Errorf("decoded %+v", out)
	}
	if scratch.SizeInUse() == 0 {
		t.Error("scratch arena unused")
	}
	runtime.KeepAlive(a)
}

func bumpArena(t *testing.T) *bump.Arena {
	t.Helper()
	a := bump.New(bump.DefaultChunkSize)
	t.Cleanup(a.Release)
	return a
}
