package wasmheap

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
	"github.com/wippyai/ocamlrep/pool"
	"github.com/wippyai/ocamlrep/transcoder"
)

func newHeap(t *testing.T) *Heap {
	t.Helper()
	ctx := context.Background()
	h, err := Instantiate(ctx, SimulatedRuntime, nil)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	t.Cleanup(func() { _ = h.Close(ctx) })
	return h
}

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		msg, _ := r.(string)
		if !strings.Contains(msg, contains) {
			t.Errorf("panic = %v, want it to contain %q", r, contains)
		}
	}()
	fn()
}

type entry struct {
	Name  string
	Tags  []string
	Score float64
	Next  ocamlrep.Option[int64]
}

func TestRoundTrip(t *testing.T) {
	h := newHeap(t)
	in := map[string]entry{
		"a": {Name: "alpha", Tags: []string{"x", "y"}, Score: 1.5, Next: ocamlrep.Some(int64(2))},
		"b": {Name: "beta", Score: -3},
	}
	v := pool.ToOCaml(h, in)

	if !h.Contains(v) {
		t.Fatalf("%v does not point into guest memory", v)
	}
	var out map[string]entry
	if err := transcoder.Decode(v, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestReservedHeaders(t *testing.T) {
	h := newHeap(t)
	v := pool.ToOCaml(h, "hello, guest")

	b, ok := v.AsBlock()
	if !ok {
		t.Fatalf("%v is not a block", v)
	}
	if b.Tag() != ocamlrep.StringTag || b.Header().Color() != ocamlrep.ColorMarked {
		t.Errorf("header = tag %d color %d", b.Tag(), b.Header().Color())
	}
	got, err := ocamlrep.StringFromValue(v)
	if err != nil || got != "hello, guest" {
		t.Errorf("string = %q, %v", got, err)
	}
}

func TestGeneration(t *testing.T) {
	h := newHeap(t)
	if g := h.Generation(); g != 0 {
		t.Fatalf("initial generation = %d", g)
	}
	pool.ToOCaml(h, 1)
	pool.ToOCaml(h, 2)
	if g := h.Generation(); g != 2 {
		t.Errorf("generation = %d after two sections", g)
	}
}

func TestSectionGuards(t *testing.T) {
	t.Run("double enter", func(t *testing.T) {
		h := newHeap(t)
		h.Enter()
		expectPanic(t, "entered twice", h.Enter)
	})
	t.Run("reserve outside section", func(t *testing.T) {
		h := newHeap(t)
		expectPanic(t, "not inside", func() { h.ReserveBlock(0, 1) })
	})
	t.Run("leave outside section", func(t *testing.T) {
		h := newHeap(t)
		expectPanic(t, "not inside", h.Leave)
	})
	t.Run("initialize outside memory", func(t *testing.T) {
		h := newHeap(t)
		expectPanic(t, "outside guest memory", func() { h.Initialize(8, ocamlrep.Unit) })
	})
}

func TestReserveTrap(t *testing.T) {
	h := newHeap(t)
	p := pool.New(h)
	defer p.Close()

	// The first reservation fits its header but runs the bump pointer past
	// the end of memory; the next header write traps.
	p.BlockWithSizeAndTag(1<<15, 0)
	expectPanic(t, "trapped", func() { p.BlockWithSizeAndTag(1, 0) })
}

func TestFailwith(t *testing.T) {
	h := newHeap(t)
	v := h.Failwith("out of fuel")
	if !pool.IsExceptionResult(v) {
		t.Fatalf("%v is not an exception result", v)
	}
	msg, err := ocamlrep.StringFromValue(pool.ExceptionResult(v))
	if err != nil || msg != "out of fuel" {
		t.Errorf("message = %q, %v", msg, err)
	}
	if h.inSection {
		t.Error("Failwith left the section open")
	}
}

func TestFailwithInsideSection(t *testing.T) {
	h := newHeap(t)
	h.Enter()
	v := pool.CatchPanic(h, func() ocamlrep.Value {
		return pool.AddToAmbientPool(h, struct{ P *int }{})
	})
	if !h.inSection {
		t.Fatal("failure closed the caller's section")
	}
	if gen := h.Generation(); gen != 1 {
		t.Errorf("generation = %d, want 1", gen)
	}
	h.Leave()

	if !pool.IsExceptionResult(v) {
		t.Fatalf("%v is not an exception result", v)
	}
	msg, err := ocamlrep.StringFromValue(pool.ExceptionResult(v))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "nil_pointer") {
		t.Errorf("message = %q", msg)
	}
	if !h.Contains(pool.ExceptionResult(v)) {
		t.Error("message string is not in guest memory")
	}
}

func TestCatchPanic(t *testing.T) {
	h := newHeap(t)
	length := pool.Func1(h, func(xs []int64) int { return len(xs) })

	arg := pool.ToOCaml(h, []int64{4, 5, 6})
	if got := length(arg); got != ocamlrep.Int(3) {
		t.Errorf("length = %v", got)
	}

	bad := length(ocamlrep.Int(3))
	if !pool.IsExceptionResult(bad) {
		t.Fatalf("%v is not an exception result", bad)
	}
	msg, err := ocamlrep.StringFromValue(pool.ExceptionResult(bad))
	if err != nil || !strings.Contains(msg, "expected_unit") {
		t.Errorf("message = %q, %v", msg, err)
	}
}

func TestMissingExports(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  *Config
		want errors.Kind
	}{
		{"memory", &Config{Memory: "heap"}, errors.KindNotFound},
		{"global", &Config{Generation: "gen"}, errors.KindNotFound},
		{"function", &Config{ReserveBlock: "alloc"}, errors.KindNotFound},
		{"signature", &Config{Enter: "caml_initialize"}, errors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Instantiate(ctx, SimulatedRuntime, tt.cfg)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("error = %v", err)
			}
			if e.Kind != tt.want {
				t.Errorf("kind = %s, want %s", e.Kind, tt.want)
			}
		})
	}
}

func TestInstantiateErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Instantiate(ctx, []byte("not wasm"), nil)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Phase != errors.PhaseParse {
		t.Errorf("error = %v", err)
	}

	_, err = Instantiate(ctx, SimulatedRuntime, &Config{MemoryLimitPages: 1})
	if err == nil {
		t.Error("memory limit below the guest minimum was accepted")
	}
}

func TestNewWithForeignModule(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	mod, err := r.Instantiate(ctx, SimulatedRuntime)
	if err != nil {
		t.Fatal(err)
	}

	h, err := New(ctx, mod, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	v := pool.ToOCaml(h, []bool{true, false})
	var out []bool
	if err := transcoder.Decode(v, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]bool{true, false}, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if err := h.Close(ctx); err != nil {
		t.Errorf("Close on a borrowed module: %v", err)
	}
	if mod.IsClosed() {
		t.Error("Close released a module it does not own")
	}
}
