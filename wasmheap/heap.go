package wasmheap

import (
	"context"
	"fmt"
	"slices"
	"unsafe"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
	"github.com/wippyai/ocamlrep/pool"
)

// Config holds the export names of the guest and runtime limits.
// Empty names fall back to the defaults of DefaultConfig.
type Config struct {
	Memory       string
	Enter        string
	Leave        string
	ReserveBlock string
	Initialize   string
	Generation   string

	// MemoryLimitPages caps guest memory in pages (64KB each) when the heap
	// creates its own runtime. 0 means the wazero default.
	MemoryLimitPages uint32
}

// DefaultConfig returns the export names used by SimulatedRuntime.
func DefaultConfig() *Config {
	return &Config{
		Memory:       "memory",
		Enter:        "ocamlpool_enter",
		Leave:        "ocamlpool_leave",
		ReserveBlock: "ocamlpool_reserve_block",
		Initialize:   "caml_initialize",
		Generation:   "ocamlpool_generation",
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Memory == "" {
		out.Memory = d.Memory
	}
	if out.Enter == "" {
		out.Enter = d.Enter
	}
	if out.Leave == "" {
		out.Leave = d.Leave
	}
	if out.ReserveBlock == "" {
		out.ReserveBlock = d.ReserveBlock
	}
	if out.Initialize == "" {
		out.Initialize = d.Initialize
	}
	if out.Generation == "" {
		out.Generation = d.Generation
	}
	return &out
}

// Heap is a pool.Heap backed by a guest module's linear memory.
//
// Values handed out by a Heap are host addresses into the guest memory, so
// they are valid only while the memory neither grows nor is closed. The
// guest heap stores 8-byte words; Heap requires a 64-bit host.
type Heap struct {
	ctx        context.Context
	runtime    wazero.Runtime
	mod        api.Module
	mem        api.Memory
	enter      api.Function
	leave      api.Function
	reserve    api.Function
	initialize api.Function
	generation api.Global

	inSection   bool
	sectionBase uintptr
}

var _ pool.Heap = (*Heap)(nil)

// New binds a Heap to an instantiated guest. ctx is used for every guest call.
func New(ctx context.Context, mod api.Module, cfg *Config) (*Heap, error) {
	if ocamlrep.WordSize != 8 {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "wasm heaps require 8-byte words")
	}
	cfg = cfg.withDefaults()

	h := &Heap{ctx: ctx, mod: mod}
	if h.mem = mod.ExportedMemory(cfg.Memory); h.mem == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "memory export", cfg.Memory)
	}
	if h.generation = mod.ExportedGlobal(cfg.Generation); h.generation == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "global export", cfg.Generation)
	}
	if h.generation.Type() != api.ValueTypeI64 {
		return nil, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("global %q must be i64", cfg.Generation))
	}

	funcs := []struct {
		dst     *api.Function
		name    string
		params  []api.ValueType
		results []api.ValueType
	}{
		{&h.enter, cfg.Enter, nil, nil},
		{&h.leave, cfg.Leave, nil, nil},
		{&h.reserve, cfg.ReserveBlock, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}},
		{&h.initialize, cfg.Initialize, []api.ValueType{api.ValueTypeI32, api.ValueTypeI64}, nil},
	}
	for _, f := range funcs {
		fn := mod.ExportedFunction(f.name)
		if fn == nil {
			return nil, errors.NotFound(errors.PhaseRuntime, "function export", f.name)
		}
		def := fn.Definition()
		if !slices.Equal(def.ParamTypes(), f.params) || !slices.Equal(def.ResultTypes(), f.results) {
			return nil, errors.InvalidInput(errors.PhaseRuntime,
				fmt.Sprintf("function %q has signature %v -> %v", f.name, def.ParamTypes(), def.ResultTypes()))
		}
		*f.dst = fn
	}

	Logger().Debug("heap exports resolved",
		zap.String("module", mod.Name()),
		zap.Uint32("memory_bytes", h.mem.Size()))
	return h, nil
}

// Instantiate compiles and instantiates wasm in a runtime owned by the
// returned Heap. Close releases it.
func Instantiate(ctx context.Context, wasm []byte, cfg *Config) (*Heap, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, errors.ParseFailed("guest module", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("ocamlrt"))
	if err != nil {
		_ = r.Close(ctx)
		return nil, errors.Instantiation(err)
	}
	h, err := New(ctx, mod, cfg)
	if err != nil {
		_ = r.Close(ctx)
		return nil, err
	}
	h.runtime = r
	return h, nil
}

// Close releases the runtime created by Instantiate. Heaps from New leave
// the module to its owner.
func (h *Heap) Close(ctx context.Context) error {
	if h.runtime == nil {
		return nil
	}
	r := h.runtime
	h.runtime = nil
	return r.Close(ctx)
}

// base returns the host address of guest offset 0.
func (h *Heap) base() uintptr {
	buf, ok := h.mem.Read(0, h.mem.Size())
	if !ok || len(buf) == 0 {
		panic("wasmheap: guest memory is empty")
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

func (h *Heap) call(fn api.Function, params ...uint64) []uint64 {
	res, err := fn.Call(h.ctx, params...)
	if err != nil {
		panic(fmt.Sprintf("wasmheap: %s trapped: %v", fn.Definition().Name(), err))
	}
	return res
}

// Enter starts an allocation section. Entering twice panics.
func (h *Heap) Enter() {
	if h.inSection {
		panic("wasmheap: allocation section entered twice")
	}
	h.call(h.enter)
	h.inSection = true
	h.sectionBase = h.base()
	Logger().Debug("section entered", zap.Uint64("generation", h.Generation()))
}

// Leave ends the allocation section.
func (h *Heap) Leave() {
	h.assertInSection()
	h.inSection = false
	h.call(h.leave)
	Logger().Debug("section left")
}

func (h *Heap) assertInSection() {
	if !h.inSection {
		panic("wasmheap: not inside an allocation section")
	}
	if h.base() != h.sectionBase {
		panic("wasmheap: guest memory moved inside an allocation section")
	}
}

// ReserveBlock reserves a block in the guest and returns the host address
// of its field 0.
func (h *Heap) ReserveBlock(tag uint8, size int) uintptr {
	h.assertInSection()
	res := h.call(h.reserve, uint64(tag), uint64(uint32(size)))
	return h.sectionBase + uintptr(uint32(res[0]))
}

// Initialize writes v at the host address addr through the guest.
func (h *Heap) Initialize(addr uintptr, v ocamlrep.Value) {
	h.call(h.initialize, uint64(h.offset(addr)), uint64(v.Bits()))
}

func (h *Heap) offset(addr uintptr) uint32 {
	base := h.base()
	if addr < base || addr-base >= uintptr(h.mem.Size()) {
		panic(fmt.Sprintf("wasmheap: address 0x%x outside guest memory", addr))
	}
	return uint32(addr - base)
}

// Generation reads the guest's generation global.
func (h *Heap) Generation() uint64 {
	return h.generation.Get()
}

// Failwith reserves a byte string holding msg and returns it as an
// exception result. The string goes into the current allocation section when
// one is held, otherwise into a section of its own.
func (h *Heap) Failwith(msg string) ocamlrep.Value {
	var exn ocamlrep.Value
	if h.inSection {
		exn = pool.AddToAmbientPool(h, msg)
	} else {
		p := pool.New(h)
		exn = ocamlrep.AllocString(p, msg)
		p.Close()
	}
	Logger().Debug("failure raised", zap.String("message", msg), zap.Bool("ambient", h.inSection))
	return pool.MakeExceptionResult(exn)
}

// Contains reports whether v points into the guest memory.
func (h *Heap) Contains(v ocamlrep.Value) bool {
	if !v.IsBlock() {
		return false
	}
	base := h.base()
	return v.Bits() >= base && v.Bits()-base < uintptr(h.mem.Size())
}
