// Package wasmheap runs the foreign heap of package pool inside a
// WebAssembly guest.
//
// The guest exports its linear memory, a generation global and four
// functions that mirror pool.Heap: entering and leaving an allocation
// section, reserving a block and initializing one field. Heap resolves
// those exports through wazero and hands out values as host addresses into
// the guest memory, so the ordinary Block accessors read them in place.
//
//	h, err := wasmheap.Instantiate(ctx, wasmheap.SimulatedRuntime, nil)
//	if err != nil {
//		return err
//	}
//	defer h.Close(ctx)
//	v := pool.ToOCaml(h, []string{"a", "b"})
//
// Export names are configurable through Config. A Heap is not safe for
// concurrent use.
package wasmheap
