package ocamlrep

type memoKey struct {
	addr uintptr
	size int
}

// MemoCache maps (source address, byte size) to the Value already produced
// for that source during one root conversion. Allocators embed one and
// delegate Memoized and AddRoot to it.
//
// The zero value is ready to use. A MemoCache is not safe for concurrent use.
type MemoCache struct {
	entries map[memoKey]Value
	active  bool
}

// WithCache runs f with caching enabled and clears the cache afterwards.
// Re-entering WithCache while it is active panics.
func (c *MemoCache) WithCache(f func() Value) Value {
	if c.active {
		panic("ocamlrep: nested add_root or with_cache call")
	}
	c.active = true
	defer func() {
		c.active = false
		clear(c.entries)
	}()
	return f()
}

// Memoized returns the Value cached for (addr, size), computing it on a miss.
// Outside WithCache nothing is cached and compute always runs.
func (c *MemoCache) Memoized(addr uintptr, size int, compute func() Value) Value {
	if !c.active {
		return compute()
	}
	key := memoKey{addr: addr, size: size}
	if v, ok := c.entries[key]; ok {
		return v
	}
	v := compute()
	if c.entries == nil {
		c.entries = make(map[memoKey]Value)
	}
	c.entries[key] = v
	return v
}

// Active reports whether a root conversion is in progress.
func (c *MemoCache) Active() bool {
	return c.active
}

// Len returns the number of cached entries.
func (c *MemoCache) Len() int {
	return len(c.entries)
}
