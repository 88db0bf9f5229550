package ocamlrep

import "bytes"

// CloneWithAllocator copies the graph reachable from v into a. Immediates are
// returned unchanged; blocks with tag >= NoScanTag are copied byte for byte.
// Blocks reached twice are copied once, so sharing in the source graph is
// preserved when a root conversion is active on a.
func CloneWithAllocator(a Allocator, v Value) Value {
	b, ok := v.AsBlock()
	if !ok {
		return v
	}
	return a.Memoized(b.Address(), b.Size()*WordSize, func() Value {
		size, tag := b.Size(), b.Tag()
		if size == 0 {
			return v
		}
		out := a.BlockWithSizeAndTag(size, tag)
		if tag >= NoScanTag {
			if tag == StringTag {
				copy(out.Bytes(), b.Bytes())
			} else {
				for i, f := range b.Fields() {
					a.SetField(&out, i, f)
				}
			}
			return out.Build()
		}
		for i, f := range b.Fields() {
			a.SetField(&out, i, CloneWithAllocator(a, f))
		}
		return out.Build()
	})
}

// Equal reports structural equality: immediates by value, no-scan blocks by
// tag and raw contents, other blocks by tag, size and fields recursively.
func Equal(x, y Value) bool {
	if x == y {
		return true
	}
	bx, okx := x.AsBlock()
	by, oky := y.AsBlock()
	if !okx || !oky {
		return false
	}
	if bx.Tag() != by.Tag() || bx.Size() != by.Size() {
		return false
	}
	if bx.Tag() >= NoScanTag {
		return bytes.Equal(bx.Bytes(), by.Bytes())
	}
	fx, fy := bx.Fields(), by.Fields()
	for i := range fx {
		if !Equal(fx[i], fy[i]) {
			return false
		}
	}
	return true
}
