// Package arena implements a private ocamlrep.Allocator backed by chunks of
// Go memory.
//
// Allocation bumps a cursor through the current chunk. When a request does
// not fit, a new chunk of max(2*requested, previous capacity) words becomes
// current and the old one is kept, never relocated:
//
//	a := arena.WithCapacity(1 << 16)
//	v := transcoder.AddRoot(a, payload)
//	// v and every block it reaches stay valid while a is reachable.
//
// Values are plain words, so the Go collector does not see references from
// a Value into the arena. Keep the *Arena reachable for as long as any of
// its Values is in use.
package arena
