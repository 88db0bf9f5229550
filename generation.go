package ocamlrep

import (
	"math"
	"sync/atomic"
)

// GenerationBase is the first generation handed out by NextGeneration.
// Generations read from a foreign runtime count up from 0, so the two
// ranges never meet in practice.
const GenerationBase = math.MaxUint64 / 2

var generations atomic.Uint64

// NextGeneration returns a process-wide unique, monotonically increasing
// session identifier for a private allocator.
func NextGeneration() uint64 {
	return GenerationBase + generations.Add(1) - 1
}
