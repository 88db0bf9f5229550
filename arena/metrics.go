package arena

import "github.com/wippyai/ocamlrep"

// Metrics contains statistical information about an arena.
type Metrics struct {
	Chunks        int     // Number of chunks, current one included
	WordsInUse    int     // Words reserved for headers and fields
	CapacityWords int     // Total capacity of all chunks in words
	Utilization   float64 // Ratio of used to total capacity (0.0-1.0)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	m := Metrics{
		Chunks:        len(a.previous) + 1,
		WordsInUse:    a.current.used,
		CapacityWords: len(a.current.words),
	}
	for _, c := range a.previous {
		m.WordsInUse += c.used
		m.CapacityWords += len(c.words)
	}
	if m.CapacityWords > 0 {
		m.Utilization = float64(m.WordsInUse) / float64(m.CapacityWords)
	}
	return m
}

// SizeInUse returns the number of bytes reserved so far.
func (a *Arena) SizeInUse() int {
	return a.Metrics().WordsInUse * ocamlrep.WordSize
}
