package testutil

import "sync"

// FixedRandom returns scripted values. When a script runs out the last value
// repeats; an empty script yields zero. Safe for concurrent use.
type FixedRandom struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

// NewFixedRandom creates a FixedRandom with the given Float64 script.
func NewFixedRandom(floats ...float64) *FixedRandom {
	return &FixedRandom{floats: floats}
}

// WithInts sets the IntN script. Values are taken modulo n.
func (r *FixedRandom) WithInts(ints ...int) *FixedRandom {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = ints
	return r
}

// Float64 returns the next scripted float.
func (r *FixedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	if len(r.floats) > 1 {
		r.floats = r.floats[1:]
	}
	return v
}

// IntN returns the next scripted int modulo n.
func (r *FixedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	if len(r.ints) > 1 {
		r.ints = r.ints[1:]
	}
	return v % n
}
