package engine

import "math"

// Budget computes spec.md §3's per-mutant cycle budget: baseline cycles
// times the configured multiplier, ceiling to an integer, minimum 1.
func Budget(baselineCycles uint64, multiplier float64) uint64 {
	b := uint64(math.Ceil(float64(baselineCycles) * multiplier))
	if b < 1 {
		return 1
	}
	return b
}
