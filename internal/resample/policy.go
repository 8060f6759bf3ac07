package resample

import (
	"fmt"
	"math"
)

// ParallelismPolicy sizes the worker pool for one resample run. A fraction
// of the logical cores stays reserved for the rest of the host, and
// machines below the minimum core count are forced to a single worker.
type ParallelismPolicy struct {
	ReservedFraction float64
	MinParallelCores int
}

// DefaultPolicy reserves 30% of cores and requires at least 5 logical
// cores before going parallel at all.
func DefaultPolicy() ParallelismPolicy {
	return ParallelismPolicy{ReservedFraction: 0.3, MinParallelCores: 5}
}

// Validate rejects fractions outside [0, 1) and non-positive minimums.
// A fraction of exactly 1 would reserve every core.
func (p ParallelismPolicy) Validate() error {
	if p.ReservedFraction < 0 || p.ReservedFraction >= 1 {
		return fmt.Errorf("reserved fraction %v: must be at least 0 and below 1", p.ReservedFraction)
	}
	if p.MinParallelCores <= 0 {
		return fmt.Errorf("min parallel cores %d: must be positive", p.MinParallelCores)
	}
	return nil
}

// Workers returns the pool size for a machine with the given logical core
// count. The reservation rounds up, so the pool never takes a fractional
// core away from the host, and the result never drops below one.
func (p ParallelismPolicy) Workers(cores int) int {
	if cores < p.MinParallelCores {
		return 1
	}
	reserved := int(math.Ceil(float64(cores) * p.ReservedFraction))
	workers := cores - reserved
	if workers < 1 {
		return 1
	}
	return workers
}
