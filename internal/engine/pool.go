package engine

import (
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/result"
)

// RunAll executes one run per candidate across a bounded pool of
// goroutines, per spec.md §5's "execution order is unconstrained but
// results are reported in candidate-id order" requirement. workers <= 0
// leaves the pool unbounded: every candidate gets its own goroutine.
func (e *Engine) RunAll(candidates []discovery.Candidate, budget uint64, workers int, touchedFilter func(discovery.Candidate) bool) []result.MutationResult {
	p := pool.NewWithResults[result.MutationResult]()
	if workers > 0 {
		p = p.WithMaxGoroutines(workers)
	}

	for _, c := range candidates {
		c := c
		p.Go(func() result.MutationResult {
			if touchedFilter != nil && !touchedFilter(c) {
				return result.MutationResult{Candidate: c, Outcome: result.Skipped}
			}
			outcome, err := e.runCandidate(c, budget)
			return outcome.toMutationResult(c, err)
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool {
		return results[i].Candidate.ID < results[j].Candidate.ID
	})
	return results
}

func (e *Engine) runCandidate(c discovery.Candidate, budget uint64) (RunOutcome, error) {
	out, err := e.Run(RunOptions{ActiveMutationID: int32(c.ID), FuelBudget: budget})
	return out, err
}

func (o RunOutcome) toMutationResult(c discovery.Candidate, err error) result.MutationResult {
	if err != nil {
		return result.MutationResult{Candidate: c, Outcome: result.Error, Err: err}
	}
	return result.MutationResult{Candidate: c, Outcome: Classify(o.Raw), Cycles: o.Cycles}
}
