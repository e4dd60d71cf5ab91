// Package result implements spec.md §4.8: collecting per-candidate
// execution outcomes and computing the aggregate mutation score.
package result

import (
	"sort"

	"github.com/wasmut/wasmut/internal/discovery"
)

// Outcome is a mutant's classification, per spec.md §3.
type Outcome int

const (
	Alive Outcome = iota
	Killed
	Timeout
	Error
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Alive:
		return "Alive"
	case Killed:
		return "Killed"
	case Timeout:
		return "Timeout"
	case Error:
		return "Error"
	case Skipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

// MutationResult is one candidate's execution outcome.
type MutationResult struct {
	Candidate discovery.Candidate
	Outcome   Outcome
	Cycles    uint64
	Err       error
}

// FileSummary aggregates results for one source file.
type FileSummary struct {
	File      string
	Functions map[string]*Counts
	Counts    Counts
}

// Counts tallies outcomes by kind.
type Counts struct {
	Alive, Killed, Timeout, Error, Skipped int
}

func (c *Counts) add(o Outcome) {
	switch o {
	case Alive:
		c.Alive++
	case Killed:
		c.Killed++
	case Timeout:
		c.Timeout++
	case Error:
		c.Error++
	case Skipped:
		c.Skipped++
	}
}

// Total returns the count of non-skipped outcomes, the mutation score's
// denominator per spec.md §4.8.
func (c Counts) Total() int { return c.Killed + c.Alive + c.Timeout + c.Error }

// Score returns the mutation score as a percentage in [0, 100]. A
// candidate set with every candidate skipped scores 100 (vacuously no
// surviving mutant); an empty candidate set scores 0.
func (c Counts) Score() float64 {
	total := c.Total()
	if total == 0 {
		if c.Skipped > 0 {
			return 100
		}
		return 0
	}
	return float64(c.Killed) / float64(total) * 100
}

// Summary is the scorer's output: overall counts plus a per-file,
// per-function breakdown for report rendering.
type Summary struct {
	Overall Counts
	Files   []*FileSummary
}

// Scorer computes a Summary from a result set.
type Scorer struct{}

// Score groups results by DWARF file, then function, accumulating
// Counts at every level plus the overall total.
func (Scorer) Score(results []MutationResult) Summary {
	byFile := map[string]*FileSummary{}
	var order []string

	for _, r := range results {
		file := "unknown"
		fn := r.Candidate.FunctionName
		if r.Candidate.HasLocation {
			file = r.Candidate.Location.File
			if fn == "" {
				fn = r.Candidate.Location.Function
			}
		}
		if fn == "" {
			fn = "unknown"
		}

		fs, ok := byFile[file]
		if !ok {
			fs = &FileSummary{File: file, Functions: map[string]*Counts{}}
			byFile[file] = fs
			order = append(order, file)
		}
		if _, ok := fs.Functions[fn]; !ok {
			fs.Functions[fn] = &Counts{}
		}
		fs.Functions[fn].add(r.Outcome)
		fs.Counts.add(r.Outcome)
	}

	var overall Counts
	sort.Strings(order)
	files := make([]*FileSummary, 0, len(order))
	for _, f := range order {
		files = append(files, byFile[f])
		overall.Alive += byFile[f].Counts.Alive
		overall.Killed += byFile[f].Counts.Killed
		overall.Timeout += byFile[f].Counts.Timeout
		overall.Error += byFile[f].Counts.Error
		overall.Skipped += byFile[f].Counts.Skipped
	}

	return Summary{Overall: overall, Files: files}
}
