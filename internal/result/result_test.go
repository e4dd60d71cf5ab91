package result

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/wasmmod/dwarf"
)

func TestScore_mixedOutcomes(t *testing.T) {
	results := []MutationResult{
		{Candidate: discovery.Candidate{HasLocation: true, Location: dwarf.SourceLocation{File: "a.c", Function: "f"}}, Outcome: Killed},
		{Candidate: discovery.Candidate{HasLocation: true, Location: dwarf.SourceLocation{File: "a.c", Function: "f"}}, Outcome: Alive},
		{Candidate: discovery.Candidate{HasLocation: true, Location: dwarf.SourceLocation{File: "a.c", Function: "g"}}, Outcome: Timeout},
		{Candidate: discovery.Candidate{HasLocation: true, Location: dwarf.SourceLocation{File: "b.c", Function: "h"}}, Outcome: Skipped},
	}

	s := Scorer{}.Score(results)
	require.Equal(t, 1, s.Overall.Killed)
	require.Equal(t, 1, s.Overall.Alive)
	require.Equal(t, 1, s.Overall.Timeout)
	require.Equal(t, 1, s.Overall.Skipped)
	require.InDelta(t, 100.0/3.0, s.Overall.Score(), 0.01)
	require.Len(t, s.Files, 2)
	require.Equal(t, "a.c", s.Files[0].File)
	require.Len(t, s.Files[0].Functions, 2)
}

func TestScore_allSkipped(t *testing.T) {
	results := []MutationResult{
		{Outcome: Skipped},
		{Outcome: Skipped},
	}
	s := Scorer{}.Score(results)
	require.Equal(t, 0, s.Overall.Total())
	require.Equal(t, 100.0, s.Overall.Score())
}

func TestScore_noCandidates(t *testing.T) {
	s := Scorer{}.Score(nil)
	require.Equal(t, 0.0, s.Overall.Score())
}
