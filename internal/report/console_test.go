package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/result"
	"github.com/wasmut/wasmut/internal/wasmmod/dwarf"
)

func TestConsole_printsEveryLineAndSummary(t *testing.T) {
	results := []result.MutationResult{
		{Candidate: discovery.Candidate{ID: 0, FunctionName: "add", Description: "add -> sub"}, Outcome: result.Killed},
		{Candidate: discovery.Candidate{ID: 1, FunctionName: "add", Description: "add -> mul"}, Outcome: result.Alive},
		{Candidate: discovery.Candidate{ID: 2, FunctionName: "dead", Description: "lt -> le"}, Outcome: result.Skipped},
	}
	summary := result.Scorer{}.Score(results)

	var buf bytes.Buffer
	Console(&buf, summary, results, config.PathRewrite{})
	out := buf.String()

	require.Contains(t, out, "add -> sub")
	require.Contains(t, out, "add -> mul")
	require.Contains(t, out, "lt -> le")
	require.Contains(t, out, "mutation score:")
}

func TestConsole_appliesPathRewriteToDisplayedFile(t *testing.T) {
	results := []result.MutationResult{
		{
			Candidate: discovery.Candidate{
				ID: 0, FunctionName: "add", Description: "add -> sub",
				HasLocation: true,
				Location:    dwarf.SourceLocation{File: "/build/foo.c", Line: 3},
			},
			Outcome: result.Killed,
		},
	}
	summary := result.Scorer{}.Score(results)

	var buf bytes.Buffer
	Console(&buf, summary, results, config.PathRewrite{Pattern: "^/build/", Replacement: "src/"})
	out := buf.String()

	require.Contains(t, out, "src/foo.c:3")
	require.NotContains(t, out, "/build/foo.c")
}

func TestCountsLine_reflectsScore(t *testing.T) {
	c := result.Counts{Killed: 1, Alive: 1}
	line := countsLine(c)
	require.Contains(t, line, "killed=1")
	require.Contains(t, line, "score=50.0%")
}
