// Package report renders a result.Summary to the console and to a
// static HTML document, per spec.md §4.8's "reports are a pure function
// of Summary" requirement.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/result"
)

var (
	killedColor  = color.New(color.FgGreen)
	aliveColor   = color.New(color.FgRed, color.Bold)
	timeoutColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgMagenta)
	skippedColor = color.New(color.Faint)
)

// Console writes a line per mutant plus a per-file and overall summary,
// colored by outcome the way a CI log highlights failures: killed
// mutants are the expected (good) case and print green, surviving
// mutants are the finding and print bold red. pathRewrite is applied to
// every displayed file path (spec.md §6); it never affects which
// candidates appear, only how their location is rendered.
func Console(w io.Writer, summary result.Summary, results []result.MutationResult, pathRewrite config.PathRewrite) {
	rw := newRewriter(pathRewrite)
	for _, r := range results {
		printMutationLine(w, r, rw)
	}

	fmt.Fprintln(w)
	for _, fs := range summary.Files {
		fmt.Fprintf(w, "%s: %s\n", rw.apply(fs.File), countsLine(fs.Counts))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "overall: %s\n", countsLine(summary.Overall))
	fmt.Fprintf(w, "mutation score: %.1f%%\n", summary.Overall.Score())
}

func printMutationLine(w io.Writer, r result.MutationResult, rw rewriter) {
	loc := r.Candidate.FunctionName
	if r.Candidate.HasLocation {
		loc = fmt.Sprintf("%s:%d", rw.apply(r.Candidate.Location.File), r.Candidate.Location.Line)
	}
	line := fmt.Sprintf("[%s] %s %s", r.Outcome, loc, r.Candidate.Description)
	switch r.Outcome {
	case result.Killed:
		killedColor.Fprintln(w, line)
	case result.Alive:
		aliveColor.Fprintln(w, line)
	case result.Timeout:
		timeoutColor.Fprintln(w, line)
	case result.Error:
		errorColor.Fprintln(w, line)
	case result.Skipped:
		skippedColor.Fprintln(w, line)
	default:
		fmt.Fprintln(w, line)
	}
}

func countsLine(c result.Counts) string {
	return fmt.Sprintf("killed=%d alive=%d timeout=%d error=%d skipped=%d score=%.1f%%",
		c.Killed, c.Alive, c.Timeout, c.Error, c.Skipped, c.Score())
}
