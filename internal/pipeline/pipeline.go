// Package pipeline wires the core subsystems together end to end: load,
// resolve, discover, build, execute, score. This is the one place that
// knows the full data flow spec.md §2 diagrams; every subsystem package
// stays ignorant of its neighbors.
package pipeline

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/engine"
	"github.com/wasmut/wasmut/internal/errs"
	"github.com/wasmut/wasmut/internal/metamutant"
	"github.com/wasmut/wasmut/internal/mutator"
	"github.com/wasmut/wasmut/internal/result"
	"github.com/wasmut/wasmut/internal/wasmmod"
	"github.com/wasmut/wasmut/internal/wasmmod/dwarf"
)

// Loaded bundles the artifacts every verb needs after the single-threaded
// load/resolve/discover phase (spec.md §5).
type Loaded struct {
	Module     *wasmmod.Module
	Resolver   *dwarf.Resolver
	Registry   *mutator.Registry
	Candidates []discovery.Candidate
}

// Load reads path, builds the DWARF resolver, and runs discovery with cfg's
// filters. It is the single-threaded phase spec.md §5 mandates runs on one
// goroutine; callers must not invoke it concurrently with itself on the
// same module.
func Load(path string, cfg config.Config) (*Loaded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IoError{Path: path, Cause: err}
	}

	m, err := wasmmod.DecodeModule(raw)
	if err != nil {
		return nil, err
	}

	resolver, err := dwarf.NewResolver(dwarfSections(m))
	if err != nil {
		return nil, fmt.Errorf("pipeline: dwarf: %w", err)
	}

	reg := mutator.NewRegistry()
	filters, err := compileFilters(cfg)
	if err != nil {
		return nil, err
	}

	candidates := discovery.Discover(m, resolver, reg, filters)
	return &Loaded{Module: m, Resolver: resolver, Registry: reg, Candidates: candidates}, nil
}

func dwarfSections(m *wasmmod.Module) dwarf.Sections {
	return dwarf.Sections{
		Info:   m.CustomSections[".debug_info"],
		Line:   m.CustomSections[".debug_line"],
		Str:    m.CustomSections[".debug_str"],
		Abbrev: m.CustomSections[".debug_abbrev"],
		Ranges: m.CustomSections[".debug_ranges"],
	}
}

func compileFilters(cfg config.Config) (discovery.Filters, error) {
	fns, err := discovery.CompilePatterns(cfg.Filter.AllowedFunctions)
	if err != nil {
		return discovery.Filters{}, err
	}
	files, err := discovery.CompilePatterns(cfg.Filter.AllowedFiles)
	if err != nil {
		return discovery.Filters{}, err
	}
	ops, err := discovery.CompilePatterns(cfg.Operators.EnabledOperators)
	if err != nil {
		return discovery.Filters{}, err
	}
	return discovery.Filters{AllowedFunctions: fns, AllowedFiles: files, EnabledOperators: ops}, nil
}

// AnnotatedName is one DWARF file or function name with whether a filter
// pattern set admits it, for the list-files/list-functions verbs.
type AnnotatedName struct {
	Name    string
	Allowed bool
}

// ListFiles returns every file name the module's DWARF resolver knows
// about, each annotated against cfg.filter.allowed_files — independent
// of which functions/operators are actually enabled, unlike Candidates.
func ListFiles(loaded *Loaded, cfg config.Config) ([]AnnotatedName, error) {
	patterns, err := discovery.CompilePatterns(cfg.Filter.AllowedFiles)
	if err != nil {
		return nil, err
	}
	names := map[string]struct{}{}
	for _, fn := range loaded.Module.Functions {
		if fn.Code == nil {
			continue
		}
		for _, inst := range fn.Code.Instructions {
			for _, loc := range loaded.Resolver.ResolveAll(uint64(inst.Offset)) {
				names[loc.File] = struct{}{}
			}
		}
	}
	return annotate(names, patterns), nil
}

// ListFunctions returns every module-defined function name, annotated
// against cfg.filter.allowed_functions.
func ListFunctions(loaded *Loaded, cfg config.Config) ([]AnnotatedName, error) {
	patterns, err := discovery.CompilePatterns(cfg.Filter.AllowedFunctions)
	if err != nil {
		return nil, err
	}
	names := map[string]struct{}{}
	for _, fn := range loaded.Module.Functions {
		if fn.Imported || fn.Name == "" {
			continue
		}
		names[fn.Name] = struct{}{}
	}
	return annotate(names, patterns), nil
}

func annotate(names map[string]struct{}, patterns []*regexp.Regexp) []AnnotatedName {
	out := make([]AnnotatedName, 0, len(names))
	for n := range names {
		out = append(out, AnnotatedName{Name: n, Allowed: anyMatch(patterns, n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// MutateReport is the full mutate verb's output: the summary plus every
// individual result, in candidate-id order.
type MutateReport struct {
	Summary result.Summary
	Results []result.MutationResult
}

// Mutate runs the whole pipeline (build, baseline, coverage pre-pass,
// parallel mutant execution, scoring) over an already-loaded module.
// cfg.engine.meta_mutant selects between spec.md §4.5's two execution
// strategies; both must (and do) yield identical per-candidate outcomes
// for the same module and candidate set ("Meta-equivalence", spec.md
// §8 testable property 3) since both apply the exact same per-candidate
// replacement, differing only in whether the switch is a runtime branch
// or a separately compiled module.
func Mutate(loaded *Loaded, cfg config.Config, log logrus.FieldLogger) (*MutateReport, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Engine.MetaMutant {
		return mutateMetaMutant(loaded, cfg, log)
	}
	return mutateClassical(loaded, cfg, log)
}

func resolveWorkers(cfg config.Config) int {
	if cfg.Engine.Workers > 0 {
		return cfg.Engine.Workers
	}
	return runtime.NumCPU()
}

// mutateMetaMutant implements spec.md §4.5's primary path: one compiled
// artifact, one host-settable switch, every candidate a branch within it.
func mutateMetaMutant(loaded *Loaded, cfg config.Config, log logrus.FieldLogger) (*MutateReport, error) {
	artifact, err := metamutant.Build(loaded.Module, loaded.Candidates, metamutant.Options{
		CoverageEnabled: cfg.Engine.CoverageBasedExecution,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: building meta-mutant: %w", err)
	}

	eng, err := engine.New(artifact, cfg.Engine.MapDirs, log)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compiling artifact: %w", err)
	}

	touched := map[uint32]struct{}{}
	var onTouched func(uint32)
	if cfg.Engine.CoverageBasedExecution {
		onTouched = func(offset uint32) { touched[offset] = struct{}{} }
	}

	baseline, err := eng.Run(engine.RunOptions{
		ActiveMutationID: metamutant.SentinelID,
		OnTouched:        onTouched,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: baseline run: %w", err)
	}
	if !baseline.Raw.Exited || baseline.Raw.ExitCode != 0 {
		return nil, &errs.BaselineFailed{ExitCode: baseline.Raw.ExitCode, Trapped: baseline.Raw.Trapped, Cause: fmt.Errorf("%s", baseline.Raw.TrapMessage)}
	}
	log.WithField("cycles", baseline.Cycles).Debug("baseline run complete")

	budget := engine.Budget(baseline.Cycles, cfg.Engine.TimeoutMultiplier)
	workers := resolveWorkers(cfg)

	var touchFilter func(discovery.Candidate) bool
	if cfg.Engine.CoverageBasedExecution {
		touchFilter = func(c discovery.Candidate) bool {
			_, ok := touched[c.ByteOffset]
			return ok
		}
	}

	results := eng.RunAll(loaded.Candidates, budget, workers, touchFilter)
	for _, r := range results {
		if r.Outcome == result.Skipped {
			log.WithField("candidate", r.Candidate.ID).Debug("mutant skipped: offset not covered by baseline")
		}
	}

	summary := result.Scorer{}.Score(results)
	return &MutateReport{Summary: summary, Results: results}, nil
}

// mutateClassical implements spec.md §4.5's opt-out: the baseline still
// runs once against the meta-mutant artifact (active id = sentinel)
// purely to measure cycles and, when enabled, coverage of every
// candidate site — the same baseline the meta-mutant path runs — but every candidate that
// survives the coverage filter gets its own independently compiled
// module with that one candidate's replacement substituted
// unconditionally, per BuildOne.
func mutateClassical(loaded *Loaded, cfg config.Config, log logrus.FieldLogger) (*MutateReport, error) {
	baselineArtifact, err := metamutant.Build(loaded.Module, loaded.Candidates, metamutant.Options{
		CoverageEnabled: cfg.Engine.CoverageBasedExecution,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: building baseline artifact: %w", err)
	}
	baselineEngine, err := engine.New(baselineArtifact, cfg.Engine.MapDirs, log)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compiling baseline artifact: %w", err)
	}

	touched := map[uint32]struct{}{}
	var onTouched func(uint32)
	if cfg.Engine.CoverageBasedExecution {
		onTouched = func(offset uint32) { touched[offset] = struct{}{} }
	}

	baseline, err := baselineEngine.Run(engine.RunOptions{
		ActiveMutationID: metamutant.SentinelID,
		OnTouched:        onTouched,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: baseline run: %w", err)
	}
	if !baseline.Raw.Exited || baseline.Raw.ExitCode != 0 {
		return nil, &errs.BaselineFailed{ExitCode: baseline.Raw.ExitCode, Trapped: baseline.Raw.Trapped, Cause: fmt.Errorf("%s", baseline.Raw.TrapMessage)}
	}
	log.WithField("cycles", baseline.Cycles).Debug("baseline run complete")

	budget := engine.Budget(baseline.Cycles, cfg.Engine.TimeoutMultiplier)
	workers := resolveWorkers(cfg)

	p := pool.NewWithResults[result.MutationResult]().WithMaxGoroutines(workers)
	for _, c := range loaded.Candidates {
		c := c
		p.Go(func() result.MutationResult {
			if cfg.Engine.CoverageBasedExecution {
				if _, ok := touched[c.ByteOffset]; !ok {
					return result.MutationResult{Candidate: c, Outcome: result.Skipped}
				}
			}
			return runClassicalCandidate(loaded.Module, c, cfg, budget, log)
		})
	}
	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Candidate.ID < results[j].Candidate.ID })

	summary := result.Scorer{}.Score(results)
	return &MutateReport{Summary: summary, Results: results}, nil
}

func runClassicalCandidate(m *wasmmod.Module, c discovery.Candidate, cfg config.Config, budget uint64, log logrus.FieldLogger) result.MutationResult {
	artifact, err := metamutant.BuildOne(m, c)
	if err != nil {
		return result.MutationResult{Candidate: c, Outcome: result.Error, Err: err}
	}
	eng, err := engine.New(artifact, cfg.Engine.MapDirs, log)
	if err != nil {
		return result.MutationResult{Candidate: c, Outcome: result.Error, Err: err}
	}
	out, err := eng.Run(engine.RunOptions{ActiveMutationID: metamutant.SentinelID, FuelBudget: budget})
	if err != nil {
		return result.MutationResult{Candidate: c, Outcome: result.Error, Err: err}
	}
	return result.MutationResult{Candidate: c, Outcome: engine.Classify(out.Raw), Cycles: out.Cycles}
}

// Run executes the baseline only (the `run` verb), with no mutation
// candidates and no meta-mutant patching needed.
func Run(loaded *Loaded, cfg config.Config, log logrus.FieldLogger) (engine.RunOutcome, error) {
	artifact, err := metamutant.Build(loaded.Module, nil, metamutant.Options{})
	if err != nil {
		return engine.RunOutcome{}, fmt.Errorf("pipeline: building artifact: %w", err)
	}
	eng, err := engine.New(artifact, cfg.Engine.MapDirs, log)
	if err != nil {
		return engine.RunOutcome{}, fmt.Errorf("pipeline: compiling artifact: %w", err)
	}
	return eng.Run(engine.RunOptions{ActiveMutationID: metamutant.SentinelID})
}
