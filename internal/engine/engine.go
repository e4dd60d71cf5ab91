// Package engine implements spec.md §4.6: compiling the meta-mutant
// artifact once with wasmtime-go's Cranelift backend, then instantiating
// and running it under fuel-based instruction metering, once per
// candidate (plus the baseline), via a work-stealing pool.
//
// Grounded on the teacher's own wasmtime-go integration harness
// (internal/integration_test/vs/wasmtime/wasmtime.go): one shared
// *wasmtime.Engine and *wasmtime.Module, a fresh *wasmtime.Store and
// WASI config per run, a Linker wiring host imports before
// instantiation, then invoking the "_start" export.
package engine

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v3"
	"github.com/sirupsen/logrus"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/errs"
	"github.com/wasmut/wasmut/internal/metamutant"
)

// Engine owns one compiled meta-mutant artifact, shared read-only across
// every run. Compiled once, per spec.md §4.5's "compile once, execute
// many" rationale.
type Engine struct {
	wasmtimeEngine *wasmtime.Engine
	module         *wasmtime.Module
	mapDirs        []config.MapDir
	log            logrus.FieldLogger
}

// New compiles artifact's binary and returns an Engine ready to run it.
func New(artifact *metamutant.Artifact, mapDirs []config.MapDir, log logrus.FieldLogger) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := wasmtime.NewConfig()
	cfg.SetConsumeFuel(true)

	wtEngine := wasmtime.NewEngineWithConfig(cfg)
	mod, err := wasmtime.NewModule(wtEngine, artifact.Binary)
	if err != nil {
		return nil, fmt.Errorf("engine: compiling meta-mutant artifact: %w", err)
	}
	return &Engine{wasmtimeEngine: wtEngine, module: mod, mapDirs: mapDirs, log: log}, nil
}

// RunOptions parameterizes one _start invocation.
type RunOptions struct {
	// ActiveMutationID is the value wasmut.active_mutation returns;
	// metamutant.SentinelID selects the baseline.
	ActiveMutationID int32
	// FuelBudget is the run's instruction budget. Zero means unbounded
	// (used for the baseline's cycle-counting run).
	FuelBudget uint64
	// OnTouched, if non-nil, is invoked once per mark_touched call
	// (coverage pre-pass, spec.md §4.7), with the instruction's
	// *original* byte offset.
	OnTouched func(offset uint32)
}

// RunOutcome is one run's raw result plus its consumed cycle count.
type RunOutcome struct {
	Raw    RunResult
	Cycles uint64
}

// Run instantiates a fresh store and executes "_start" once, per
// spec.md §4.6's "runs are independent and idempotent" requirement: a
// new Store, WASI context and set of host imports every call, so no
// state leaks between mutants.
func (e *Engine) Run(opts RunOptions) (RunOutcome, error) {
	store := wasmtime.NewStore(e.wasmtimeEngine)

	if opts.FuelBudget > 0 {
		if err := store.AddFuel(opts.FuelBudget); err != nil {
			return RunOutcome{}, fmt.Errorf("engine: adding fuel: %w", err)
		}
	} else {
		// Unbounded baseline measurement: a very large budget still
		// lets FuelConsumed() report the true cycle count.
		if err := store.AddFuel(^uint64(0) >> 1); err != nil {
			return RunOutcome{}, fmt.Errorf("engine: adding fuel: %w", err)
		}
	}

	wasiConfig := wasmtime.NewWasiConfig()
	wasiConfig.InheritStdout()
	wasiConfig.InheritStderr()
	for _, d := range e.mapDirs {
		if err := wasiConfig.PreopenDir(d.Host, d.Guest); err != nil {
			return RunOutcome{}, fmt.Errorf("engine: preopening %s: %w", d.Host, err)
		}
	}
	store.SetWasi(wasiConfig)

	linker := wasmtime.NewLinker(e.wasmtimeEngine)
	if err := linker.DefineWasi(); err != nil {
		return RunOutcome{}, fmt.Errorf("engine: defining wasi: %w", err)
	}

	activeID := opts.ActiveMutationID
	activeMutationFn := wasmtime.NewFunc(store,
		wasmtime.NewFuncType(nil, []*wasmtime.ValType{wasmtime.NewValType(wasmtime.KindI32)}),
		func(*wasmtime.Caller, []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			return []wasmtime.Val{wasmtime.ValI32(activeID)}, nil
		})
	if err := linker.Define("wasmut", "active_mutation", activeMutationFn); err != nil {
		return RunOutcome{}, fmt.Errorf("engine: defining active_mutation: %w", err)
	}

	// mark_touched is always defined, so mutant runs of a coverage-enabled
	// artifact instantiate too; without OnTouched the calls are no-ops.
	markTouchedFn := wasmtime.NewFunc(store,
		wasmtime.NewFuncType([]*wasmtime.ValType{wasmtime.NewValType(wasmtime.KindI32)}, nil),
		func(_ *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
			if opts.OnTouched != nil {
				opts.OnTouched(uint32(args[0].I32()))
			}
			return nil, nil
		})
	if err := linker.Define("wasmut", "mark_touched", markTouchedFn); err != nil {
		return RunOutcome{}, fmt.Errorf("engine: defining mark_touched: %w", err)
	}

	instance, err := linker.Instantiate(store, e.module)
	if err != nil {
		return RunOutcome{}, fmt.Errorf("engine: instantiating: %w", err)
	}
	start := instance.GetFunc(store, "_start")
	if start == nil {
		return RunOutcome{}, &errs.InvalidModule{Reason: `module does not export "_start"`}
	}

	_, callErr := start.Call(store)
	raw := interpretCallError(callErr)

	consumed, _ := store.FuelConsumed()
	return RunOutcome{Raw: raw, Cycles: consumed}, nil
}

// interpretCallError classifies _start's returned error into the
// exit-code/trap-reason shape spec.md §4.6 enumerates. WASI's
// proc_exit surfaces through wasmtime-go as an *wasmtime.Error exposing
// ExitStatus(); any other error is either a metering trap (fuel
// exhausted) or a genuine runtime trap.
func interpretCallError(err error) RunResult {
	if err == nil {
		return RunResult{Exited: true, ExitCode: 0}
	}
	if wtErr, ok := err.(*wasmtime.Error); ok {
		if code, ok := wtErr.ExitStatus(); ok {
			return RunResult{Exited: true, ExitCode: int(code)}
		}
	}
	if trap, ok := err.(*wasmtime.Trap); ok {
		if code := trap.Code(); code != nil && *code == wasmtime.OutOfFuel {
			return RunResult{OutOfFuel: true, Trapped: true, TrapMessage: trap.Message()}
		}
		return RunResult{Trapped: true, TrapMessage: trap.Message()}
	}
	return RunResult{Trapped: true, TrapMessage: err.Error()}
}
