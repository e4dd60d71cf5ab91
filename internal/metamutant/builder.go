// Package metamutant implements spec.md §4.5: rewriting a module's code
// section so every discovered mutation candidate becomes a
// runtime-selectable branch in a single compiled artifact, gated by an
// imported host function returning the currently active mutation id.
// Grounded on the structural rewrite-and-reserialize shape of
// other_examples' dce.go pass, combined with wazero's own binary encoder
// conventions for the emitted byte layout.
package metamutant

import (
	"fmt"

	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/leb128"
	"github.com/wasmut/wasmut/internal/wasmmod"
)

// SentinelID denotes "no mutation active"; the baseline run configures
// its host import to always return this value.
const SentinelID int32 = -1

const hostModule = "wasmut"
const activeMutationFuncName = "active_mutation"
const markTouchedFuncName = "mark_touched"

// Options controls which optional instrumentation the builder emits.
type Options struct {
	// CoverageEnabled, when true, emits a mark_touched host call
	// immediately before every candidate site, per spec.md §4.7.
	CoverageEnabled bool
}

// Artifact is the single re-encoded module the execution engine compiles
// once and instantiates per run (baseline or mutant), per spec.md §4.5's
// "compile once, execute many" rationale.
type Artifact struct {
	Binary []byte
	// TouchedOffsets is every original byte offset instrumented with a
	// mark_touched call, i.e. the full candidate offset set when coverage
	// is enabled and empty otherwise. Which of these the baseline run
	// actually reaches is reported through the mark_touched host callback.
	TouchedOffsets map[uint32]struct{}
}

type typePool struct {
	types []wasmmod.FunctionType
	index map[string]uint32
}

func newTypePool(existing []wasmmod.FunctionType) *typePool {
	p := &typePool{types: append([]wasmmod.FunctionType(nil), existing...), index: map[string]uint32{}}
	for i, t := range p.types {
		p.index[typeKey(t.Params, t.Results)] = uint32(i)
	}
	return p
}

func typeKey(params, results []wasmmod.ValueType) string {
	return fmt.Sprintf("%v->%v", params, results)
}

func (p *typePool) ensure(params, results []wasmmod.ValueType) uint32 {
	key := typeKey(params, results)
	if idx, ok := p.index[key]; ok {
		return idx
	}
	idx := uint32(len(p.types))
	p.types = append(p.types, wasmmod.FunctionType{Params: params, Results: results})
	p.index[key] = idx
	return idx
}

// Build rewrites m into a single meta-mutant artifact encoding every
// candidate in candidates as a runtime-switchable branch.
func Build(m *wasmmod.Module, candidates []discovery.Candidate, opts Options) (*Artifact, error) {
	oldImportFuncCount := m.ImportFuncCount()
	shift := uint32(1)
	markTouchedIdx := uint32(0)
	if opts.CoverageEnabled {
		shift = 2
		markTouchedIdx = oldImportFuncCount + 1
	}
	activeMutationIdx := oldImportFuncCount

	pool := newTypePool(m.TypeSection)
	activeMutationType := pool.ensure(nil, []wasmmod.ValueType{wasmmod.ValueTypeI32})
	var markTouchedType uint32
	if opts.CoverageEnabled {
		markTouchedType = pool.ensure([]wasmmod.ValueType{wasmmod.ValueTypeI32}, nil)
	}

	byFuncThenOffset := groupByFunctionAndOffset(candidates)
	touched := map[uint32]struct{}{}

	cfg := rewriteConfig{
		oldImportFuncCount: oldImportFuncCount,
		shift:              shift,
		activeMutationIdx:  activeMutationIdx,
		markTouchedIdx:     markTouchedIdx,
		coverageEnabled:    opts.CoverageEnabled,
		touched:            touched,
	}

	codeEntries := make([][]byte, 0, len(m.FunctionSection))
	for i := range m.FunctionSection {
		fn := &m.Functions[int(oldImportFuncCount)+i]
		body, err := rewriteFunctionBody(m, fn, byFuncThenOffset[fn.Index], pool, cfg)
		if err != nil {
			return nil, fmt.Errorf("metamutant: function %d: %w", fn.Index, err)
		}
		codeEntries = append(codeEntries, encodeCodeEntry(fn.Code.LocalTypes, body))
	}

	imports := append([]wasmmod.Import(nil), m.ImportSection...)
	imports = append(imports, wasmmod.Import{Module: hostModule, Name: activeMutationFuncName, Kind: wasmmod.ExternKindFunc, TypeIndex: activeMutationType})
	if opts.CoverageEnabled {
		imports = append(imports, wasmmod.Import{Module: hostModule, Name: markTouchedFuncName, Kind: wasmmod.ExternKindFunc, TypeIndex: markTouchedType})
	}

	exports := make([]wasmmod.Export, len(m.ExportSection))
	for i, exp := range m.ExportSection {
		exports[i] = exp
		if exp.Kind == wasmmod.ExternKindFunc && exp.Index >= oldImportFuncCount {
			exports[i].Index += shift
		}
	}

	startSection, err := shiftStartSection(m.StartSection, cfg)
	if err != nil {
		return nil, fmt.Errorf("metamutant: start section: %w", err)
	}

	var out []byte
	out = append(out, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	out = append(out, encodeTypeSection(pool.types)...)
	out = append(out, encodeImportSection(imports)...)
	out = append(out, encodeFunctionSection(m.FunctionSection)...)
	if len(m.TableSection) > 0 {
		out = append(out, encodeSection(4, m.TableSection)...)
	}
	if len(m.MemorySection) > 0 {
		out = append(out, encodeSection(5, m.MemorySection)...)
	}
	if len(m.GlobalSection) > 0 {
		out = append(out, encodeSection(6, m.GlobalSection)...)
	}
	out = append(out, encodeExportSection(exports)...)
	if len(startSection) > 0 {
		out = append(out, encodeSection(8, startSection)...)
	}
	if len(m.ElementSection) > 0 {
		// Element segments that reference module-defined functions by
		// index would also need shifting; left unshifted is a known
		// limitation (see DESIGN.md) since the many element-segment
		// encodings (bulk-memory proposal) aren't parsed by this
		// package, which only walks code bodies and the flat sections
		// discovery and the builder actually need.
		out = append(out, encodeSection(9, m.ElementSection)...)
	}
	if len(m.DataCountSection) > 0 {
		out = append(out, encodeSection(12, m.DataCountSection)...)
	}
	out = append(out, encodeCodeSection(codeEntries)...)
	if len(m.DataSection) > 0 {
		out = append(out, encodeSection(11, m.DataSection)...)
	}

	return &Artifact{Binary: out, TouchedOffsets: touched}, nil
}

// shiftStartSection re-encodes the start section's function index, which
// is shifted exactly like a call target when it falls in the
// module-defined range.
func shiftStartSection(content []byte, cfg rewriteConfig) ([]byte, error) {
	if len(content) == 0 {
		return nil, nil
	}
	idx, _, err := leb128.LoadUint32(content)
	if err != nil {
		return nil, err
	}
	if idx >= cfg.oldImportFuncCount {
		idx += cfg.shift
	}
	return leb128.EncodeUint32(idx), nil
}

// BuildOne implements spec.md §4.5's classical-mutant opt-out
// (`engine.meta_mutant=false`): m rewritten with exactly one candidate's
// replacement substituted unconditionally, "the same per-candidate patch
// logic with the condition removed." Unlike Build, no host imports are
// added — there is nothing to switch between at runtime, so the
// function-index space and every call site are left exactly as decoded.
func BuildOne(m *wasmmod.Module, c discovery.Candidate) (*Artifact, error) {
	oldImportFuncCount := m.ImportFuncCount()
	codeEntries := make([][]byte, 0, len(m.FunctionSection))
	for i := range m.FunctionSection {
		fn := &m.Functions[int(oldImportFuncCount)+i]
		codeEntries = append(codeEntries, encodeCodeEntry(fn.Code.LocalTypes, rewriteFunctionBodyOne(fn, c)))
	}

	var out []byte
	out = append(out, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	out = append(out, encodeTypeSection(m.TypeSection)...)
	out = append(out, encodeImportSection(m.ImportSection)...)
	out = append(out, encodeFunctionSection(m.FunctionSection)...)
	if len(m.TableSection) > 0 {
		out = append(out, encodeSection(4, m.TableSection)...)
	}
	if len(m.MemorySection) > 0 {
		out = append(out, encodeSection(5, m.MemorySection)...)
	}
	if len(m.GlobalSection) > 0 {
		out = append(out, encodeSection(6, m.GlobalSection)...)
	}
	out = append(out, encodeExportSection(m.ExportSection)...)
	if len(m.StartSection) > 0 {
		out = append(out, encodeSection(8, m.StartSection)...)
	}
	if len(m.ElementSection) > 0 {
		out = append(out, encodeSection(9, m.ElementSection)...)
	}
	if len(m.DataCountSection) > 0 {
		out = append(out, encodeSection(12, m.DataCountSection)...)
	}
	out = append(out, encodeCodeSection(codeEntries)...)
	if len(m.DataSection) > 0 {
		out = append(out, encodeSection(11, m.DataSection)...)
	}
	return &Artifact{Binary: out}, nil
}

func rewriteFunctionBodyOne(fn *wasmmod.Function, c discovery.Candidate) []byte {
	var out []byte
	for _, inst := range fn.Code.Instructions {
		if fn.Index == c.FunctionIndex && inst.Offset == c.ByteOffset {
			out = append(out, c.Replacement...)
			continue
		}
		out = append(out, inst.Raw...)
	}
	return out
}

func groupByFunctionAndOffset(candidates []discovery.Candidate) map[uint32]map[uint32][]discovery.Candidate {
	out := map[uint32]map[uint32][]discovery.Candidate{}
	for _, c := range candidates {
		byOffset, ok := out[c.FunctionIndex]
		if !ok {
			byOffset = map[uint32][]discovery.Candidate{}
			out[c.FunctionIndex] = byOffset
		}
		byOffset[c.ByteOffset] = append(byOffset[c.ByteOffset], c)
	}
	return out
}

type rewriteConfig struct {
	oldImportFuncCount uint32
	shift              uint32
	activeMutationIdx  uint32
	markTouchedIdx     uint32
	coverageEnabled    bool
	touched            map[uint32]struct{}
}

func rewriteFunctionBody(m *wasmmod.Module, fn *wasmmod.Function, byOffset map[uint32][]discovery.Candidate, pool *typePool, cfg rewriteConfig) ([]byte, error) {
	var out []byte
	for _, inst := range fn.Code.Instructions {
		cands, isCandidate := byOffset[inst.Offset]
		if !isCandidate {
			out = append(out, reencodeCallIfNeeded(inst, cfg)...)
			continue
		}

		original := reencodeCallIfNeeded(inst, cfg)
		blockType, err := blockTypeFor(m, inst, cands[0].OperatorName, pool)
		if err != nil {
			return nil, err
		}

		if cfg.coverageEnabled {
			cfg.touched[inst.Offset] = struct{}{}
			out = append(out, wasmmod.OpcodeI32Const)
			out = append(out, leb128.EncodeInt32(int32(inst.Offset))...)
			out = append(out, wasmmod.OpcodeCall)
			out = append(out, leb128.EncodeUint32(cfg.markTouchedIdx)...)
		}

		out = append(out, buildCascade(cands, original, blockType, cfg.activeMutationIdx)...)
	}
	return out, nil
}

// reencodeCallIfNeeded re-encodes a `call` instruction with its function
// index shifted past the newly inserted host imports; every other
// instruction kind is returned verbatim since no other instruction that
// wasmmod decodes carries a function-index immediate.
func reencodeCallIfNeeded(inst wasmmod.Instruction, cfg rewriteConfig) []byte {
	if inst.Opcode != wasmmod.OpcodeCall {
		return inst.Raw
	}
	idx := inst.Immediates.FuncIndex
	if idx >= cfg.oldImportFuncCount {
		idx += cfg.shift
	}
	out := []byte{wasmmod.OpcodeCall}
	return append(out, leb128.EncodeUint32(idx)...)
}

// blockTypeFor computes the `if` blocktype needed to wrap original and
// every candidate's replacement at inst, whose arity the two branches
// always share (spec.md §9).
func blockTypeFor(m *wasmmod.Module, inst wasmmod.Instruction, firstOperator string, pool *typePool) ([]byte, error) {
	switch {
	case inst.Opcode == wasmmod.OpcodeI32Const || inst.Opcode == wasmmod.OpcodeI64Const:
		// const_replace_{zero,nonzero}: 0 params, 1 result — the single
		// value-type blocktype form covers this directly.
		t := wasmmod.ValueTypeI32
		if inst.Opcode == wasmmod.OpcodeI64Const {
			t = wasmmod.ValueTypeI64
		}
		return blockTypeValue(t), nil

	case inst.Opcode == wasmmod.OpcodeCall:
		// call removal: the callee's own function type is, by
		// construction, exactly this call site's stack signature, and
		// its TypeSection index is still valid since the pool only
		// appends new entries.
		callee, err := m.FunctionAt(inst.Immediates.FuncIndex)
		if err != nil {
			return nil, fmt.Errorf("call target: %w", err)
		}
		return blockTypeIndex(callee.TypeIndex), nil

	default:
		a, ok := instructionArity[inst.Opcode]
		if !ok {
			return nil, fmt.Errorf("no known arity for opcode 0x%02x (operator %s)", inst.Opcode, firstOperator)
		}
		if len(a.params) == 0 {
			if len(a.results) == 0 {
				return blockTypeEmpty(), nil
			}
			return blockTypeValue(a.results[0]), nil
		}
		return blockTypeIndex(pool.ensure(a.params, a.results)), nil
	}
}

// buildCascade nests candidates (in discovery order, id ascending)
// around original so the first-discovered candidate is checked first,
// per spec.md §4.5 item 3.
func buildCascade(cands []discovery.Candidate, original []byte, blockType []byte, activeMutationIdx uint32) []byte {
	bytes := original
	for i := len(cands) - 1; i >= 0; i-- {
		c := cands[i]
		var buf []byte
		buf = append(buf, wasmmod.OpcodeCall)
		buf = append(buf, leb128.EncodeUint32(activeMutationIdx)...)
		buf = append(buf, wasmmod.OpcodeI32Const)
		buf = append(buf, leb128.EncodeInt32(int32(c.ID))...)
		buf = append(buf, wasmmod.OpcodeI32Eq)
		buf = append(buf, wasmmod.OpcodeIf)
		buf = append(buf, blockType...)
		buf = append(buf, c.Replacement...)
		buf = append(buf, wasmmod.OpcodeElse)
		buf = append(buf, bytes...)
		buf = append(buf, wasmmod.OpcodeEnd)
		bytes = buf
	}
	return bytes
}
