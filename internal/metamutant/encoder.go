package metamutant

import (
	"github.com/wasmut/wasmut/internal/leb128"
	"github.com/wasmut/wasmut/internal/wasmmod"
)

func encodeSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, leb128.EncodeUint32(uint32(len(content)))...)
	return append(out, content...)
}

func encodeVec(n int, body func(i int) []byte) []byte {
	out := leb128.EncodeUint32(uint32(n))
	for i := 0; i < n; i++ {
		out = append(out, body(i)...)
	}
	return out
}

func encodeName(s string) []byte {
	out := leb128.EncodeUint32(uint32(len(s)))
	return append(out, s...)
}

func encodeFunctionType(t wasmmod.FunctionType) []byte {
	out := []byte{0x60}
	out = append(out, encodeVec(len(t.Params), func(i int) []byte { return []byte{t.Params[i]} })...)
	out = append(out, encodeVec(len(t.Results), func(i int) []byte { return []byte{t.Results[i]} })...)
	return out
}

func encodeTypeSection(types []wasmmod.FunctionType) []byte {
	return encodeSection(1, encodeVec(len(types), func(i int) []byte { return encodeFunctionType(types[i]) }))
}

func encodeImport(imp wasmmod.Import) []byte {
	out := encodeName(imp.Module)
	out = append(out, encodeName(imp.Name)...)
	out = append(out, imp.Kind)
	if imp.Kind == wasmmod.ExternKindFunc {
		out = append(out, leb128.EncodeUint32(imp.TypeIndex)...)
	}
	return out
}

func encodeImportSection(imports []wasmmod.Import) []byte {
	return encodeSection(2, encodeVec(len(imports), func(i int) []byte { return encodeImport(imports[i]) }))
}

func encodeFunctionSection(typeIndices []uint32) []byte {
	return encodeSection(3, encodeVec(len(typeIndices), func(i int) []byte { return leb128.EncodeUint32(typeIndices[i]) }))
}

func encodeExport(exp wasmmod.Export) []byte {
	out := encodeName(exp.Name)
	out = append(out, exp.Kind)
	return append(out, leb128.EncodeUint32(exp.Index)...)
}

func encodeExportSection(exports []wasmmod.Export) []byte {
	return encodeSection(7, encodeVec(len(exports), func(i int) []byte { return encodeExport(exports[i]) }))
}

// encodeCodeEntry assembles one code-section function body: the
// run-length-encoded local declarations followed by the instruction
// stream (which must already end with OpcodeEnd).
func encodeCodeEntry(locals []wasmmod.ValueType, body []byte) []byte {
	runs := runLengthEncodeLocals(locals)
	entry := encodeVec(len(runs), func(i int) []byte {
		out := leb128.EncodeUint32(runs[i].count)
		return append(out, runs[i].t)
	})
	entry = append(entry, body...)
	out := leb128.EncodeUint32(uint32(len(entry)))
	return append(out, entry...)
}

type localRun struct {
	count uint32
	t     wasmmod.ValueType
}

func runLengthEncodeLocals(locals []wasmmod.ValueType) []localRun {
	var runs []localRun
	for _, t := range locals {
		if len(runs) > 0 && runs[len(runs)-1].t == t {
			runs[len(runs)-1].count++
			continue
		}
		runs = append(runs, localRun{count: 1, t: t})
	}
	return runs
}

func encodeCodeSection(entries [][]byte) []byte {
	return encodeSection(10, encodeVec(len(entries), func(i int) []byte { return entries[i] }))
}

// blockTypeEmpty, blockTypeValue and blockTypeIndex encode an
// `if`/`block`/`loop` blocktype: the empty type, a single result value
// type, or (whenever the block takes parameters) a type-section index.
func blockTypeEmpty() []byte { return []byte{0x40} }

func blockTypeValue(t wasmmod.ValueType) []byte { return []byte{t} }

func blockTypeIndex(idx uint32) []byte { return leb128.EncodeInt32(int32(idx)) }
