package metamutant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/leb128"
	"github.com/wasmut/wasmut/internal/wasmmod"
)

func buildSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, leb128.EncodeUint32(uint32(len(content)))...)
	return append(out, content...)
}

func vec(n int, body func(i int) []byte) []byte {
	out := leb128.EncodeUint32(uint32(n))
	for i := 0; i < n; i++ {
		out = append(out, body(i)...)
	}
	return out
}

// buildAddModule assembles func add(i32,i32)->i32 { local.get 0; local.get
// 1; i32.add; end }, exported as "add" and "_start".
func buildAddModule(t *testing.T) *wasmmod.Module {
	t.Helper()

	typeSec := buildSection(1, vec(1, func(i int) []byte {
		out := []byte{0x60}
		out = append(out, leb128.EncodeUint32(2)...)
		out = append(out, wasmmod.ValueTypeI32, wasmmod.ValueTypeI32)
		out = append(out, leb128.EncodeUint32(1)...)
		out = append(out, wasmmod.ValueTypeI32)
		return out
	}))
	funcSec := buildSection(3, vec(1, func(i int) []byte { return leb128.EncodeUint32(0) }))
	body := []byte{wasmmod.OpcodeLocalGet, 0x00, wasmmod.OpcodeLocalGet, 0x01, wasmmod.OpcodeI32Add, wasmmod.OpcodeEnd}
	entry := leb128.EncodeUint32(0)
	entry = append(entry, body...)
	entryWithSize := leb128.EncodeUint32(uint32(len(entry)))
	entryWithSize = append(entryWithSize, entry...)
	codeSec := buildSection(10, vec(1, func(i int) []byte { return entryWithSize }))
	exportSec := buildSection(7, vec(2, func(i int) []byte {
		name := []string{"add", "_start"}[i]
		out := leb128.EncodeUint32(uint32(len(name)))
		out = append(out, name...)
		out = append(out, wasmmod.ExternKindFunc)
		out = append(out, leb128.EncodeUint32(0)...)
		return out
	}))

	var raw []byte
	raw = append(raw, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	raw = append(raw, typeSec...)
	raw = append(raw, funcSec...)
	raw = append(raw, codeSec...)
	raw = append(raw, exportSec...)

	m, err := wasmmod.DecodeModule(raw)
	require.NoError(t, err)
	return m
}

func addInstructionOffset(t *testing.T, m *wasmmod.Module) uint32 {
	t.Helper()
	for _, inst := range m.Functions[0].Code.Instructions {
		if inst.Opcode == wasmmod.OpcodeI32Add {
			return inst.Offset
		}
	}
	t.Fatal("i32.add not found")
	return 0
}

func TestBuild_singleCandidate_roundTripsAndShiftsCallsAndExports(t *testing.T) {
	m := buildAddModule(t)
	offset := addInstructionOffset(t, m)

	candidates := []discovery.Candidate{
		{ID: 0, OperatorName: "binop_i32.add_to_i32.sub", FunctionIndex: 0, ByteOffset: offset, Replacement: []byte{wasmmod.OpcodeI32Sub}},
	}

	artifact, err := Build(m, candidates, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, artifact.Binary)
	require.Empty(t, artifact.TouchedOffsets)

	rebuilt, err := wasmmod.DecodeModule(artifact.Binary)
	require.NoError(t, err)

	// One new host import shifts the sole module-defined function from
	// index 0 to index 1; both exports must follow.
	require.Len(t, rebuilt.Functions, 2)
	require.True(t, rebuilt.Functions[0].Imported)
	require.Equal(t, "wasmut", rebuilt.ImportSection[0].Module)
	require.Equal(t, "active_mutation", rebuilt.ImportSection[0].Name)

	var addExport, startExport *wasmmod.Export
	for i := range rebuilt.ExportSection {
		switch rebuilt.ExportSection[i].Name {
		case "add":
			addExport = &rebuilt.ExportSection[i]
		case "_start":
			startExport = &rebuilt.ExportSection[i]
		}
	}
	require.NotNil(t, addExport)
	require.NotNil(t, startExport)
	require.Equal(t, uint32(1), addExport.Index)
	require.Equal(t, uint32(1), startExport.Index)

	fn := rebuilt.Functions[1]
	var sawCallToActiveMutation, sawIf, sawSub bool
	for _, inst := range fn.Code.Instructions {
		if inst.Opcode == wasmmod.OpcodeCall && inst.Immediates.FuncIndex == 0 {
			sawCallToActiveMutation = true
		}
		if inst.Opcode == wasmmod.OpcodeIf {
			sawIf = true
		}
		if inst.Opcode == wasmmod.OpcodeI32Sub {
			sawSub = true
		}
	}
	require.True(t, sawCallToActiveMutation, "expected a call to the new active_mutation import")
	require.True(t, sawIf, "expected the candidate site wrapped in an if")
	require.True(t, sawSub, "expected the replacement opcode to survive re-encoding")
}

func TestBuild_coverageEnabled_emitsMarkTouchedAndRecordsOffset(t *testing.T) {
	m := buildAddModule(t)
	offset := addInstructionOffset(t, m)
	candidates := []discovery.Candidate{
		{ID: 0, OperatorName: "binop_i32.add_to_i32.sub", FunctionIndex: 0, ByteOffset: offset, Replacement: []byte{wasmmod.OpcodeI32Sub}},
	}

	artifact, err := Build(m, candidates, Options{CoverageEnabled: true})
	require.NoError(t, err)
	require.Contains(t, artifact.TouchedOffsets, offset)

	rebuilt, err := wasmmod.DecodeModule(artifact.Binary)
	require.NoError(t, err)
	require.Len(t, rebuilt.ImportSection, 2)
	require.Equal(t, "mark_touched", rebuilt.ImportSection[1].Name)

	var sawCallToMarkTouched bool
	for _, inst := range rebuilt.Functions[2].Code.Instructions {
		if inst.Opcode == wasmmod.OpcodeCall && inst.Immediates.FuncIndex == 1 {
			sawCallToMarkTouched = true
		}
	}
	require.True(t, sawCallToMarkTouched)
}

func TestBuild_stackedCandidatesAtSameOffset_nestInDiscoveryOrder(t *testing.T) {
	m := buildAddModule(t)
	offset := addInstructionOffset(t, m)
	candidates := []discovery.Candidate{
		{ID: 0, OperatorName: "binop_i32.add_to_i32.sub", FunctionIndex: 0, ByteOffset: offset, Replacement: []byte{wasmmod.OpcodeI32Sub}},
		{ID: 1, OperatorName: "binop_i32.add_to_i32.mul", FunctionIndex: 0, ByteOffset: offset, Replacement: []byte{wasmmod.OpcodeI32Mul}},
	}

	artifact, err := Build(m, candidates, Options{})
	require.NoError(t, err)

	rebuilt, err := wasmmod.DecodeModule(artifact.Binary)
	require.NoError(t, err)

	var ifCount int
	for _, inst := range rebuilt.Functions[1].Code.Instructions {
		if inst.Opcode == wasmmod.OpcodeIf {
			ifCount++
		}
	}
	require.Equal(t, 2, ifCount)
}

func TestBuild_noCandidates_preservesFunctionUnchangedAsideFromCallShift(t *testing.T) {
	m := buildAddModule(t)
	artifact, err := Build(m, nil, Options{})
	require.NoError(t, err)

	rebuilt, err := wasmmod.DecodeModule(artifact.Binary)
	require.NoError(t, err)
	require.Len(t, rebuilt.Functions[1].Code.Instructions, 4)
}
