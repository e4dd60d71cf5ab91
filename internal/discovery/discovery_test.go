package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/mutator"
	"github.com/wasmut/wasmut/internal/wasmmod"
	"github.com/wasmut/wasmut/internal/wasmmod/dwarf"
)

func buildAddModule() *wasmmod.Module {
	instructions := []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeLocalGet, Offset: 0},
		{Opcode: wasmmod.OpcodeLocalGet, Offset: 2},
		{Opcode: wasmmod.OpcodeI32Add, Offset: 4},
		{Opcode: wasmmod.OpcodeEnd, Offset: 5},
	}
	return &wasmmod.Module{
		Functions: []wasmmod.Function{
			{Index: 0, Name: "add", Code: &wasmmod.Code{Instructions: instructions}},
		},
	}
}

func TestDiscover_ordersByFunctionThenInstructionThenOperator(t *testing.T) {
	m := buildAddModule()
	resolver, err := dwarf.NewResolver(dwarf.Sections{})
	require.NoError(t, err)
	reg := mutator.NewRegistry()

	cands := Discover(m, resolver, reg, Filters{})
	require.NotEmpty(t, cands)
	for i, c := range cands {
		require.Equal(t, i, c.ID)
	}
	for i := 1; i < len(cands); i++ {
		require.LessOrEqual(t, cands[i-1].InstructionIndex, cands[i].InstructionIndex)
	}

	var addCandidate *Candidate
	for i := range cands {
		if cands[i].OperatorName == "binop_add_to_sub" {
			addCandidate = &cands[i]
		}
	}
	require.NotNil(t, addCandidate)
	require.Equal(t, uint32(4), addCandidate.ByteOffset)
}

// TestDiscover_simpleAddOperatorFilter is spec.md §8's *simple_add*
// scenario: with only "binop_add_to_sub" enabled, the candidate count
// on a module whose only matching instruction is one i32.add must be
// exactly 1.
func TestDiscover_simpleAddOperatorFilter(t *testing.T) {
	m := buildAddModule()
	resolver, err := dwarf.NewResolver(dwarf.Sections{})
	require.NoError(t, err)
	reg := mutator.NewRegistry()

	patterns, err := CompilePatterns([]string{"binop_add_to_sub"})
	require.NoError(t, err)
	cands := Discover(m, resolver, reg, Filters{EnabledOperators: patterns})
	require.Len(t, cands, 1)
	require.Equal(t, "binop_add_to_sub", cands[0].OperatorName)
}

func TestDiscover_emptyPatternMatchesAll_restrictivePatternMatchesNone(t *testing.T) {
	m := buildAddModule()
	resolver, err := dwarf.NewResolver(dwarf.Sections{})
	require.NoError(t, err)
	reg := mutator.NewRegistry()

	all := Discover(m, resolver, reg, Filters{})

	restrictive, err := CompilePatterns([]string{"$^"})
	require.NoError(t, err)
	none := Discover(m, resolver, reg, Filters{AllowedFunctions: restrictive})
	require.Empty(t, none)
	require.NotEmpty(t, all)
}

func TestDiscover_functionNameFilter(t *testing.T) {
	m := buildAddModule()
	m.Functions = append(m.Functions, wasmmod.Function{
		Index: 1, Name: "main",
		Code: &wasmmod.Code{Instructions: []wasmmod.Instruction{{Opcode: wasmmod.OpcodeI32Add, Offset: 0}}},
	})
	resolver, err := dwarf.NewResolver(dwarf.Sections{})
	require.NoError(t, err)
	reg := mutator.NewRegistry()

	patterns, err := CompilePatterns([]string{"^add$"})
	require.NoError(t, err)
	cands := Discover(m, resolver, reg, Filters{AllowedFunctions: patterns})
	for _, c := range cands {
		require.Equal(t, uint32(0), c.FunctionIndex)
	}
}
