package mutator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/wasmmod"
)

// Operator names follow spec.md §8's flat scheme ("binop_add_to_sub",
// "relop_lt_to_le"): distinct swapOperators for different concrete
// types (i32/i64/f32/f64) or signedness deliberately share a Name() and
// are told apart only by which opcode each one's From actually matches.
// What must stay unique is (Name, From) — two operators with the same
// name ever matching the exact same opcode would be a genuine duplicate
// rule.
func TestRegistry_noOperatorDuplicatesNameAndOpcode(t *testing.T) {
	reg := NewRegistry()
	type key struct {
		name string
		op   wasmmod.Opcode
	}
	seen := map[key]bool{}
	for _, op := range reg.All() {
		so, ok := op.(*swapOperator)
		if !ok {
			continue
		}
		k := key{name: so.Name(), op: so.from}
		require.False(t, seen[k], "duplicate operator %q for opcode %v", so.Name(), so.from)
		seen[k] = true
	}
	require.NotEmpty(t, reg.All())
}

func TestSwapOperator_matchesAndMutates(t *testing.T) {
	reg := NewRegistry()
	var addToSub Operator
	for _, op := range reg.All() {
		if op.Name() == "binop_add_to_sub" {
			so, ok := op.(*swapOperator)
			if ok && so.from == wasmmod.OpcodeI32Add {
				addToSub = op
			}
		}
	}
	require.NotNil(t, addToSub)

	ctx := Context{Instructions: []wasmmod.Instruction{{Opcode: wasmmod.OpcodeI32Add}}, Index: 0}
	require.True(t, addToSub.Matches(ctx))
	require.Equal(t, []byte{wasmmod.OpcodeI32Sub}, addToSub.Mutate(ctx))

	notMatching := Context{Instructions: []wasmmod.Instruction{{Opcode: wasmmod.OpcodeI32Sub}}, Index: 0}
	require.False(t, addToSub.Matches(notMatching))
}

func TestConstReplaceZero(t *testing.T) {
	op := constReplaceZero{}
	ctx := Context{Instructions: []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeI32Const, Immediates: wasmmod.Immediates{I32: 0}},
	}, Index: 0}
	require.True(t, op.Matches(ctx))
	require.Equal(t, []byte{wasmmod.OpcodeI32Const, 42}, op.Mutate(ctx))
}

func TestConstReplaceNonzero(t *testing.T) {
	op := constReplaceNonzero{}
	ctx := Context{Instructions: []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeI64Const, Immediates: wasmmod.Immediates{I64: 7}},
	}, Index: 0}
	require.True(t, op.Matches(ctx))
	require.Equal(t, []byte{wasmmod.OpcodeI64Const, 0}, op.Mutate(ctx))
}

func TestCallRemoveVoidAndScalar(t *testing.T) {
	mod := &wasmmod.Module{
		Functions: []wasmmod.Function{
			{Index: 0, Type: &wasmmod.FunctionType{}},
			{Index: 1, Type: &wasmmod.FunctionType{Results: []wasmmod.ValueType{wasmmod.ValueTypeI32}}},
		},
	}

	voidCtx := Context{Module: mod, Instructions: []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeCall, Immediates: wasmmod.Immediates{FuncIndex: 0}},
	}, Index: 0}
	require.True(t, callRemoveVoidCall{}.Matches(voidCtx))
	require.Empty(t, callRemoveVoidCall{}.Mutate(voidCtx))

	scalarCtx := Context{Module: mod, Instructions: []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeCall, Immediates: wasmmod.Immediates{FuncIndex: 1}},
	}, Index: 0}
	require.True(t, callRemoveScalarCall{}.Matches(scalarCtx))
	require.Equal(t, []byte{wasmmod.OpcodeI32Const, 42}, callRemoveScalarCall{}.Mutate(scalarCtx))

	require.False(t, callRemoveScalarCall{}.Matches(voidCtx))
	require.False(t, callRemoveVoidCall{}.Matches(scalarCtx))
}

func TestCallRemove_dropsArguments(t *testing.T) {
	mod := &wasmmod.Module{
		Functions: []wasmmod.Function{
			{Index: 0, Type: &wasmmod.FunctionType{Params: []wasmmod.ValueType{wasmmod.ValueTypeI32, wasmmod.ValueTypeI64}}},
			{Index: 1, Type: &wasmmod.FunctionType{
				Params:  []wasmmod.ValueType{wasmmod.ValueTypeF64},
				Results: []wasmmod.ValueType{wasmmod.ValueTypeI32},
			}},
		},
	}

	voidCtx := Context{Module: mod, Instructions: []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeCall, Immediates: wasmmod.Immediates{FuncIndex: 0}},
	}, Index: 0}
	require.Equal(t, []byte{wasmmod.OpcodeDrop, wasmmod.OpcodeDrop}, callRemoveVoidCall{}.Mutate(voidCtx))

	scalarCtx := Context{Module: mod, Instructions: []wasmmod.Instruction{
		{Opcode: wasmmod.OpcodeCall, Immediates: wasmmod.Immediates{FuncIndex: 1}},
	}, Index: 0}
	require.Equal(t,
		append([]byte{wasmmod.OpcodeDrop}, append([]byte{wasmmod.OpcodeI32Const}, 42)...),
		callRemoveScalarCall{}.Mutate(scalarCtx))
}
