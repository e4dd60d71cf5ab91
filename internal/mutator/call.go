package mutator

import (
	"fmt"

	"github.com/wasmut/wasmut/internal/leb128"
	"github.com/wasmut/wasmut/internal/wasmmod"
)

func calleeType(ctx Context) *wasmmod.FunctionType {
	inst := ctx.Current()
	if inst.Opcode != wasmmod.OpcodeCall {
		return nil
	}
	fn, err := ctx.Module.FunctionAt(inst.Immediates.FuncIndex)
	if err != nil {
		return nil
	}
	return fn.Type
}

// callRemoveVoidCall matches `call <f>` where f's type yields no result;
// the replacement is the empty instruction sequence, per spec.md §4.3.
type callRemoveVoidCall struct{}

func (callRemoveVoidCall) Name() string { return "call_remove_void_call" }

func (callRemoveVoidCall) Matches(ctx Context) bool {
	t := calleeType(ctx)
	return t != nil && t.IsVoid()
}

// Mutate drops every argument the call would have consumed: the call's
// stack effect is params->(), so the replacement must still consume
// params-> to balance the enclosing cascade's declared blocktype.
func (callRemoveVoidCall) Mutate(ctx Context) []byte {
	t := calleeType(ctx)
	return dropArgs(t)
}

func (callRemoveVoidCall) Describe(ctx Context) string {
	return fmt.Sprintf("call to function %d removed (void)", ctx.Current().Immediates.FuncIndex)
}

// callRemoveScalarCall matches `call <f>` where f's type yields exactly
// one scalar (non-reference) result; the replacement is a single const 42
// of the matching numeric type, per spec.md §4.3.
type callRemoveScalarCall struct{}

func (callRemoveScalarCall) Name() string { return "call_remove_scalar_call" }

func (callRemoveScalarCall) Matches(ctx Context) bool {
	t := calleeType(ctx)
	return t != nil && t.IsScalar()
}

// Mutate drops every argument the call would have consumed, then pushes
// a fixed placeholder result: the call's stack effect is params->result,
// so the replacement must match params->result too.
func (callRemoveScalarCall) Mutate(ctx Context) []byte {
	t := calleeType(ctx)
	out := dropArgs(t)
	switch t.Results[0] {
	case wasmmod.ValueTypeI32:
		return append(out, append([]byte{wasmmod.OpcodeI32Const}, leb128.EncodeInt32(42)...)...)
	case wasmmod.ValueTypeI64:
		return append(out, append([]byte{wasmmod.OpcodeI64Const}, leb128.EncodeInt64(42)...)...)
	case wasmmod.ValueTypeF32:
		return append(out, append([]byte{wasmmod.OpcodeF32Const}, f32Bytes(42.0)...)...)
	default: // ValueTypeF64
		return append(out, append([]byte{wasmmod.OpcodeF64Const}, f64Bytes(42.0)...)...)
	}
}

// dropArgs emits one `drop` per parameter t's call would have consumed.
func dropArgs(t *wasmmod.FunctionType) []byte {
	out := make([]byte, 0, len(t.Params))
	for range t.Params {
		out = append(out, wasmmod.OpcodeDrop)
	}
	return out
}

func (callRemoveScalarCall) Describe(ctx Context) string {
	t := calleeType(ctx)
	return fmt.Sprintf("call to function %d replaced with const 42 (%s)",
		ctx.Current().Immediates.FuncIndex, wasmmod.ValueTypeName(t.Results[0]))
}

func callOperators() []Operator {
	return []Operator{callRemoveVoidCall{}, callRemoveScalarCall{}}
}
