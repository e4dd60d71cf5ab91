package mutator

import (
	"fmt"

	"github.com/wasmut/wasmut/internal/leb128"
	"github.com/wasmut/wasmut/internal/wasmmod"
)

// constReplaceZero matches an integer-typed const 0 (i32 or i64) and
// replaces it with the constant 42 of the same type, per spec.md §4.3.
type constReplaceZero struct{}

func (constReplaceZero) Name() string { return "const_replace_zero" }

func (constReplaceZero) Matches(ctx Context) bool {
	inst := ctx.Current()
	switch inst.Opcode {
	case wasmmod.OpcodeI32Const:
		return inst.Immediates.I32 == 0
	case wasmmod.OpcodeI64Const:
		return inst.Immediates.I64 == 0
	default:
		return false
	}
}

func (constReplaceZero) Mutate(ctx Context) []byte {
	inst := ctx.Current()
	if inst.Opcode == wasmmod.OpcodeI32Const {
		return append([]byte{wasmmod.OpcodeI32Const}, leb128.EncodeInt32(42)...)
	}
	return append([]byte{wasmmod.OpcodeI64Const}, leb128.EncodeInt64(42)...)
}

func (constReplaceZero) Describe(ctx Context) string {
	return fmt.Sprintf("const 0 replaced with 42 (%s)", constTypeName(ctx.Current()))
}

// constReplaceNonzero matches any integer const with a non-zero immediate
// and replaces it with 0 of the same type, per spec.md §4.3.
type constReplaceNonzero struct{}

func (constReplaceNonzero) Name() string { return "const_replace_nonzero" }

func (constReplaceNonzero) Matches(ctx Context) bool {
	inst := ctx.Current()
	switch inst.Opcode {
	case wasmmod.OpcodeI32Const:
		return inst.Immediates.I32 != 0
	case wasmmod.OpcodeI64Const:
		return inst.Immediates.I64 != 0
	default:
		return false
	}
}

func (constReplaceNonzero) Mutate(ctx Context) []byte {
	inst := ctx.Current()
	if inst.Opcode == wasmmod.OpcodeI32Const {
		return append([]byte{wasmmod.OpcodeI32Const}, leb128.EncodeInt32(0)...)
	}
	return append([]byte{wasmmod.OpcodeI64Const}, leb128.EncodeInt64(0)...)
}

func (constReplaceNonzero) Describe(ctx Context) string {
	inst := ctx.Current()
	var orig string
	if inst.Opcode == wasmmod.OpcodeI32Const {
		orig = fmt.Sprintf("%d", inst.Immediates.I32)
	} else {
		orig = fmt.Sprintf("%d", inst.Immediates.I64)
	}
	return fmt.Sprintf("const %s replaced with 0 (%s)", orig, constTypeName(inst))
}

func constTypeName(inst wasmmod.Instruction) string {
	if inst.Opcode == wasmmod.OpcodeI32Const {
		return "i32"
	}
	return "i64"
}

func constantOperators() []Operator {
	return []Operator{constReplaceZero{}, constReplaceNonzero{}}
}
