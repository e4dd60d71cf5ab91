package mutator

import (
	"fmt"

	"github.com/wasmut/wasmut/internal/wasmmod"
)

// eraseOperator deletes a unary instruction outright, leaving its operand
// on the stack unchanged. Valid only for unary ops whose result type
// equals their operand type (i32.eqz, clz/ctz/popcnt): the stack shape
// after erasure is identical to before, satisfying spec.md §9's closure
// invariant even though the value, not just the type, changes.
type eraseOperator struct {
	name   string
	opcode wasmmod.Opcode
	desc   string
}

func (o *eraseOperator) Name() string { return o.name }

func (o *eraseOperator) Matches(ctx Context) bool {
	return ctx.Current().Opcode == o.opcode
}

func (o *eraseOperator) Mutate(ctx Context) []byte { return nil }

func (o *eraseOperator) Describe(ctx Context) string {
	return fmt.Sprintf("%s: erased", o.desc)
}

func newErase(opcode wasmmod.Opcode, desc string) Operator {
	return &eraseOperator{name: "unop_erase_" + opcodeMnemonic[opcode], opcode: opcode, desc: desc}
}

// unaryOperators returns the unary-op erasure group. i32.eqz qualifies
// because it maps i32->i32 (the boolean result shares its operand's
// type); i64.eqz does not (i64->i32) and is deliberately excluded, since
// erasing it would leave an i64 where an i32 is expected downstream,
// violating the stack-type closure spec.md §9 requires of every operator.
func unaryOperators() []Operator {
	return []Operator{
		newErase(wasmmod.OpcodeI32Eqz, "i32.eqz"),
		newErase(wasmmod.OpcodeI32Clz, "i32.clz"),
		newErase(wasmmod.OpcodeI32Ctz, "i32.ctz"),
		newErase(wasmmod.OpcodeI32Popcnt, "i32.popcnt"),
		newErase(wasmmod.OpcodeI64Clz, "i64.clz"),
		newErase(wasmmod.OpcodeI64Ctz, "i64.ctz"),
		newErase(wasmmod.OpcodeI64Popcnt, "i64.popcnt"),
	}
}

func init() {
	opcodeMnemonic[wasmmod.OpcodeI32Eqz] = "i32.eqz"
	opcodeMnemonic[wasmmod.OpcodeI32Clz] = "i32.clz"
	opcodeMnemonic[wasmmod.OpcodeI32Ctz] = "i32.ctz"
	opcodeMnemonic[wasmmod.OpcodeI32Popcnt] = "i32.popcnt"
	opcodeMnemonic[wasmmod.OpcodeI64Clz] = "i64.clz"
	opcodeMnemonic[wasmmod.OpcodeI64Ctz] = "i64.ctz"
	opcodeMnemonic[wasmmod.OpcodeI64Popcnt] = "i64.popcnt"
}
