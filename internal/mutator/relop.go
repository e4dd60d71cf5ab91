package mutator

import "github.com/wasmut/wasmut/internal/wasmmod"

// relationalOperators returns every relational substitution: lt<->le,
// gt<->ge, eq<->ne, for i32 (signed and unsigned), i64 (signed and
// unsigned), f32 and f64. Built from the same swapOperator shape as the
// binary-op table, since a relational substitution is just another
// no-immediate, same-stack-type opcode swap; per genericMnemonic, the
// i32/i64/f32/f64 and signed/unsigned variants all register under the
// spec's flat name (e.g. "relop_lt_to_le"), matching independently.
func relationalOperators() []Operator {
	var ops []Operator
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI32LtS, wasmmod.OpcodeI32LeS)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI32GtS, wasmmod.OpcodeI32GeS)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI32LtU, wasmmod.OpcodeI32LeU)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI32GtU, wasmmod.OpcodeI32GeU)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI32Eq, wasmmod.OpcodeI32Ne)...)

	ops = append(ops, newSwap("relop", wasmmod.OpcodeI64LtS, wasmmod.OpcodeI64LeS)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI64GtS, wasmmod.OpcodeI64GeS)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI64LtU, wasmmod.OpcodeI64LeU)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI64GtU, wasmmod.OpcodeI64GeU)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeI64Eq, wasmmod.OpcodeI64Ne)...)

	ops = append(ops, newSwap("relop", wasmmod.OpcodeF32Lt, wasmmod.OpcodeF32Le)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeF32Gt, wasmmod.OpcodeF32Ge)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeF32Eq, wasmmod.OpcodeF32Ne)...)

	ops = append(ops, newSwap("relop", wasmmod.OpcodeF64Lt, wasmmod.OpcodeF64Le)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeF64Gt, wasmmod.OpcodeF64Ge)...)
	ops = append(ops, newSwap("relop", wasmmod.OpcodeF64Eq, wasmmod.OpcodeF64Ne)...)
	return ops
}
