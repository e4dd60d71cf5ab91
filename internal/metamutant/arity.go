package metamutant

import "github.com/wasmut/wasmut/internal/wasmmod"

// arity is the (params, results) stack signature of an instruction this
// package knows how to wrap in a conditional block. Every swap/erase
// operator in internal/mutator pairs opcodes whose original and
// replacement share identical arity (spec.md §9's closure invariant), so
// looking up the *original* opcode's arity is sufficient to build the
// `if` blocktype that wraps both branches.
type arity struct {
	params, results []wasmmod.ValueType
}

var i32 = wasmmod.ValueTypeI32
var i64 = wasmmod.ValueTypeI64
var f32 = wasmmod.ValueTypeF32
var f64 = wasmmod.ValueTypeF64

func binArity(t wasmmod.ValueType) arity {
	return arity{params: []wasmmod.ValueType{t, t}, results: []wasmmod.ValueType{t}}
}

func relArity(t wasmmod.ValueType) arity {
	return arity{params: []wasmmod.ValueType{t, t}, results: []wasmmod.ValueType{i32}}
}

func unArity(t wasmmod.ValueType) arity {
	return arity{params: []wasmmod.ValueType{t}, results: []wasmmod.ValueType{t}}
}

// instructionArity maps every opcode the binop/relop/unop operator
// groups match or produce to its stack signature.
var instructionArity = map[wasmmod.Opcode]arity{
	wasmmod.OpcodeI32Add: binArity(i32), wasmmod.OpcodeI32Sub: binArity(i32),
	wasmmod.OpcodeI32Mul: binArity(i32), wasmmod.OpcodeI32DivS: binArity(i32), wasmmod.OpcodeI32DivU: binArity(i32),
	wasmmod.OpcodeI32And: binArity(i32), wasmmod.OpcodeI32Or: binArity(i32), wasmmod.OpcodeI32Xor: binArity(i32),
	wasmmod.OpcodeI32Shl: binArity(i32), wasmmod.OpcodeI32ShrS: binArity(i32), wasmmod.OpcodeI32ShrU: binArity(i32),
	wasmmod.OpcodeI32Rotl: binArity(i32), wasmmod.OpcodeI32Rotr: binArity(i32),

	wasmmod.OpcodeI64Add: binArity(i64), wasmmod.OpcodeI64Sub: binArity(i64),
	wasmmod.OpcodeI64Mul: binArity(i64), wasmmod.OpcodeI64DivS: binArity(i64), wasmmod.OpcodeI64DivU: binArity(i64),
	wasmmod.OpcodeI64And: binArity(i64), wasmmod.OpcodeI64Or: binArity(i64), wasmmod.OpcodeI64Xor: binArity(i64),
	wasmmod.OpcodeI64Shl: binArity(i64), wasmmod.OpcodeI64ShrS: binArity(i64), wasmmod.OpcodeI64ShrU: binArity(i64),
	wasmmod.OpcodeI64Rotl: binArity(i64), wasmmod.OpcodeI64Rotr: binArity(i64),

	wasmmod.OpcodeF32Add: binArity(f32), wasmmod.OpcodeF32Sub: binArity(f32),
	wasmmod.OpcodeF32Mul: binArity(f32), wasmmod.OpcodeF32Div: binArity(f32),
	wasmmod.OpcodeF64Add: binArity(f64), wasmmod.OpcodeF64Sub: binArity(f64),
	wasmmod.OpcodeF64Mul: binArity(f64), wasmmod.OpcodeF64Div: binArity(f64),

	wasmmod.OpcodeI32LtS: relArity(i32), wasmmod.OpcodeI32LeS: relArity(i32),
	wasmmod.OpcodeI32GtS: relArity(i32), wasmmod.OpcodeI32GeS: relArity(i32),
	wasmmod.OpcodeI32LtU: relArity(i32), wasmmod.OpcodeI32LeU: relArity(i32),
	wasmmod.OpcodeI32GtU: relArity(i32), wasmmod.OpcodeI32GeU: relArity(i32),
	wasmmod.OpcodeI32Eq: relArity(i32), wasmmod.OpcodeI32Ne: relArity(i32),

	wasmmod.OpcodeI64LtS: relArity(i64), wasmmod.OpcodeI64LeS: relArity(i64),
	wasmmod.OpcodeI64GtS: relArity(i64), wasmmod.OpcodeI64GeS: relArity(i64),
	wasmmod.OpcodeI64LtU: relArity(i64), wasmmod.OpcodeI64LeU: relArity(i64),
	wasmmod.OpcodeI64GtU: relArity(i64), wasmmod.OpcodeI64GeU: relArity(i64),
	wasmmod.OpcodeI64Eq: relArity(i64), wasmmod.OpcodeI64Ne: relArity(i64),

	wasmmod.OpcodeF32Lt: relArity(f32), wasmmod.OpcodeF32Le: relArity(f32),
	wasmmod.OpcodeF32Gt: relArity(f32), wasmmod.OpcodeF32Ge: relArity(f32),
	wasmmod.OpcodeF32Eq: relArity(f32), wasmmod.OpcodeF32Ne: relArity(f32),

	wasmmod.OpcodeF64Lt: relArity(f64), wasmmod.OpcodeF64Le: relArity(f64),
	wasmmod.OpcodeF64Gt: relArity(f64), wasmmod.OpcodeF64Ge: relArity(f64),
	wasmmod.OpcodeF64Eq: relArity(f64), wasmmod.OpcodeF64Ne: relArity(f64),

	wasmmod.OpcodeI32Eqz: unArity(i32),
	wasmmod.OpcodeI32Clz: unArity(i32), wasmmod.OpcodeI32Ctz: unArity(i32), wasmmod.OpcodeI32Popcnt: unArity(i32),
	wasmmod.OpcodeI64Clz: unArity(i64), wasmmod.OpcodeI64Ctz: unArity(i64), wasmmod.OpcodeI64Popcnt: unArity(i64),

	// const_replace_{zero,nonzero} operate on 0-arity producers; these
	// fit the single-valtype blocktype form directly and never consult
	// this table (see blockTypeFor in builder.go).
}
