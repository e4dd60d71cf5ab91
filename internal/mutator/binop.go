package mutator

import (
	"fmt"
	"strings"

	"github.com/wasmut/wasmut/internal/wasmmod"
)

// swapOperator substitutes one no-immediate, stack-neutral opcode for
// another of identical arity and result type: the common shape for
// arithmetic, bitwise and relational operators. Both From and To must
// accept and yield the same operand types, satisfying spec.md §9's
// closure-over-stack-effects invariant.
type swapOperator struct {
	name string
	from wasmmod.Opcode
	to   wasmmod.Opcode
	desc string
}

func (o *swapOperator) Name() string { return o.name }

func (o *swapOperator) Matches(ctx Context) bool {
	return ctx.Current().Opcode == o.from
}

func (o *swapOperator) Mutate(ctx Context) []byte {
	return []byte{o.to}
}

func (o *swapOperator) Describe(ctx Context) string {
	return fmt.Sprintf("%s: replaced with %s", o.desc, opcodeMnemonic[o.to])
}

// newSwap builds the pair of swapOperators for a binary-op substitution
// table entry, registering both directions (a<->b) as independent
// operators, matching spec.md's open question resolution that every
// matching operator fires independently.
func newSwap(namePrefix string, a, b wasmmod.Opcode) []Operator {
	return []Operator{
		&swapOperator{name: namePrefix + "_" + genericMnemonic(a) + "_to_" + genericMnemonic(b), from: a, to: b, desc: opcodeMnemonic[a]},
		&swapOperator{name: namePrefix + "_" + genericMnemonic(b) + "_to_" + genericMnemonic(a), from: b, to: a, desc: opcodeMnemonic[b]},
	}
}

// genericMnemonic names an opcode after its semantic transform only,
// stripping the iNN./fNN. type prefix and the _s/_u signedness suffix,
// e.g. i32.add and i64.add both become "add", i32.lt_s and i32.lt_u both
// become "lt". spec.md §8 names operators this way
// (`binop_add_to_sub`, `relop_lt_to_le`): enabled_operators selects a
// semantic category, not one concrete type, so distinct swapOperators
// for i32/i64/f32/f64 (and signed/unsigned) variants deliberately share
// one Name() and are matched independently by their own From opcode.
func genericMnemonic(op wasmmod.Opcode) string {
	m := opcodeMnemonic[op]
	if i := strings.IndexByte(m, '.'); i >= 0 {
		m = m[i+1:]
	}
	m = strings.TrimSuffix(m, "_s")
	m = strings.TrimSuffix(m, "_u")
	return m
}

// opcodeMnemonic names every opcode this package's operators reference,
// used only to build stable, readable operator names and descriptions.
var opcodeMnemonic = map[wasmmod.Opcode]string{
	wasmmod.OpcodeI32Add: "i32.add", wasmmod.OpcodeI32Sub: "i32.sub",
	wasmmod.OpcodeI32Mul: "i32.mul", wasmmod.OpcodeI32DivS: "i32.div_s", wasmmod.OpcodeI32DivU: "i32.div_u",
	wasmmod.OpcodeI32And: "i32.and", wasmmod.OpcodeI32Or: "i32.or", wasmmod.OpcodeI32Xor: "i32.xor",
	wasmmod.OpcodeI32Shl: "i32.shl",
	wasmmod.OpcodeI32ShrS:         "i32.shr_s", wasmmod.OpcodeI32ShrU: "i32.shr_u",
	wasmmod.OpcodeI32Rotl: "i32.rotl", wasmmod.OpcodeI32Rotr: "i32.rotr",

	wasmmod.OpcodeI64Add: "i64.add", wasmmod.OpcodeI64Sub: "i64.sub",
	wasmmod.OpcodeI64Mul: "i64.mul", wasmmod.OpcodeI64DivS: "i64.div_s", wasmmod.OpcodeI64DivU: "i64.div_u",
	wasmmod.OpcodeI64And: "i64.and", wasmmod.OpcodeI64Or: "i64.or", wasmmod.OpcodeI64Xor: "i64.xor",
	wasmmod.OpcodeI64Shl: "i64.shl", wasmmod.OpcodeI64ShrS: "i64.shr_s", wasmmod.OpcodeI64ShrU: "i64.shr_u",
	wasmmod.OpcodeI64Rotl: "i64.rotl", wasmmod.OpcodeI64Rotr: "i64.rotr",

	wasmmod.OpcodeF32Add: "f32.add", wasmmod.OpcodeF32Sub: "f32.sub",
	wasmmod.OpcodeF32Mul: "f32.mul", wasmmod.OpcodeF32Div: "f32.div",
	wasmmod.OpcodeF64Add: "f64.add", wasmmod.OpcodeF64Sub: "f64.sub",
	wasmmod.OpcodeF64Mul: "f64.mul", wasmmod.OpcodeF64Div: "f64.div",

	wasmmod.OpcodeI32LtS: "i32.lt_s", wasmmod.OpcodeI32LeS: "i32.le_s",
	wasmmod.OpcodeI32GtS: "i32.gt_s", wasmmod.OpcodeI32GeS: "i32.ge_s",
	wasmmod.OpcodeI32LtU: "i32.lt_u", wasmmod.OpcodeI32LeU: "i32.le_u",
	wasmmod.OpcodeI32GtU: "i32.gt_u", wasmmod.OpcodeI32GeU: "i32.ge_u",
	wasmmod.OpcodeI32Eq: "i32.eq", wasmmod.OpcodeI32Ne: "i32.ne",

	wasmmod.OpcodeI64LtS: "i64.lt_s", wasmmod.OpcodeI64LeS: "i64.le_s",
	wasmmod.OpcodeI64GtS: "i64.gt_s", wasmmod.OpcodeI64GeS: "i64.ge_s",
	wasmmod.OpcodeI64LtU: "i64.lt_u", wasmmod.OpcodeI64LeU: "i64.le_u",
	wasmmod.OpcodeI64GtU: "i64.gt_u", wasmmod.OpcodeI64GeU: "i64.ge_u",
	wasmmod.OpcodeI64Eq: "i64.eq", wasmmod.OpcodeI64Ne: "i64.ne",

	wasmmod.OpcodeF32Lt: "f32.lt", wasmmod.OpcodeF32Le: "f32.le",
	wasmmod.OpcodeF32Gt: "f32.gt", wasmmod.OpcodeF32Ge: "f32.ge",
	wasmmod.OpcodeF32Eq: "f32.eq", wasmmod.OpcodeF32Ne: "f32.ne",

	wasmmod.OpcodeF64Lt: "f64.lt", wasmmod.OpcodeF64Le: "f64.le",
	wasmmod.OpcodeF64Gt: "f64.gt", wasmmod.OpcodeF64Ge: "f64.ge",
	wasmmod.OpcodeF64Eq: "f64.eq", wasmmod.OpcodeF64Ne: "f64.ne",
}

// binaryOperators returns every binary-op substitution operator: add<->sub,
// mul<->div, bitwise and<->or<->xor, and shift/rotate pairs, for both i32
// and i64 (float div/mul are included but and/or/xor/shift have no float
// form to pair with, so they are omitted there, matching real Wasm).
func binaryOperators() []Operator {
	var ops []Operator
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI32Add, wasmmod.OpcodeI32Sub)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI32Mul, wasmmod.OpcodeI32DivS)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI32And, wasmmod.OpcodeI32Or)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI32Or, wasmmod.OpcodeI32Xor)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI32Shl, wasmmod.OpcodeI32ShrS)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI32Rotl, wasmmod.OpcodeI32Rotr)...)

	ops = append(ops, newSwap("binop", wasmmod.OpcodeI64Add, wasmmod.OpcodeI64Sub)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI64Mul, wasmmod.OpcodeI64DivS)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI64And, wasmmod.OpcodeI64Or)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI64Or, wasmmod.OpcodeI64Xor)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI64Shl, wasmmod.OpcodeI64ShrS)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeI64Rotl, wasmmod.OpcodeI64Rotr)...)

	ops = append(ops, newSwap("binop", wasmmod.OpcodeF32Add, wasmmod.OpcodeF32Sub)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeF32Mul, wasmmod.OpcodeF32Div)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeF64Add, wasmmod.OpcodeF64Sub)...)
	ops = append(ops, newSwap("binop", wasmmod.OpcodeF64Mul, wasmmod.OpcodeF64Div)...)
	return ops
}

