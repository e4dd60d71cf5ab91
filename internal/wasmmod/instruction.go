package wasmmod

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wasmut/wasmut/internal/leb128"
)

// decodeInstructions walks body (a function's locals-stripped expression
// bytes, i.e. starting right after the local-declaration vector and ending
// with its matching OpcodeEnd) and returns every instruction in order,
// with Offset relative to codeSectionBase (the offset of body[0] within
// the code section as a whole).
//
// Recognized SIMD (0xfd-prefixed) instructions decode as OpcodeUnknown
// and recognized misc (0xfc-prefixed) ones keep OpcodeMiscPrefix: both
// are sized and skipped over, present in the result but never offered to
// mutation operators. On encountering a sub-opcode or top-level opcode it cannot
// size at all, decodeInstructions returns the instructions decoded so
// far together with a non-nil error; the caller (the module loader)
// stores both on the Code, leaving the function structurally present
// but excluded from discovery.
func decodeInstructions(body []byte, codeSectionBase uint32) ([]Instruction, error) {
	var out []Instruction
	pos := uint32(0)
	for pos < uint32(len(body)) {
		start := pos
		op := body[pos]
		pos++

		inst := Instruction{Opcode: op, Offset: codeSectionBase + start}

		switch op {
		case OpcodeUnreachable, OpcodeNop, OpcodeElse, OpcodeEnd, OpcodeReturn,
			OpcodeDrop, OpcodeSelect:
			// no immediates

		case OpcodeBlock, OpcodeLoop, OpcodeIf:
			// blocktype is an s33: the three reserved encodings (empty,
			// and each single value type) decode as small negative
			// numbers; any non-negative value instead indexes a
			// multi-value function type in TypeSection. This is the
			// opposite of the single encoded byte's own sign bit, since
			// LoadInt32 already sign-extends per the LEB128 rules.
			bt, n, err := leb128.LoadInt32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: blocktype at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			switch {
			case bt == -64: // 0x40, empty
				inst.Immediates.HasBlockType = true
				inst.Immediates.BlockTypeEmpty = true
			case bt < 0: // single value type
				if vt, ok := blockValueTypeFromS33(bt); ok {
					inst.Immediates.HasBlockType = true
					inst.Immediates.ValueType = vt
				} else {
					return out, fmt.Errorf("wasmmod: unrecognized blocktype %d at offset %d", bt, inst.Offset)
				}
			default:
				inst.Immediates.HasBlockType = true
				inst.Immediates.BlockTypeIndex = bt
			}

		case OpcodeBr, OpcodeBrIf:
			idx, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: label index at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.LabelIndex = idx

		case OpcodeBrTable:
			count, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: br_table count at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			for i := uint32(0); i < count; i++ {
				_, n, err := leb128.LoadUint32(body[pos:])
				if err != nil {
					return out, fmt.Errorf("wasmmod: br_table entry at offset %d: %w", inst.Offset, err)
				}
				pos += uint32(n)
			}
			_, n, err = leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: br_table default at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)

		case OpcodeCall:
			idx, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: call funcidx at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.FuncIndex = idx

		case OpcodeCallIndirect:
			typeIdx, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: call_indirect typeidx at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			_, n, err = leb128.LoadUint32(body[pos:]) // table index (reserved byte in MVP)
			if err != nil {
				return out, fmt.Errorf("wasmmod: call_indirect tableidx at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.TypeIndex = typeIdx

		case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee:
			idx, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: local index at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.LocalIndex = idx

		case OpcodeGlobalGet, OpcodeGlobalSet:
			idx, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: global index at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.GlobalIndex = idx

		case OpcodeI32Load, OpcodeI64Load, OpcodeF32Load, OpcodeF64Load,
			OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U,
			OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U,
			OpcodeI64Load32S, OpcodeI64Load32U,
			OpcodeI32Store, OpcodeI64Store, OpcodeF32Store, OpcodeF64Store,
			OpcodeI32Store8, OpcodeI32Store16, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32:
			_, n, err := leb128.LoadUint32(body[pos:]) // align
			if err != nil {
				return out, fmt.Errorf("wasmmod: memarg align at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			_, n, err = leb128.LoadUint32(body[pos:]) // offset
			if err != nil {
				return out, fmt.Errorf("wasmmod: memarg offset at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)

		case OpcodeMemorySize, OpcodeMemoryGrow:
			_, n, err := leb128.LoadUint32(body[pos:]) // reserved
			if err != nil {
				return out, fmt.Errorf("wasmmod: reserved byte at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)

		case OpcodeI32Const:
			v, n, err := leb128.LoadInt32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: i32.const at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.I32 = v

		case OpcodeI64Const:
			v, n, err := leb128.LoadInt64(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: i64.const at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.Immediates.I64 = v

		case OpcodeF32Const:
			if pos+4 > uint32(len(body)) {
				return out, fmt.Errorf("wasmmod: f32.const at offset %d: truncated", inst.Offset)
			}
			bits := binary.LittleEndian.Uint32(body[pos : pos+4])
			inst.Immediates.F32 = math.Float32frombits(bits)
			pos += 4

		case OpcodeF64Const:
			if pos+8 > uint32(len(body)) {
				return out, fmt.Errorf("wasmmod: f64.const at offset %d: truncated", inst.Offset)
			}
			bits := binary.LittleEndian.Uint64(body[pos : pos+8])
			inst.Immediates.F64 = math.Float64frombits(bits)
			pos += 8

		case OpcodeMiscPrefix:
			sub, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: misc sub-opcode at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			inst.SubOpcode = sub
			adv, err := skipMiscImmediates(sub, body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: misc opcode %d at offset %d: %w", sub, inst.Offset, err)
			}
			pos += adv

		case OpcodeSIMDPrefix:
			sub, n, err := leb128.LoadUint32(body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: SIMD sub-opcode at offset %d: %w", inst.Offset, err)
			}
			pos += uint32(n)
			adv, err := skipSIMDImmediates(sub, body[pos:])
			if err != nil {
				return out, fmt.Errorf("wasmmod: SIMD instruction (sub-opcode %d) at offset %d: %w", sub, inst.Offset, err)
			}
			pos += adv
			inst.Opcode = OpcodeUnknown
			inst.SubOpcode = sub

		case OpcodeI32Clz, OpcodeI32Ctz, OpcodeI32Popcnt, OpcodeI32Add, OpcodeI32Sub, OpcodeI32Mul,
			OpcodeI32DivS, OpcodeI32DivU, OpcodeI32RemS, OpcodeI32RemU, OpcodeI32And, OpcodeI32Or,
			OpcodeI32Xor, OpcodeI32Shl, OpcodeI32ShrS, OpcodeI32ShrU, OpcodeI32Rotl, OpcodeI32Rotr,
			OpcodeI64Clz, OpcodeI64Ctz, OpcodeI64Popcnt, OpcodeI64Add, OpcodeI64Sub, OpcodeI64Mul,
			OpcodeI64DivS, OpcodeI64DivU, OpcodeI64RemS, OpcodeI64RemU, OpcodeI64And, OpcodeI64Or,
			OpcodeI64Xor, OpcodeI64Shl, OpcodeI64ShrS, OpcodeI64ShrU, OpcodeI64Rotl, OpcodeI64Rotr,
			OpcodeF32Abs, OpcodeF32Neg, OpcodeF32Ceil, OpcodeF32Floor, OpcodeF32Trunc, OpcodeF32Nearest,
			OpcodeF32Sqrt, OpcodeF32Add, OpcodeF32Sub, OpcodeF32Mul, OpcodeF32Div, OpcodeF32Min,
			OpcodeF32Max, OpcodeF32Copysign,
			OpcodeF64Abs, OpcodeF64Neg, OpcodeF64Ceil, OpcodeF64Floor, OpcodeF64Trunc, OpcodeF64Nearest,
			OpcodeF64Sqrt, OpcodeF64Add, OpcodeF64Sub, OpcodeF64Mul, OpcodeF64Div, OpcodeF64Min,
			OpcodeF64Max, OpcodeF64Copysign,
			OpcodeI32Eqz, OpcodeI32Eq, OpcodeI32Ne, OpcodeI32LtS, OpcodeI32LtU, OpcodeI32GtS, OpcodeI32GtU,
			OpcodeI32LeS, OpcodeI32LeU, OpcodeI32GeS, OpcodeI32GeU,
			OpcodeI64Eqz, OpcodeI64Eq, OpcodeI64Ne, OpcodeI64LtS, OpcodeI64LtU, OpcodeI64GtS, OpcodeI64GtU,
			OpcodeI64LeS, OpcodeI64LeU, OpcodeI64GeS, OpcodeI64GeU,
			OpcodeF32Eq, OpcodeF32Ne, OpcodeF32Lt, OpcodeF32Gt, OpcodeF32Le, OpcodeF32Ge,
			OpcodeF64Eq, OpcodeF64Ne, OpcodeF64Lt, OpcodeF64Gt, OpcodeF64Le, OpcodeF64Ge,
			OpcodeI32WrapI64, OpcodeI32TruncF32S, OpcodeI32TruncF32U, OpcodeI32TruncF64S, OpcodeI32TruncF64U,
			OpcodeI64ExtendI32S, OpcodeI64ExtendI32U, OpcodeI64TruncF32S, OpcodeI64TruncF32U,
			OpcodeI64TruncF64S, OpcodeI64TruncF64U,
			OpcodeF32ConvertI32S, OpcodeF32ConvertI32U, OpcodeF32ConvertI64S, OpcodeF32ConvertI64U,
			OpcodeF32DemoteF64, OpcodeF64ConvertI32S, OpcodeF64ConvertI32U, OpcodeF64ConvertI64S,
			OpcodeF64ConvertI64U, OpcodeF64PromoteF32,
			OpcodeI32ReinterpretF32, OpcodeI64ReinterpretF64, OpcodeF32ReinterpretI32, OpcodeF64ReinterpretI64,
			OpcodeI32Extend8S, OpcodeI32Extend16S, OpcodeI64Extend8S, OpcodeI64Extend16S, OpcodeI64Extend32S:
			// no immediates

		default:
			return out, fmt.Errorf("wasmmod: unrecognized opcode 0x%02x at offset %d", op, inst.Offset)
		}

		inst.Length = pos - start
		inst.Raw = body[start:pos]
		out = append(out, inst)
	}
	return out, nil
}

// blockValueTypeFromS33 maps a decoded single-value-type blocktype back to
// its ValueType byte.
func blockValueTypeFromS33(bt int32) (ValueType, bool) {
	switch bt {
	case -1:
		return ValueTypeI32, true
	case -2:
		return ValueTypeI64, true
	case -3:
		return ValueTypeF32, true
	case -4:
		return ValueTypeF64, true
	case -16:
		return ValueTypeFuncref, true
	case -17:
		return ValueTypeExternref, true
	default:
		return 0, false
	}
}

// skipMiscImmediates advances past the immediates of a 0xfc-prefixed
// instruction whose sub-opcode we recognize, returning the number of
// bytes consumed from buf (buf starts right after the sub-opcode).
func skipMiscImmediates(sub uint32, buf []byte) (uint32, error) {
	switch sub {
	case MiscI32TruncSatF32S, MiscI32TruncSatF32U, MiscI32TruncSatF64S, MiscI32TruncSatF64U,
		MiscI64TruncSatF32S, MiscI64TruncSatF32U, MiscI64TruncSatF64S, MiscI64TruncSatF64U:
		return 0, nil
	case MiscMemoryInit:
		_, n1, err := leb128.LoadUint32(buf)
		if err != nil {
			return 0, err
		}
		_, n2, err := leb128.LoadUint32(buf[n1:])
		if err != nil {
			return 0, err
		}
		return uint32(n1 + n2), nil
	case MiscDataDrop, MiscElemDrop, MiscTableInit:
		_, n, err := leb128.LoadUint32(buf)
		if err != nil {
			return 0, err
		}
		if sub == MiscTableInit {
			_, n2, err := leb128.LoadUint32(buf[n:])
			if err != nil {
				return 0, err
			}
			return uint32(n + n2), nil
		}
		return uint32(n), nil
	case MiscMemoryCopy, MiscTableCopy:
		return 2, nil // two reserved bytes
	case MiscMemoryFill:
		return 1, nil // one reserved byte
	default:
		return 0, fmt.Errorf("unrecognized misc sub-opcode %d", sub)
	}
}

// skipSIMDImmediates advances past the immediates of a 0xfd-prefixed
// instruction whose sub-opcode we recognize, returning the number of
// bytes consumed from buf (buf starts right after the sub-opcode). Only
// the v128 memory instructions, v128.const and i8x16.shuffle are
// recognized; every other SIMD sub-opcode is reported as an error so the
// caller can abort that function's decode rather than silently
// mis-sizing an instruction whose immediate shape (if any) isn't
// accounted for here.
func skipSIMDImmediates(sub uint32, buf []byte) (uint32, error) {
	switch sub {
	case SIMDV128Load, SIMDV128Load8x8S, SIMDV128Load8x8U, SIMDV128Load16x4S, SIMDV128Load16x4U,
		SIMDV128Load32x2S, SIMDV128Load32x2U, SIMDV128Load8Splat, SIMDV128Load16Splat,
		SIMDV128Load32Splat, SIMDV128Load64Splat, SIMDV128Store:
		_, n1, err := leb128.LoadUint32(buf) // align
		if err != nil {
			return 0, err
		}
		_, n2, err := leb128.LoadUint32(buf[n1:]) // offset
		if err != nil {
			return 0, err
		}
		return uint32(n1 + n2), nil
	case SIMDV128Const, SIMDI8x16Shuffle:
		if len(buf) < 16 {
			return 0, fmt.Errorf("truncated 16-byte SIMD immediate")
		}
		return 16, nil
	default:
		return 0, fmt.Errorf("unrecognized SIMD sub-opcode %d", sub)
	}
}
