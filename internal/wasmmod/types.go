// Package wasmmod decodes the subset of the WebAssembly binary format that
// mutation discovery and the meta-mutant builder need: the type, import,
// function, code, export and custom (name, DWARF) sections, plus an
// in-order, offset-annotated instruction listing for every function body.
//
// Offsets are relative to the first byte of the code section's content
// (the first byte of its vector-count LEB128), matching the
// addressing convention DWARF producers use for Wasm (e.g. wasm-ld,
// Binaryen): this is also the join key with the DWARF resolver in the
// sibling dwarf package.
package wasmmod

import "fmt"

// ValueType is a WebAssembly value type, encoded exactly as it appears in
// the binary format.
type ValueType = byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the textual Wasm type name, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return "unknown"
	}
}

func isIntegerType(t ValueType) bool { return t == ValueTypeI32 || t == ValueTypeI64 }

// FunctionType is a function signature: zero or more parameter types
// mapping to zero or more result types.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// IsVoid reports whether the type yields no result.
func (t *FunctionType) IsVoid() bool { return len(t.Results) == 0 }

// IsScalar reports whether the type yields exactly one numeric (non
// reference) result.
func (t *FunctionType) IsScalar() bool {
	return len(t.Results) == 1 && t.Results[0] != ValueTypeFuncref && t.Results[0] != ValueTypeExternref
}

// Import describes one entry of the import section. Kind follows the
// ExternKind* constants.
type Import struct {
	Module, Name string
	Kind         byte
	TypeIndex    uint32 // meaningful only when Kind == ExternKindFunc
}

// Export describes one entry of the export section.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

const (
	ExternKindFunc   byte = 0x00
	ExternKindTable  byte = 0x01
	ExternKindMemory byte = 0x02
	ExternKindGlobal byte = 0x03
)

// Instruction is a single decoded Wasm instruction with its byte offset
// within the code section. Offset and Length together define the byte
// span the meta-mutant builder must replace.
type Instruction struct {
	Opcode     Opcode
	SubOpcode  uint32 // valid only for 0xfc-prefixed (Opcode == OpcodeMiscPrefix) and 0xfd-prefixed (Opcode == OpcodeUnknown) instructions
	Offset     uint32 // offset of Opcode's byte, within the code section
	Length     uint32 // total encoded length, including Opcode
	Raw        []byte // verbatim encoded bytes, length == Length
	Immediates Immediates
}

// Immediates holds whichever fields are meaningful for a given opcode.
// Unused fields are left at their zero value.
type Immediates struct {
	I32         int32
	I64         int64
	F32         float32
	F64         float64
	LocalIndex  uint32
	GlobalIndex uint32
	FuncIndex   uint32
	TypeIndex   uint32
	LabelIndex  uint32
	ValueType   ValueType // blocktype when it denotes a single value type
	HasBlockType bool
	// BlockTypeEmpty is set when block/loop/if carries the empty
	// blocktype (0x40): no parameters, no results.
	BlockTypeEmpty bool
	// BlockTypeIndex is set (HasBlockType true, BlockTypeEmpty false)
	// when the blocktype indexes a multi-value function type in
	// TypeSection.
	BlockTypeIndex int32
}

// Code is one function body: its locally-declared variable types (the
// Wasm local index space continues a function's parameters) followed by
// its decoded instruction stream.
type Code struct {
	LocalTypes []ValueType
	// BodyOffset is the offset, within the code section, of this
	// function's first instruction byte.
	BodyOffset   uint32
	Instructions []Instruction
	// DecodeError is set when this function's body could not be fully
	// understood (e.g. it contains an unrecognized SIMD sub-opcode). The function is
	// still retained structurally but is never offered to mutation
	// operators; spec.md's "degrade gracefully" failure mode.
	DecodeError error
}

// Function is the combined view of a module-indexed function: imported
// functions occupy the low indices, module-defined ones (each paired with
// a Code entry) occupy the rest, mirroring the WebAssembly function index
// space.
type Function struct {
	Index     uint32
	TypeIndex uint32
	Type      *FunctionType
	Name      string // from the name section, else the import name (imports) or export name, or ""
	Imported  bool
	Code      *Code // nil when Imported
}

// Module is the decoded, mutation-relevant subset of a Wasm binary.
type Module struct {
	TypeSection     []FunctionType
	ImportSection   []Import
	FunctionSection []uint32 // TypeSection index, one per module-defined function
	CodeSection     []Code   // index-correlated with FunctionSection
	ExportSection   []Export

	// Functions is the combined import+module-defined function index
	// space, the view mutation discovery and reporting actually use.
	Functions []Function

	// CustomSections holds every custom section's raw payload, keyed by
	// name, including "name" and any ".debug_*" DWARF sections.
	CustomSections map[string][]byte

	// Other sections are retained verbatim for re-encoding by the
	// meta-mutant builder; this package never interprets their contents,
	// per spec.md's Non-goals (no global/memory/table/type mutation).
	TableSection   []byte
	MemorySection  []byte
	GlobalSection  []byte
	ElementSection []byte
	DataSection    []byte
	StartSection   []byte
	// DataCountSection is present in modules compiled with bulk-memory
	// operations (common from wasi-sdk); it must precede the code section
	// when re-serialized.
	DataCountSection []byte

	// rawSections is not filled in by DecodeModule. The other known
	// sections are kept in the raw-content fields above; custom sections
	// are kept in CustomSections and are not re-emitted by the
	// meta-mutant builder.
	rawSections []rawSection
}

type rawSection struct {
	id      byte
	name    string // only for id == sectionIDCustom
	content []byte
}

// ImportFuncCount returns the number of imported functions, i.e. the
// offset at which module-defined function indices begin.
func (m *Module) ImportFuncCount() uint32 {
	var n uint32
	for _, imp := range m.ImportSection {
		if imp.Kind == ExternKindFunc {
			n++
		}
	}
	return n
}

// FunctionAt returns the Function at the given module-wide index.
func (m *Module) FunctionAt(index uint32) (*Function, error) {
	if int(index) >= len(m.Functions) {
		return nil, fmt.Errorf("wasmmod: function index %d out of range (%d functions)", index, len(m.Functions))
	}
	return &m.Functions[index], nil
}
