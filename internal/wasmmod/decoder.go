package wasmmod

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wasmut/wasmut/internal/errs"
	"github.com/wasmut/wasmut/internal/leb128"
)

const (
	magic   = 0x6d736100 // "\0asm"
	version = uint32(1)
)

const (
	sectionIDCustom   = 0
	sectionIDType     = 1
	sectionIDImport   = 2
	sectionIDFunction = 3
	sectionIDTable    = 4
	sectionIDMemory   = 5
	sectionIDGlobal   = 6
	sectionIDExport   = 7
	sectionIDStart    = 8
	sectionIDElement  = 9
	sectionIDCode     = 10
	sectionIDData     = 11
	sectionIDDataCount = 12
)

// DecodeModule parses the WebAssembly Binary Format, retaining every
// function body's instructions with their code-section-relative byte
// offsets (the join key the DWARF resolver and the meta-mutant builder
// both rely on).
//
// A malformed binary is reported as *errs.InvalidModule; functions whose
// bodies this package cannot fully decode (an opcode or SIMD/misc
// sub-opcode it cannot size) are kept structurally
// but flagged via Code.DecodeError and excluded from discovery.
func DecodeModule(raw []byte) (*Module, error) {
	r := bytes.NewReader(raw)

	var gotMagic, gotVersion uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil || gotMagic != magic {
		return nil, &errs.InvalidModule{Reason: "missing or corrupt Wasm magic number"}
	}
	if err := binary.Read(r, binary.LittleEndian, &gotVersion); err != nil || gotVersion != version {
		return nil, &errs.InvalidModule{Reason: fmt.Sprintf("unsupported binary version %d", gotVersion)}
	}

	m := &Module{CustomSections: map[string][]byte{}}

	body := raw[8:]
	pos := 0
	for pos < len(body) {
		id := body[pos]
		pos++
		size, n, err := leb128.LoadUint32(body[pos:])
		if err != nil {
			return nil, &errs.InvalidModule{Reason: fmt.Sprintf("section size: %v", err)}
		}
		pos += int(n)
		if pos+int(size) > len(body) {
			return nil, &errs.InvalidModule{Reason: "section extends past end of module"}
		}
		content := body[pos : pos+int(size)]
		pos += int(size)

		switch id {
		case sectionIDCustom:
			name, rest, err := decodeName(content)
			if err != nil {
				return nil, &errs.InvalidModule{Reason: fmt.Sprintf("custom section name: %v", err)}
			}
			m.CustomSections[name] = rest
		case sectionIDType:
			if m.TypeSection, err = decodeTypeSection(content); err != nil {
				return nil, &errs.InvalidModule{Reason: fmt.Sprintf("type section: %v", err)}
			}
		case sectionIDImport:
			if m.ImportSection, err = decodeImportSection(content); err != nil {
				return nil, &errs.InvalidModule{Reason: fmt.Sprintf("import section: %v", err)}
			}
		case sectionIDFunction:
			if m.FunctionSection, err = decodeFunctionSection(content); err != nil {
				return nil, &errs.InvalidModule{Reason: fmt.Sprintf("function section: %v", err)}
			}
		case sectionIDExport:
			if m.ExportSection, err = decodeExportSection(content); err != nil {
				return nil, &errs.InvalidModule{Reason: fmt.Sprintf("export section: %v", err)}
			}
		case sectionIDCode:
			if m.CodeSection, err = decodeCodeSection(content); err != nil {
				return nil, &errs.InvalidModule{Reason: fmt.Sprintf("code section: %v", err)}
			}
		case sectionIDTable:
			m.TableSection = content
		case sectionIDMemory:
			m.MemorySection = content
		case sectionIDGlobal:
			m.GlobalSection = content
		case sectionIDElement:
			m.ElementSection = content
		case sectionIDData:
			m.DataSection = content
		case sectionIDStart:
			m.StartSection = content
		case sectionIDDataCount:
			m.DataCountSection = content
		default:
			return nil, &errs.InvalidModule{Reason: fmt.Sprintf("unknown section id %d", id)}
		}
	}

	if len(m.FunctionSection) != len(m.CodeSection) {
		return nil, &errs.InvalidModule{Reason: fmt.Sprintf(
			"function section (%d) and code section (%d) length mismatch", len(m.FunctionSection), len(m.CodeSection))}
	}

	if err := m.buildFunctionIndexSpace(); err != nil {
		return nil, err
	}

	if !m.hasStartExport() {
		return nil, &errs.InvalidModule{Reason: `module does not export "_start"`}
	}

	return m, nil
}

// buildFunctionIndexSpace merges imported and module-defined functions
// into the single index space WebAssembly defines, attaches names from
// the "name" custom section where present, and resolves each function's
// FunctionType.
func (m *Module) buildFunctionIndexSpace() error {
	names := decodeFunctionNames(m.CustomSections["name"])
	exportNames := map[uint32]string{}
	for _, exp := range m.ExportSection {
		if _, seen := exportNames[exp.Index]; exp.Kind == ExternKindFunc && !seen {
			exportNames[exp.Index] = exp.Name
		}
	}

	var funcs []Function
	var idx uint32
	for _, imp := range m.ImportSection {
		if imp.Kind != ExternKindFunc {
			continue
		}
		if int(imp.TypeIndex) >= len(m.TypeSection) {
			return &errs.InvalidModule{Reason: fmt.Sprintf("import %q.%q: type index %d out of range", imp.Module, imp.Name, imp.TypeIndex)}
		}
		name := imp.Name
		if n, ok := names[idx]; ok {
			name = n
		}
		funcs = append(funcs, Function{
			Index:     idx,
			TypeIndex: imp.TypeIndex,
			Type:      &m.TypeSection[imp.TypeIndex],
			Name:      name,
			Imported:  true,
		})
		idx++
	}

	for i, typeIdx := range m.FunctionSection {
		if int(typeIdx) >= len(m.TypeSection) {
			return &errs.InvalidModule{Reason: fmt.Sprintf("function %d: type index %d out of range", idx, typeIdx)}
		}
		name := ""
		if n, ok := names[idx]; ok {
			name = n
		} else if n, ok := exportNames[idx]; ok {
			name = n
		}
		funcs = append(funcs, Function{
			Index:     idx,
			TypeIndex: typeIdx,
			Type:      &m.TypeSection[typeIdx],
			Name:      name,
			Code:      &m.CodeSection[i],
		})
		idx++
	}

	m.Functions = funcs
	return nil
}

func (m *Module) hasStartExport() bool {
	for _, exp := range m.ExportSection {
		if exp.Kind == ExternKindFunc && exp.Name == "_start" {
			return true
		}
	}
	return false
}

func decodeName(buf []byte) (string, []byte, error) {
	l, n, err := leb128.LoadUint32(buf)
	if err != nil {
		return "", nil, err
	}
	buf = buf[n:]
	if uint32(len(buf)) < l {
		return "", nil, fmt.Errorf("truncated name")
	}
	return string(buf[:l]), buf[l:], nil
}

func decodeValueType(buf []byte) (ValueType, []byte, error) {
	if len(buf) == 0 {
		return 0, nil, fmt.Errorf("truncated value type")
	}
	return buf[0], buf[1:], nil
}

func decodeTypeSection(buf []byte) ([]FunctionType, error) {
	count, n, err := leb128.LoadUint32(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]
	out := make([]FunctionType, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(buf) == 0 || buf[0] != 0x60 {
			return nil, fmt.Errorf("type %d: expected functype tag 0x60", i)
		}
		buf = buf[1:]

		pc, n, err := leb128.LoadUint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		params := make([]ValueType, pc)
		for p := range params {
			var vt ValueType
			if vt, buf, err = decodeValueType(buf); err != nil {
				return nil, err
			}
			params[p] = vt
		}

		rc, n, err := leb128.LoadUint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		results := make([]ValueType, rc)
		for r := range results {
			var vt ValueType
			if vt, buf, err = decodeValueType(buf); err != nil {
				return nil, err
			}
			results[r] = vt
		}

		out = append(out, FunctionType{Params: params, Results: results})
	}
	return out, nil
}

func decodeImportSection(buf []byte) ([]Import, error) {
	count, n, err := leb128.LoadUint32(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]
	out := make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		var mod, name string
		if mod, buf, err = decodeName(buf); err != nil {
			return nil, err
		}
		if name, buf, err = decodeName(buf); err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return nil, fmt.Errorf("import %d: truncated", i)
		}
		kind := buf[0]
		buf = buf[1:]

		imp := Import{Module: mod, Name: name, Kind: kind}
		switch kind {
		case ExternKindFunc:
			var typeIdx uint32
			typeIdx, n, err = leb128.LoadUint32(buf)
			if err != nil {
				return nil, err
			}
			buf = buf[n:]
			imp.TypeIndex = typeIdx
		case ExternKindTable:
			buf, err = skipTableType(buf)
		case ExternKindMemory:
			buf, err = skipLimits(buf)
		case ExternKindGlobal:
			buf, err = skipGlobalType(buf)
		default:
			return nil, fmt.Errorf("import %d: unknown kind %d", i, kind)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, nil
}

func skipTableType(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("truncated table type")
	}
	return skipLimits(buf[1:]) // elemtype byte, then limits
}

func skipGlobalType(buf []byte) ([]byte, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("truncated global type")
	}
	return buf[2:], nil // valtype + mutability byte
}

func skipLimits(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("truncated limits")
	}
	hasMax := buf[0] == 1
	buf = buf[1:]
	_, n, err := leb128.LoadUint32(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]
	if hasMax {
		_, n, err := leb128.LoadUint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
	}
	return buf, nil
}

func decodeFunctionSection(buf []byte) ([]uint32, error) {
	count, n, err := leb128.LoadUint32(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]
	out := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		var typeIdx uint32
		typeIdx, n, err = leb128.LoadUint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		out = append(out, typeIdx)
	}
	return out, nil
}

func decodeExportSection(buf []byte) ([]Export, error) {
	count, n, err := leb128.LoadUint32(buf)
	if err != nil {
		return nil, err
	}
	buf = buf[n:]
	out := make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		var name string
		if name, buf, err = decodeName(buf); err != nil {
			return nil, err
		}
		if len(buf) < 1 {
			return nil, fmt.Errorf("export %d: truncated", i)
		}
		kind := buf[0]
		buf = buf[1:]
		idx, n, err := leb128.LoadUint32(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]
		out = append(out, Export{Name: name, Kind: kind, Index: idx})
	}
	return out, nil
}

// decodeCodeSection decodes each function body, computing Offset for
// every instruction relative to the start of the code section's content
// (i.e. counting from the first byte of this section's own vector-count
// LEB128).
func decodeCodeSection(content []byte) ([]Code, error) {
	count, n, err := leb128.LoadUint32(content)
	if err != nil {
		return nil, err
	}
	// pos is the byte offset into content, the coordinate system
	// Instruction.Offset and the DWARF resolver both use.
	pos := int(n)

	out := make([]Code, 0, count)
	for i := uint32(0); i < count; i++ {
		bodySize, n, err := leb128.LoadUint32(content[pos:])
		if err != nil {
			return nil, err
		}
		pos += int(n)
		entryEnd := pos + int(bodySize)
		if entryEnd > len(content) {
			return nil, fmt.Errorf("code entry %d: truncated body", i)
		}
		entry := content[pos:entryEnd]

		localCount, n, err := leb128.LoadUint32(entry)
		if err != nil {
			return nil, err
		}
		entryPos := int(n)
		var locals []ValueType
		for l := uint32(0); l < localCount; l++ {
			runLen, n, err := leb128.LoadUint32(entry[entryPos:])
			if err != nil {
				return nil, err
			}
			entryPos += int(n)
			if entryPos >= len(entry) {
				return nil, fmt.Errorf("code entry %d: truncated local type", i)
			}
			vt := entry[entryPos]
			entryPos++
			for r := uint32(0); r < runLen; r++ {
				locals = append(locals, vt)
			}
		}

		bodyOffset := uint32(pos + entryPos)
		instrs, decodeErr := decodeInstructions(entry[entryPos:], bodyOffset)
		out = append(out, Code{
			LocalTypes:   locals,
			BodyOffset:   bodyOffset,
			Instructions: instrs,
			DecodeError:  decodeErr,
		})

		pos = entryEnd
	}
	return out, nil
}
