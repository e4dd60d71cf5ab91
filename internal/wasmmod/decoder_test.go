package wasmmod

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/errs"
	"github.com/wasmut/wasmut/internal/leb128"
)

// buildSection encodes a section header (id + LEB128 length) followed by
// content, the way a real Wasm encoder would.
func buildSection(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, leb128.EncodeUint32(uint32(len(content)))...)
	return append(out, content...)
}

func vec(n int, body func(i int) []byte) []byte {
	out := leb128.EncodeUint32(uint32(n))
	for i := 0; i < n; i++ {
		out = append(out, body(i)...)
	}
	return out
}

// buildMinimalModule assembles a one-function module: func add(i32,i32)->i32
// { local.get 0; local.get 1; i32.add; end }, exported as both "add" and
// "_start" so DecodeModule's _start check passes.
func buildMinimalModule(t *testing.T) []byte {
	t.Helper()

	typeSec := buildSection(sectionIDType, vec(1, func(i int) []byte {
		out := []byte{0x60}
		out = append(out, leb128.EncodeUint32(2)...)
		out = append(out, ValueTypeI32, ValueTypeI32)
		out = append(out, leb128.EncodeUint32(1)...)
		out = append(out, ValueTypeI32)
		return out
	}))

	funcSec := buildSection(sectionIDFunction, vec(1, func(i int) []byte {
		return leb128.EncodeUint32(0)
	}))

	body := []byte{
		OpcodeLocalGet, 0x00,
		OpcodeLocalGet, 0x01,
		OpcodeI32Add,
		OpcodeEnd,
	}
	entry := leb128.EncodeUint32(0) // zero local-declaration runs
	entry = append(entry, body...)
	entryWithSize := leb128.EncodeUint32(uint32(len(entry)))
	entryWithSize = append(entryWithSize, entry...)
	codeSec := buildSection(sectionIDCode, vec(1, func(i int) []byte { return entryWithSize }))

	exportSec := buildSection(sectionIDExport, vec(2, func(i int) []byte {
		names := []string{"add", "_start"}
		name := names[i]
		out := leb128.EncodeUint32(uint32(len(name)))
		out = append(out, name...)
		out = append(out, ExternKindFunc)
		out = append(out, leb128.EncodeUint32(0)...)
		return out
	}))

	var raw []byte
	raw = append(raw, 0x00, 0x61, 0x73, 0x6d) // magic
	raw = append(raw, 0x01, 0x00, 0x00, 0x00) // version
	raw = append(raw, typeSec...)
	raw = append(raw, funcSec...)
	raw = append(raw, codeSec...)
	raw = append(raw, exportSec...)
	return raw
}

func TestDecodeModule_minimal(t *testing.T) {
	raw := buildMinimalModule(t)
	m, err := DecodeModule(raw)
	require.NoError(t, err)
	require.Len(t, m.Functions, 1)

	fn := m.Functions[0]
	require.Equal(t, "add", fn.Name)
	require.NotNil(t, fn.Code)
	require.Nil(t, fn.Code.DecodeError)
	require.Len(t, fn.Code.Instructions, 4)
	require.Equal(t, OpcodeLocalGet, fn.Code.Instructions[0].Opcode)
	require.Equal(t, uint32(0), fn.Code.Instructions[0].Immediates.LocalIndex)
	require.Equal(t, OpcodeI32Add, fn.Code.Instructions[2].Opcode)

	for i := 1; i < len(fn.Code.Instructions); i++ {
		require.Greater(t, fn.Code.Instructions[i].Offset, fn.Code.Instructions[i-1].Offset)
	}
}

func TestDecodeModule_badMagic(t *testing.T) {
	_, err := DecodeModule([]byte{0, 0, 0, 0, 1, 0, 0, 0})
	require.Error(t, err)
	var invalid *errs.InvalidModule
	require.ErrorAs(t, err, &invalid)
}

func TestDecodeModule_missingStart(t *testing.T) {
	raw := buildMinimalModule(t)
	// Drop the trailing export section (contains both "add" and "_start")
	// and rebuild with only "add" exported.
	typeSec := buildSection(sectionIDType, vec(1, func(i int) []byte {
		out := []byte{0x60}
		out = append(out, leb128.EncodeUint32(0)...)
		out = append(out, leb128.EncodeUint32(0)...)
		return out
	}))
	funcSec := buildSection(sectionIDFunction, vec(1, func(i int) []byte { return leb128.EncodeUint32(0) }))
	entry := leb128.EncodeUint32(0)
	entry = append(entry, OpcodeEnd)
	entryWithSize := leb128.EncodeUint32(uint32(len(entry)))
	entryWithSize = append(entryWithSize, entry...)
	codeSec := buildSection(sectionIDCode, vec(1, func(i int) []byte { return entryWithSize }))
	exportSec := buildSection(sectionIDExport, vec(1, func(i int) []byte {
		name := "add"
		out := leb128.EncodeUint32(uint32(len(name)))
		out = append(out, name...)
		out = append(out, ExternKindFunc)
		out = append(out, leb128.EncodeUint32(0)...)
		return out
	}))

	var noStart []byte
	noStart = append(noStart, raw[:8]...)
	noStart = append(noStart, typeSec...)
	noStart = append(noStart, funcSec...)
	noStart = append(noStart, codeSec...)
	noStart = append(noStart, exportSec...)

	_, err := DecodeModule(noStart)
	require.Error(t, err)
}
