package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/errs"
	"github.com/wasmut/wasmut/internal/leb128"
	"github.com/wasmut/wasmut/internal/wasmmod"
)

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

// writeAddModule writes a two-function module: add(i32,i32)->i32 exported
// as "add", plus a trivial _start exported as "_start", to a temp file, so
// Load can be exercised without a real wasmtime-compiled WASI binary on
// disk.
func writeAddModule(t *testing.T) string {
	t.Helper()
	typeSec := buildSection(1, vec(2, func(i int) []byte {
		if i == 0 {
			out := []byte{0x60}
			out = append(out, leb128.EncodeUint32(2)...)
			out = append(out, wasmmod.ValueTypeI32, wasmmod.ValueTypeI32)
			out = append(out, leb128.EncodeUint32(1)...)
			out = append(out, wasmmod.ValueTypeI32)
			return out
		}
		return []byte{0x60, 0x00, 0x00} // () -> ()
	}))
	funcSec := buildSection(3, vec(2, func(i int) []byte { return leb128.EncodeUint32(uint32(i)) }))

	addBody := []byte{wasmmod.OpcodeLocalGet, 0x00, wasmmod.OpcodeLocalGet, 0x01, wasmmod.OpcodeI32Add, wasmmod.OpcodeEnd}
	startBody := []byte{wasmmod.OpcodeEnd}
	encodeEntry := func(body []byte) []byte {
		entry := leb128.EncodeUint32(0)
		entry = append(entry, body...)
		out := leb128.EncodeUint32(uint32(len(entry)))
		return append(out, entry...)
	}
	codeSec := buildSection(10, vec(2, func(i int) []byte {
		if i == 0 {
			return encodeEntry(addBody)
		}
		return encodeEntry(startBody)
	}))

	exportSec := buildSection(7, vec(2, func(i int) []byte {
		name := []string{"add", "_start"}[i]
		out := leb128.EncodeUint32(uint32(len(name)))
		out = append(out, name...)
		out = append(out, wasmmod.ExternKindFunc)
		out = append(out, leb128.EncodeUint32(uint32(i))...)
		return out
	}))

	var raw []byte
	raw = append(raw, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	raw = append(raw, typeSec...)
	raw = append(raw, funcSec...)
	raw = append(raw, codeSec...)
	raw = append(raw, exportSec...)

	f, err := os.CreateTemp(t.TempDir(), "add-*.wasm")
	require.NoError(t, err)
	_, err = f.Write(raw)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestLoad_discoversCandidatesForMinimalModule(t *testing.T) {
	path := writeAddModule(t)
	loaded, err := Load(path, config.Default())
	require.NoError(t, err)
	require.NotEmpty(t, loaded.Candidates)
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load("/no/such/file.wasm", config.Default())
	require.Error(t, err)
	var ioErr *errs.IoError
	require.ErrorAs(t, err, &ioErr)
}

func TestLoad_missingStartExport(t *testing.T) {
	raw := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	f, err := os.CreateTemp(t.TempDir(), "empty-*.wasm")
	require.NoError(t, err)
	_, err = f.Write(raw)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Load(f.Name(), config.Default())
	require.Error(t, err)
	var invalid *errs.InvalidModule
	require.ErrorAs(t, err, &invalid)
}

func TestListFunctions_annotatesAgainstFilter(t *testing.T) {
	path := writeAddModule(t)
	cfg := config.Default()
	cfg.Filter.AllowedFunctions = []string{"^add$"}

	loaded, err := Load(path, cfg)
	require.NoError(t, err)

	names, err := ListFunctions(loaded, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, n := range names {
		if n.Name == "add" {
			require.True(t, n.Allowed)
		} else {
			require.False(t, n.Allowed)
		}
	}
}

func TestListFiles_emptyWithoutDwarf(t *testing.T) {
	path := writeAddModule(t)
	loaded, err := Load(path, config.Default())
	require.NoError(t, err)

	files, err := ListFiles(loaded, config.Default())
	require.NoError(t, err)
	require.Empty(t, files)
}
