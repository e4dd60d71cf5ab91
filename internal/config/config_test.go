package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmut/wasmut/internal/errs"
)

func TestLoad_emptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_overridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmut.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[engine]
timeout_multiplier = 3.5
coverage_based_execution = false

[filter]
allowed_functions = ["^add$"]

[operators]
enabled_operators = ["binop_.*"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3.5, cfg.Engine.TimeoutMultiplier)
	require.False(t, cfg.Engine.CoverageBasedExecution)
	require.True(t, cfg.Engine.MetaMutant) // untouched, keeps default
	require.Equal(t, []string{"^add$"}, cfg.Filter.AllowedFunctions)
	require.Equal(t, []string{"binop_.*"}, cfg.Operators.EnabledOperators)
}

func TestLoad_invalidRegexRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmut.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[filter]
allowed_functions = ["("]
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	var cerr *errs.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestLoad_malformedTomlRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wasmut.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestResolvePath_precedence(t *testing.T) {
	dir := t.TempDir()
	modulePath := filepath.Join(dir, "mod.wasm")
	sibling := filepath.Join(dir, "wasmut.toml")
	require.NoError(t, os.WriteFile(sibling, []byte(Template), 0o644))

	require.Equal(t, "/explicit.toml", ResolvePath("/explicit.toml", true, modulePath))
	require.Equal(t, sibling, ResolvePath("", true, modulePath))
	require.Equal(t, "", ResolvePath("", false, "/no/such/module.wasm"))
}
