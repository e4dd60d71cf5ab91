// Package config loads wasmut's TOML configuration, per spec.md §6 and
// SPEC_FULL.md's ambient-stack section: viper layered over
// pelletier/go-toml/v2, giving the file/flag/env precedence spec.md
// requires for free.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/wasmut/wasmut/internal/errs"
)

// MapDir is one `[host, guest]` WASI preopen pair.
type MapDir struct {
	Host  string `mapstructure:"host"`
	Guest string `mapstructure:"guest"`
}

// PathRewrite is the `[pattern, replacement]` report path transform.
type PathRewrite struct {
	Pattern     string `mapstructure:"pattern"`
	Replacement string `mapstructure:"replacement"`
}

// Config is the fully resolved, defaulted configuration, per spec.md
// §6's schema table. Field tags match the TOML schema's snake_case keys
// exactly, since mapstructure's default case-insensitive match does not
// also strip underscores.
type Config struct {
	Engine struct {
		TimeoutMultiplier      float64  `mapstructure:"timeout_multiplier"`
		MapDirs                []MapDir `mapstructure:"map_dirs"`
		CoverageBasedExecution bool     `mapstructure:"coverage_based_execution"`
		MetaMutant             bool     `mapstructure:"meta_mutant"`
		Workers                int      `mapstructure:"workers"`
	} `mapstructure:"engine"`
	Filter struct {
		AllowedFunctions []string `mapstructure:"allowed_functions"`
		AllowedFiles     []string `mapstructure:"allowed_files"`
	} `mapstructure:"filter"`
	Operators struct {
		EnabledOperators []string `mapstructure:"enabled_operators"`
	} `mapstructure:"operators"`
	Report struct {
		PathRewrite PathRewrite `mapstructure:"path_rewrite"`
	} `mapstructure:"report"`
}

// Default returns spec.md §6's default configuration.
func Default() Config {
	var c Config
	c.Engine.TimeoutMultiplier = 2.0
	c.Engine.CoverageBasedExecution = true
	c.Engine.MetaMutant = true
	c.Engine.Workers = 0 // resolved to runtime.NumCPU() by the engine
	return c
}

// ResolvePath implements spec.md §6's precedence: explicit path, then
// "sibling of module" (-C), then ./wasmut.toml, then "" (use defaults,
// no file).
func ResolvePath(explicit string, useSibling bool, modulePath string) string {
	if explicit != "" {
		return explicit
	}
	if useSibling && modulePath != "" {
		candidate := filepath.Join(filepath.Dir(modulePath), "wasmut.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat("wasmut.toml"); err == nil {
		return "wasmut.toml"
	}
	return ""
}

// Load reads and decodes the TOML file at path (empty path yields
// defaults), validating every configured regex up front so a
// pathological or malformed pattern is rejected at load time rather
// than surfacing mid-run, per spec.md §9's regex-DoS note.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &errs.ConfigError{Path: path, Cause: err}
	}

	// go-toml/v2 is the strict pass: it rejects anything structurally
	// invalid before viper's more permissive loader ever sees the file.
	var probe map[string]any
	if err := toml.Unmarshal(raw, &probe); err != nil {
		return Config{}, &errs.ConfigError{Path: path, Cause: err}
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return Config{}, &errs.ConfigError{Path: path, Cause: err}
	}
	applyDefaults(v, cfg)

	if err := v.Unmarshal(&cfg, viper.DecodeHook(pairHook)); err != nil {
		return Config{}, &errs.ConfigError{Path: path, Cause: err}
	}

	if err := validate(cfg); err != nil {
		return Config{}, &errs.ConfigError{Path: path, Cause: err}
	}

	return cfg, nil
}

// pairHook decodes the two-element array forms of a map_dirs entry
// ([host, guest]) and of path_rewrite ([pattern, replacement]).
func pairHook(_, to reflect.Type, data any) (any, error) {
	pair, ok := data.([]any)
	keys := map[reflect.Type][2]string{reflect.TypeOf(MapDir{}): {"host", "guest"}, reflect.TypeOf(PathRewrite{}): {"pattern", "replacement"}}[to]
	if !ok || keys[0] == "" {
		return data, nil
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("expected a two-element array, got %d elements", len(pair))
	}
	return map[string]any{keys[0]: pair[0], keys[1]: pair[1]}, nil
}

func applyDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("engine.timeout_multiplier", cfg.Engine.TimeoutMultiplier)
	v.SetDefault("engine.coverage_based_execution", cfg.Engine.CoverageBasedExecution)
	v.SetDefault("engine.meta_mutant", cfg.Engine.MetaMutant)
	v.SetDefault("engine.workers", cfg.Engine.Workers)
}

func validate(cfg Config) error {
	all := append([]string{}, cfg.Filter.AllowedFunctions...)
	all = append(all, cfg.Filter.AllowedFiles...)
	all = append(all, cfg.Operators.EnabledOperators...)
	if cfg.Report.PathRewrite.Pattern != "" {
		all = append(all, cfg.Report.PathRewrite.Pattern)
	}
	for _, p := range all {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	if cfg.Engine.TimeoutMultiplier <= 0 {
		return fmt.Errorf("engine.timeout_multiplier must be > 0, got %v", cfg.Engine.TimeoutMultiplier)
	}
	return nil
}
