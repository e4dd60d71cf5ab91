package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/config"
	"github.com/wasmut/wasmut/internal/discovery"
	"github.com/wasmut/wasmut/internal/mutator"
)

type listOperatorsParams struct {
	cfg  configFlags
	json bool
}

func init() {
	p := listOperatorsParams{}
	cmd := &cobra.Command{
		Use:   "list-operators [<wasmfile>]",
		Short: "Print the operator registry with enabled/disabled annotation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			modulePath := ""
			if len(args) == 1 {
				modulePath = args[0]
			}
			return doListOperators(p, modulePath)
		},
	}
	p.cfg.register(cmd)
	cmd.Flags().BoolVar(&p.json, "json", false, "print as JSON")
	RootCommand.AddCommand(cmd)
}

type operatorRow struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func doListOperators(p listOperatorsParams, modulePath string) error {
	var cfg config.Config
	var err error
	if modulePath != "" {
		cfg, err = p.cfg.load(modulePath)
	} else {
		cfg, err = p.cfg.load("")
	}
	if err != nil {
		return err
	}

	reg := mutator.NewRegistry()
	enabled, err := compileEnabledSet(cfg)
	if err != nil {
		return err
	}

	rows := make([]operatorRow, 0, len(reg.All()))
	for _, op := range reg.All() {
		rows = append(rows, operatorRow{Name: op.Name(), Enabled: enabled(op.Name())})
	}

	if p.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	for _, r := range rows {
		state := "disabled"
		if r.Enabled {
			state = "enabled"
		}
		fmt.Printf("%-30s %s\n", r.Name, state)
	}
	return nil
}

func compileEnabledSet(cfg config.Config) (func(string) bool, error) {
	if len(cfg.Operators.EnabledOperators) == 0 {
		return func(string) bool { return true }, nil
	}
	reg := mutator.NewRegistry()
	patterns, err := discovery.CompilePatterns(cfg.Operators.EnabledOperators)
	if err != nil {
		return nil, err
	}
	allowed := map[string]bool{}
	for _, op := range reg.Filtered(patterns) {
		allowed[op.Name()] = true
	}
	return func(name string) bool { return allowed[name] }, nil
}
