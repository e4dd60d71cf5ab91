package main

import (
	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/pipeline"
)

func init() {
	cfg := configFlags{}
	cmd := &cobra.Command{
		Use:   "list-functions <wasmfile>",
		Short: "Print the module's function set with allow/deny annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return doListFunctions(cfg, args[0])
		},
	}
	cfg.register(cmd)
	RootCommand.AddCommand(cmd)
}

func doListFunctions(cfgFlags configFlags, wasmfile string) error {
	c, err := cfgFlags.load(wasmfile)
	if err != nil {
		return err
	}
	loaded, err := pipeline.Load(wasmfile, c)
	if err != nil {
		return err
	}
	names, err := pipeline.ListFunctions(loaded, c)
	if err != nil {
		return err
	}
	printAnnotated(names)
	return nil
}
