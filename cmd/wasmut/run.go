package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/pipeline"
)

func init() {
	cfg := configFlags{}
	cmd := &cobra.Command{
		Use:   "run <wasmfile>",
		Short: "Run the module's baseline once, unmodified",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return doRun(cfg, args[0])
		},
	}
	cfg.register(cmd)
	RootCommand.AddCommand(cmd)
}

func doRun(cfgFlags configFlags, wasmfile string) error {
	c, err := cfgFlags.load(wasmfile)
	if err != nil {
		return err
	}
	loaded, err := pipeline.Load(wasmfile, c)
	if err != nil {
		return err
	}
	out, err := pipeline.Run(loaded, c, log)
	if err != nil {
		return err
	}
	os.Exit(out.Raw.ExitCode)
	return nil
}
