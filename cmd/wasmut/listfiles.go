package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/pipeline"
)

func init() {
	cfg := configFlags{}
	cmd := &cobra.Command{
		Use:   "list-files <wasmfile>",
		Short: "Print the DWARF file set with allow/deny annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return doListFiles(cfg, args[0])
		},
	}
	cfg.register(cmd)
	RootCommand.AddCommand(cmd)
}

func doListFiles(cfgFlags configFlags, wasmfile string) error {
	c, err := cfgFlags.load(wasmfile)
	if err != nil {
		return err
	}
	loaded, err := pipeline.Load(wasmfile, c)
	if err != nil {
		return err
	}
	names, err := pipeline.ListFiles(loaded, c)
	if err != nil {
		return err
	}
	printAnnotated(names)
	return nil
}

func printAnnotated(names []pipeline.AnnotatedName) {
	for _, n := range names {
		if n.Allowed {
			color.Green("allow  %s", n.Name)
		} else {
			color.Red("deny   %s", n.Name)
		}
	}
}
