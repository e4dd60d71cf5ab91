package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "new-config [PATH]",
		Short: "Write a commented template config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "wasmut.toml"
			if len(args) == 1 {
				path = args[0]
			}
			return os.WriteFile(path, []byte(config.Template), 0o644)
		},
	}
	RootCommand.AddCommand(cmd)
}
