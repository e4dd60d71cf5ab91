// Package main implements wasmut's CLI surface (spec.md §6): one cobra
// subcommand per verb, persistent -c/-C config flags, grounded on OPA's
// own cmd package (one file per command, each self-registering in init()).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/config"
)

// RootCommand is the wasmut binary's root command; every verb's init()
// registers itself against it.
var RootCommand = &cobra.Command{
	Use:   "wasmut",
	Short: "Mutation testing for WASI modules",
	Long:  `wasmut perturbs a compiled WASI module's instructions and re-runs its embedded tests to measure how well they'd catch real regressions.`,
}

var log = logrus.StandardLogger()

type configFlags struct {
	path        string
	useSibling  bool
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "path to wasmut.toml")
	cmd.Flags().BoolVarP(&f.useSibling, "config-sibling", "C", false, "look for wasmut.toml next to the module")
}

func (f *configFlags) load(modulePath string) (config.Config, error) {
	path := config.ResolvePath(f.path, f.useSibling, modulePath)
	return config.Load(path)
}

func init() {
	logLevel := "info"
	RootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "panic|fatal|error|warn|info|debug|trace")
	cobra.OnInitialize(func() {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		log.SetLevel(lvl)
	})
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "wasmut:", err)
	os.Exit(1)
}

func main() {
	if err := RootCommand.Execute(); err != nil {
		fatal(err)
	}
}
