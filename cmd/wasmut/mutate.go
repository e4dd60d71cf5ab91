package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wasmut/wasmut/internal/pipeline"
	"github.com/wasmut/wasmut/internal/report"
)

type mutateParams struct {
	cfg        configFlags
	outDir     string
	reportKind string
	workers    int
}

func init() {
	p := mutateParams{}

	cmd := &cobra.Command{
		Use:   "mutate <wasmfile>",
		Short: "Run the full mutation-testing pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return doMutate(p, args[0])
		},
	}
	p.cfg.register(cmd)
	cmd.Flags().StringVarP(&p.outDir, "out", "o", ".", "report output directory")
	cmd.Flags().StringVarP(&p.reportKind, "report", "r", "console", "console|html")
	cmd.Flags().IntVarP(&p.workers, "workers", "t", 0, "worker pool size (0 keeps engine.workers from the config)")
	RootCommand.AddCommand(cmd)
}

func doMutate(p mutateParams, wasmfile string) error {
	cfg, err := p.cfg.load(wasmfile)
	if err != nil {
		return err
	}
	if p.workers > 0 {
		cfg.Engine.Workers = p.workers
	}

	loaded, err := pipeline.Load(wasmfile, cfg)
	if err != nil {
		return err
	}
	log.WithField("candidates", len(loaded.Candidates)).Info("discovery complete")

	bar := progressbar.Default(int64(len(loaded.Candidates)), "mutating")
	defer bar.Finish()

	out, err := pipeline.Mutate(loaded, cfg, log)
	if err != nil {
		return err
	}
	bar.Set(len(loaded.Candidates))

	switch p.reportKind {
	case "html":
		path := p.outDir + "/wasmut-report.html"
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := report.HTML(f, out.Summary, "", cfg.Report.PathRewrite); err != nil {
			return err
		}
		log.WithField("path", path).Info("wrote html report")
	default:
		report.Console(os.Stdout, out.Summary, out.Results, cfg.Report.PathRewrite)
	}
	return nil
}
