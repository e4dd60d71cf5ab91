package report

import (
	"regexp"

	"github.com/wasmut/wasmut/internal/config"
)

// rewriter applies cfg.report.path_rewrite to a file path at render
// time only, per spec.md §6's explicit testable scenario: filtering and
// discovery always see the raw DWARF path, only the rendered report is
// transformed. config.Load validates the pattern compiles, so a compile
// error here (or an empty pattern, the common no-op case) just means
// "don't rewrite".
type rewriter struct {
	pattern *regexp.Regexp
	replace string
}

func newRewriter(rw config.PathRewrite) rewriter {
	if rw.Pattern == "" {
		return rewriter{}
	}
	re, err := regexp.Compile(rw.Pattern)
	if err != nil {
		return rewriter{}
	}
	return rewriter{pattern: re, replace: rw.Replacement}
}

func (r rewriter) apply(file string) string {
	if r.pattern == nil {
		return file
	}
	return r.pattern.ReplaceAllString(file, r.replace)
}
