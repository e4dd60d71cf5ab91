package discovery

import (
	"fmt"
	"regexp"

	"github.com/wasmut/wasmut/internal/errs"
)

// CompilePatterns compiles each configured pattern with Go's regexp
// package, whose RE2 engine guarantees linear-time matching regardless of
// input, closing off the regex-DoS concern spec.md §9 flags without
// needing a third-party engine (see DESIGN.md). A malformed pattern is a
// fatal *errs.ConfigError at load time, never a runtime surprise.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &errs.ConfigError{Path: "<pattern>", Cause: fmt.Errorf("invalid pattern %q: %w", p, err)}
		}
		out = append(out, re)
	}
	return out, nil
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
