// Package mutator implements the registry of mutation operators: pattern
// matchers over a single decoded Wasm instruction (with minimal
// surrounding context) paired with a byte-level rewrite. Grounded on the
// teacher's style of small, independently testable rewrite passes
// (tetratelabs/wazero's internal/wazeroir, one function per IR-level
// transform) and on the single-instruction-in/replacement-out shape of
// other_examples' dce.go pass.
package mutator

import (
	"regexp"

	"github.com/wasmut/wasmut/internal/wasmmod"
)

// Context is the minimal surrounding state an operator needs: the
// instruction list of the function currently being walked, the index of
// the instruction under consideration, and the owning module (needed by
// call-removal to resolve a callee's signature).
type Context struct {
	Module       *wasmmod.Module
	Function     *wasmmod.Function
	Instructions []wasmmod.Instruction
	Index        int
}

// Current returns the instruction under consideration.
func (c Context) Current() wasmmod.Instruction { return c.Instructions[c.Index] }

// Previous returns the instruction immediately preceding Current, if any.
func (c Context) Previous() (wasmmod.Instruction, bool) {
	if c.Index == 0 {
		return wasmmod.Instruction{}, false
	}
	return c.Instructions[c.Index-1], true
}

// Operator is a single mutation rule: a predicate on an instruction
// (optionally consulting Context) and a rewrite producing a replacement
// instruction-byte sequence. Operators are pure, deterministic and
// independent, per spec.md §3.
type Operator interface {
	// Name is the operator's stable registry identifier.
	Name() string
	// Matches reports whether this operator applies at ctx.Current().
	Matches(ctx Context) bool
	// Mutate returns the replacement instruction sequence's raw bytes.
	// Only called when Matches(ctx) is true.
	Mutate(ctx Context) []byte
	// Describe renders a human-readable description of the mutation this
	// operator would apply at ctx.Current(), for reports.
	Describe(ctx Context) string
}

// Registry holds every operator this package defines, in a fixed
// enumeration order. That order is part of spec.md §4.4's discovery
// ordering (function_index asc, instruction_index asc, operator
// enumeration order asc) and therefore part of candidate id stability:
// new operators must be appended, never inserted.
type Registry struct {
	operators []Operator
}

// NewRegistry returns the full, unfiltered operator registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.operators = append(r.operators, binaryOperators()...)
	r.operators = append(r.operators, relationalOperators()...)
	r.operators = append(r.operators, unaryOperators()...)
	r.operators = append(r.operators, constantOperators()...)
	r.operators = append(r.operators, callOperators()...)
	return r
}

// All returns every registered operator, in enumeration order.
func (r *Registry) All() []Operator { return r.operators }

// Filtered returns the operators whose Name() matches at least one of the
// compiled allow patterns. A nil or empty slice of patterns means
// "everything allowed", per spec.md §6's `operators.enabled_operators`
// default.
func (r *Registry) Filtered(allow []*regexp.Regexp) []Operator {
	if len(allow) == 0 {
		return r.operators
	}
	var out []Operator
	for _, op := range r.operators {
		for _, p := range allow {
			if p.MatchString(op.Name()) {
				out = append(out, op)
				break
			}
		}
	}
	return out
}
