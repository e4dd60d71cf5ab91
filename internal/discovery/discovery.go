// Package discovery walks a loaded module's functions and instructions,
// in the single-threaded pass spec.md §4.4 and §5 require, matching every
// enabled operator against every filter-admitted instruction to produce
// the module's ordered mutation candidate set.
package discovery

import (
	"regexp"

	"github.com/wasmut/wasmut/internal/mutator"
	"github.com/wasmut/wasmut/internal/wasmmod"
	"github.com/wasmut/wasmut/internal/wasmmod/dwarf"
)

// Candidate is one specific application of an operator at one specific
// instruction offset, per spec.md §3. ID is dense, assigned in discovery
// order, and never renumbered after discovery.
type Candidate struct {
	ID               int
	OperatorName     string
	FunctionIndex    uint32
	FunctionName     string
	InstructionIndex int
	ByteOffset       uint32
	Replacement      []byte
	Description      string
	Location         dwarf.SourceLocation
	HasLocation      bool
}

// Filters holds the compiled allow-patterns spec.md §6's `filter` and
// `operators` config sections describe. A nil slice means "everything
// allowed" in every case.
type Filters struct {
	AllowedFunctions []*regexp.Regexp
	AllowedFiles     []*regexp.Regexp
	EnabledOperators []*regexp.Regexp
}

// Discover walks every module-defined function in index order and every
// instruction within it in order, querying each enabled operator (in
// registry enumeration order) against every filter-admitted instruction.
// The returned slice's order is exactly spec.md §4.4's discovery order,
// which defines candidate identity.
func Discover(m *wasmmod.Module, resolver *dwarf.Resolver, reg *mutator.Registry, f Filters) []Candidate {
	ops := reg.Filtered(f.EnabledOperators)

	var out []Candidate
	nextID := 0
	for _, fn := range m.Functions {
		if fn.Imported || fn.Code == nil || fn.Code.DecodeError != nil {
			continue
		}
		if !anyMatch(f.AllowedFunctions, fn.Name) {
			continue
		}

		for i, inst := range fn.Code.Instructions {
			locs := resolver.ResolveAll(uint64(inst.Offset))
			var loc dwarf.SourceLocation
			hasLoc := len(locs) > 0
			if hasLoc {
				loc = locs[0]
			}
			if !instructionFilePasses(f.AllowedFiles, locs) {
				continue
			}

			ctx := mutator.Context{Module: m, Function: &fn, Instructions: fn.Code.Instructions, Index: i}
			for _, op := range ops {
				if !op.Matches(ctx) {
					continue
				}
				out = append(out, Candidate{
					ID:               nextID,
					OperatorName:     op.Name(),
					FunctionIndex:    fn.Index,
					FunctionName:     fn.Name,
					InstructionIndex: i,
					ByteOffset:       inst.Offset,
					Replacement:      op.Mutate(ctx),
					Description:      op.Describe(ctx),
					Location:         loc,
					HasLocation:      hasLoc,
				})
				nextID++
			}
		}
	}
	return out
}

// instructionFilePasses implements spec.md §4.4's file filter: empty
// patterns allow everything; otherwise any one of the offset's resolved
// locations (there may be several when the instruction is inlined) must
// match, per §9's "any match = allowed" policy for filtering.
func instructionFilePasses(patterns []*regexp.Regexp, locs []dwarf.SourceLocation) bool {
	if len(patterns) == 0 {
		return true
	}
	if len(locs) == 0 {
		return false
	}
	for _, l := range locs {
		if anyMatch(patterns, l.File) {
			return true
		}
	}
	return false
}
