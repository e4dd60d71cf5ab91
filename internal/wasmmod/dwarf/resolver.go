// Package dwarf resolves Wasm code-section byte offsets to source
// locations using the module's embedded DWARF debug sections. It wraps
// the standard library's debug/dwarf package (see DESIGN.md: no
// third-party DWARF library exists anywhere in the retrieved example
// pack) with the subprogram-range and inline-chain walk used by
// wazero-adjacent profilers to map a Wasm instruction address back to
// file/line/column/function.
package dwarf

import (
	"errors"
	"io"
	"sort"
	"sync"

	stddwarf "debug/dwarf"
)

// SourceLocation is one resolved frame: a compiled function attributed
// to one file/line/column. ResolveAll returns one per level of inlining,
// innermost first.
type SourceLocation struct {
	File     string
	Line     int
	Column   int
	Function string
}

// sourceRange is the [Low, High) Wasm-offset range of one DW_TAG_subprogram,
// together with its direct DW_TAG_inlined_subroutine children (if any), in
// declaration order. ResolveAll keeps only the children whose low/high
// range contains the queried offset (children without a low pc are kept).
type sourceRange struct {
	Low, High uint64
	Entry     *stddwarf.Entry
	CU        *stddwarf.Entry
	Inlines   []*stddwarf.Entry
}

// Resolver maps code-section byte offsets to source locations. A zero-value
// Resolver (or one built from a module without debug sections) answers
// every query with (SourceLocation{}, false), per spec.md §4.2: absence of
// DWARF is valid, not an error.
type Resolver struct {
	data   *stddwarf.Data
	ranges []sourceRange

	mu        sync.Mutex
	lineCache map[*stddwarf.Entry][]lineEntry
}

type lineEntry struct {
	pos     stddwarf.LineReaderPos
	address uint64
}

// Sections is the subset of a wasmmod.Module's custom sections this
// package needs; defined locally to avoid importing wasmmod and creating
// a cycle (wasmmod never needs to know about DWARF).
type Sections struct {
	Info, Line, Str, Abbrev, Ranges []byte
}

// NewResolver builds a Resolver from a module's DWARF custom sections.
// A Resolver with no usable debug info is returned (not an error) when
// the required sections are absent, matching spec.md's "MissingDebugInfo
// is a warning, not fatal" policy; callers that need to distinguish the
// two cases check HasDebugInfo.
func NewResolver(sec Sections) (*Resolver, error) {
	if len(sec.Info) == 0 || len(sec.Abbrev) == 0 {
		return &Resolver{}, nil
	}
	data, err := stddwarf.New(sec.Abbrev, nil, nil, sec.Info, sec.Line, nil, sec.Ranges, sec.Str)
	if err != nil {
		return nil, err
	}
	r := &Resolver{data: data, lineCache: map[*stddwarf.Entry][]lineEntry{}}
	if err := r.indexSubprograms(); err != nil {
		return nil, err
	}
	return r, nil
}

// HasDebugInfo reports whether this Resolver was built from a module
// carrying usable DWARF sections.
func (r *Resolver) HasDebugInfo() bool { return r != nil && r.data != nil }

func (r *Resolver) indexSubprograms() error {
	reader := r.data.Reader()
	for {
		entry, err := reader.Next()
		if err != nil {
			return err
		}
		if entry == nil {
			break
		}
		if entry.Tag != stddwarf.TagCompileUnit {
			reader.SkipChildren()
			continue
		}
		if err := r.indexCompileUnit(reader, entry); err != nil {
			return err
		}
	}
	sort.Slice(r.ranges, func(i, j int) bool { return r.ranges[i].Low < r.ranges[j].Low })
	return nil
}

func (r *Resolver) indexCompileUnit(reader *stddwarf.Reader, cu *stddwarf.Entry) error {
	for {
		entry, err := reader.Next()
		if err != nil {
			return err
		}
		if entry == nil || entry.Tag == 0 {
			return nil
		}
		if entry.Tag == stddwarf.TagSubprogram {
			low, high, ok := pcRange(entry)
			if ok {
				sr := sourceRange{Low: low, High: high, Entry: entry, CU: cu}
				sr.Inlines = collectInlines(reader, low, high)
				r.ranges = append(r.ranges, sr)
				continue
			}
		}
		reader.SkipChildren()
	}
}

// collectInlines walks a subprogram's children collecting any
// DW_TAG_inlined_subroutine entries before returning the reader to its
// sibling. Order is outermost-declared first.
func collectInlines(reader *stddwarf.Reader, low, high uint64) []*stddwarf.Entry {
	var out []*stddwarf.Entry
	for {
		entry, err := reader.Next()
		if err != nil || entry == nil || entry.Tag == 0 {
			return out
		}
		if entry.Tag == stddwarf.TagInlinedSubroutine {
			out = append(out, entry)
		}
		reader.SkipChildren()
	}
}

func pcRange(entry *stddwarf.Entry) (low, high uint64, ok bool) {
	lowVal, ok := entry.Val(stddwarf.AttrLowpc).(uint64)
	if !ok {
		return 0, 0, false
	}
	switch h := entry.Val(stddwarf.AttrHighpc).(type) {
	case uint64:
		if h > lowVal {
			return lowVal, h, true
		}
		return lowVal, lowVal + h, true
	case int64:
		return lowVal, lowVal + uint64(h), true
	default:
		return lowVal, lowVal + 1, true
	}
}

func (r *Resolver) rangeFor(offset uint64) *sourceRange {
	i := sort.Search(len(r.ranges), func(i int) bool { return r.ranges[i].High > offset })
	if i == len(r.ranges) || r.ranges[i].Low > offset {
		return nil
	}
	return &r.ranges[i]
}

func (r *Resolver) linesFor(sr *sourceRange) ([]lineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.lineCache[sr.CU]; ok {
		return cached, nil
	}
	lr, err := r.data.LineReader(sr.CU)
	if err != nil || lr == nil {
		return nil, err
	}
	var lines []lineEntry
	var le stddwarf.LineEntry
	for {
		pos := lr.Tell()
		if err := lr.Next(&le); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		lines = append(lines, lineEntry{pos: pos, address: le.Address})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].address < lines[j].address })
	r.lineCache[sr.CU] = lines
	return lines, nil
}

func (r *Resolver) lineAt(sr *sourceRange, offset uint64) (stddwarf.LineEntry, bool) {
	lines, err := r.linesFor(sr)
	if err != nil || len(lines) == 0 {
		return stddwarf.LineEntry{}, false
	}
	i := sort.Search(len(lines), func(i int) bool { return lines[i].address >= offset })
	if i == len(lines) || lines[i].address != offset {
		if i == 0 {
			return stddwarf.LineEntry{}, false
		}
		i--
	}
	lr, err := r.data.LineReader(sr.CU)
	if err != nil || lr == nil {
		return stddwarf.LineEntry{}, false
	}
	var le stddwarf.LineEntry
	if err := lr.Seek(lines[i].pos); err != nil {
		return stddwarf.LineEntry{}, false
	}
	if err := lr.Next(&le); err != nil {
		return stddwarf.LineEntry{}, false
	}
	return le, true
}

func subprogramName(entry *stddwarf.Entry) string {
	if name, ok := entry.Val(stddwarf.AttrName).(string); ok {
		return name
	}
	return "?"
}

// Resolve returns the first location ResolveAll reports for offset: the
// line-table row covering it, attributed to the enclosing subprogram.
// Used for reporting, per spec.md §9's recommended policy.
func (r *Resolver) Resolve(offset uint64) (SourceLocation, bool) {
	all := r.ResolveAll(offset)
	if len(all) == 0 {
		return SourceLocation{}, false
	}
	return all[0], true
}

// ResolveAll returns the line-table location for offset first, followed
// by the call site of each direct inlined-subroutine child of the
// enclosing subprogram that covers offset (last-declared first).
// Used for filtering, where any-match-allows per spec.md §9.
func (r *Resolver) ResolveAll(offset uint64) []SourceLocation {
	if !r.HasDebugInfo() {
		return nil
	}
	sr := r.rangeFor(offset)
	if sr == nil {
		return nil
	}
	le, ok := r.lineAt(sr, offset)
	if !ok {
		return nil
	}

	file := "unknown"
	if le.File != nil {
		file = le.File.Name
	}
	locs := []SourceLocation{{
		File:     file,
		Line:     le.Line,
		Column:   le.Column,
		Function: subprogramName(sr.Entry),
	}}

	for i := len(sr.Inlines) - 1; i >= 0; i-- {
		inl := sr.Inlines[i]
		if low, high, ok := pcRange(inl); ok && (offset < low || offset >= high) {
			continue
		}
		callFile, _ := inl.Val(stddwarf.AttrCallFile).(int64)
		callLine, _ := inl.Val(stddwarf.AttrCallLine).(int64)
		callCol, _ := inl.Val(stddwarf.AttrCallColumn).(int64)
		name := subprogramName(inl)
		fname := "unknown"
		if files := lineReaderFiles(r, sr.CU); callFile >= 0 && int(callFile) < len(files) && files[callFile] != nil {
			fname = files[callFile].Name
		}
		locs = append(locs, SourceLocation{File: fname, Line: int(callLine), Column: int(callCol), Function: name})
	}
	return locs
}

func lineReaderFiles(r *Resolver, cu *stddwarf.Entry) []*stddwarf.LineFile {
	lr, err := r.data.LineReader(cu)
	if err != nil || lr == nil {
		return nil
	}
	return lr.Files()
}
