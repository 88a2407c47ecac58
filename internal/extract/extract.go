// Package extract implements the per-language symbol/reference extractor
// contract: a pure function from source bytes to a ParseResult, with
// language dispatch by file extension only (no adapter ever inspects
// another adapter's output).
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SymbolKind enumerates the node kinds an extractor may report for a
// symbol definition.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindStruct    SymbolKind = "struct"
	KindEnum      SymbolKind = "enum"
	KindInterface SymbolKind = "interface"
	KindTrait     SymbolKind = "trait"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindStatic    SymbolKind = "static"
	KindVariable  SymbolKind = "variable"
	KindModule    SymbolKind = "module"
	KindImpl      SymbolKind = "impl"
)

// ReferenceKind enumerates the relation a reference expresses.
type ReferenceKind string

const (
	RefCall       ReferenceKind = "call"
	RefImport     ReferenceKind = "import"
	RefInherits   ReferenceKind = "inherits"
	RefImplements ReferenceKind = "implements"
	RefUsesType   ReferenceKind = "uses_type"
)

// Symbol is a definition captured in a source file.
// Lines are 1-based; Signature is the first line of the construct, trimmed.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	LineStart  int
	LineEnd    int
	Signature  string
	Docstring  string
}

// Reference is a use-site captured in a source file. FromSymbol is set by
// the extractor's own post-processing step (not by the indexer): the
// tightest enclosing symbol among {function, method, class, struct, impl}
// by line-range containment, smallest span wins. It is empty when the
// reference occurs outside any such symbol (e.g. top-level import).
type Reference struct {
	FromSymbol string
	ToName     string
	Kind       ReferenceKind
	Line       int
}

// ParseResult is the output of extracting one source file.
type ParseResult struct {
	Symbols    []Symbol
	References []Reference
}

// Adapter extracts symbols and references from one source file. path is
// used for diagnostics only; adapters must not perform I/O.
type Adapter interface {
	Extract(path string, content []byte) (ParseResult, error)
}

// Registry dispatches a file path to the Adapter registered for its
// language, detected purely by extension.
type Registry struct {
	byExt map[string]Adapter
}

// NewRegistry builds a registry with adapters for every language this
// module supports out of the box.
func NewRegistry() *Registry {
	r := &Registry{byExt: map[string]Adapter{}}
	goAdapter := &goExtractor{}
	pyAdapter := &pythonExtractor{}
	jsAdapter := &jsExtractor{typescript: false}
	tsAdapter := &jsExtractor{typescript: true}
	rsAdapter := &rustExtractor{}

	r.byExt[".go"] = goAdapter
	r.byExt[".py"] = pyAdapter
	r.byExt[".js"] = jsAdapter
	r.byExt[".jsx"] = jsAdapter
	r.byExt[".ts"] = tsAdapter
	r.byExt[".tsx"] = tsAdapter
	r.byExt[".rs"] = rsAdapter
	return r
}

// ForPath returns the adapter registered for path's extension, or
// (nil, false) if the language is unsupported.
func (r *Registry) ForPath(path string) (Adapter, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	a, ok := r.byExt[ext]
	return a, ok
}

// Extract dispatches path to its adapter and runs the shared from_symbol
// post-processing pass before returning.
func (r *Registry) Extract(path string, content []byte) (ParseResult, error) {
	a, ok := r.ForPath(path)
	if !ok {
		return ParseResult{}, fmt.Errorf("extract: unsupported language for %s", path)
	}
	res, err := a.Extract(path, content)
	if err != nil {
		return ParseResult{}, fmt.Errorf("extract: %s: %w", path, err)
	}
	resolveEnclosingSymbols(&res)
	return res, nil
}

// enclosingKinds is the set of symbol kinds eligible to own a reference.
var enclosingKinds = map[SymbolKind]bool{
	KindFunction: true,
	KindMethod:   true,
	KindClass:    true,
	KindStruct:   true,
	KindImpl:     true,
}

// resolveEnclosingSymbols sets Reference.FromSymbol to the tightest
// enclosing eligible symbol containing Line, smallest span wins.
func resolveEnclosingSymbols(res *ParseResult) {
	for i := range res.References {
		ref := &res.References[i]
		if ref.FromSymbol != "" {
			continue
		}
		best := -1
		bestSpan := -1
		for j, sym := range res.Symbols {
			if !enclosingKinds[sym.Kind] {
				continue
			}
			if ref.Line < sym.LineStart || ref.Line > sym.LineEnd {
				continue
			}
			span := sym.LineEnd - sym.LineStart
			if best == -1 || span < bestSpan {
				best = j
				bestSpan = span
			}
		}
		if best != -1 {
			ref.FromSymbol = res.Symbols[best].Name
		}
	}
}
