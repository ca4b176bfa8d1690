// Package semantics checks names: it builds the symbol tables, resolves
// every reference to a declaration, and validates call categories and
// arity. The first violation, in lexical program order, aborts analysis
// with a semantic diag.Error.
package semantics

import (
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

type SymbolKind int

const (
	GlobalVar SymbolKind = iota
	Param
	LocalVar
	MainVar
	ProcSym
	FuncSym
)

func (k SymbolKind) String() string {
	switch k {
	case GlobalVar:
		return "global variable"
	case Param:
		return "parameter"
	case LocalVar:
		return "local variable"
	case MainVar:
		return "main variable"
	case ProcSym:
		return "procedure"
	case FuncSym:
		return "function"
	default:
		return "symbol"
	}
}

// Symbol is one declared name. Owner is the defining proc/func name for
// parameters and locals, "main" for main variables, and empty for
// globals, procedures and functions.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Owner string
	Token token.Token

	// Set for ProcSym/FuncSym.
	ParamCount int
	Proc       *ast.ProcDef
	Func       *ast.FuncDef
}

// IsVar reports whether the symbol names storage rather than code.
func (s *Symbol) IsVar() bool {
	return s.Kind == GlobalVar || s.Kind == Param || s.Kind == LocalVar || s.Kind == MainVar
}

// Scope maps names to symbols within one declaration region.
type Scope struct {
	symbols map[string]*Symbol
}

func newScope() *Scope {
	return &Scope{symbols: make(map[string]*Symbol)}
}

func (s *Scope) Lookup(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// declare inserts the symbol and reports whether the name was free.
func (s *Scope) declare(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// Table holds the global scope (variables plus every proc/func name)
// and one inner scope per definition and for main.
type Table struct {
	Global *Scope
	Defs   map[string]*Scope
	Main   *Scope
}

func newTable() *Table {
	return &Table{
		Global: newScope(),
		Defs:   make(map[string]*Scope),
		Main:   newScope(),
	}
}

// resolveIn looks a variable name up in the given inner scope first,
// then in the global scope. Only variable symbols are visible through
// this path; proc/func names resolve via call sites.
func (t *Table) resolveIn(inner *Scope, name string) (*Symbol, bool) {
	if sym, ok := inner.Lookup(name); ok {
		return sym, true
	}
	if sym, ok := t.Global.Lookup(name); ok && sym.Kind == GlobalVar {
		return sym, true
	}
	return nil, false
}
