package semantics

import (
	"sort"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
)

// Resolved is the analyzer's output: the unchanged AST, the completed
// symbol table, and a map from every reference node (*ast.VarRef,
// *ast.CallStmt, *ast.CallExpr) to the symbol it resolves to.
type Resolved struct {
	Program *ast.Program
	Table   *Table
	Uses    map[ast.Node]*Symbol
}

type analyzer struct {
	prog  *ast.Program
	table *Table
	uses  map[ast.Node]*Symbol

	// Call-graph edges gathered during resolution, caller def name to
	// callee def names. Main is not a callee and needs no vertex.
	calls map[string][]string
}

// Analyze runs the declaration pass then the resolution pass over the
// whole program, in lexical order: globals, procedures, functions,
// main. The first error wins.
func Analyze(prog *ast.Program) (*Resolved, error) {
	a := &analyzer{
		prog:  prog,
		table: newTable(),
		uses:  make(map[ast.Node]*Symbol),
		calls: make(map[string][]string),
	}
	if err := a.declare(); err != nil {
		return nil, err
	}
	if err := a.resolve(); err != nil {
		return nil, err
	}
	if err := a.checkRecursion(); err != nil {
		return nil, err
	}
	return &Resolved{Program: prog, Table: a.table, Uses: a.uses}, nil
}

// declare populates every scope. Within the global scope a variable and
// a proc/func may not share a name: the reference grammar cannot tell
// them apart at a use site, so the clash is reported as a reserved
// name. Procedures and functions share one namespace.
func (a *analyzer) declare() error {
	for _, g := range a.prog.Globals {
		sym := &Symbol{Name: g.Value, Kind: GlobalVar, Token: g.Token}
		if !a.table.Global.declare(sym) {
			return diag.Semanticf(diag.DuplicateDeclaration, g.Token,
				"global variable %q is already declared", g.Value)
		}
	}

	for _, def := range a.prog.Procs {
		if err := a.declareDef(def.Name, ProcSym, len(def.Params), def, nil); err != nil {
			return err
		}
		if err := a.declareScope(def.Name.Value, def.Params, def.Locals); err != nil {
			return err
		}
	}
	for _, def := range a.prog.Funcs {
		if err := a.declareDef(def.Name, FuncSym, len(def.Params), nil, def); err != nil {
			return err
		}
		if err := a.declareScope(def.Name.Value, def.Params, def.Locals); err != nil {
			return err
		}
	}

	for _, v := range a.prog.Main.Locals {
		if sym, ok := a.table.Global.Lookup(v.Value); ok && !sym.IsVar() {
			return diag.Semanticf(diag.ReservedName, v.Token,
				"%q is already the name of a %s", v.Value, sym.Kind)
		}
		sym := &Symbol{Name: v.Value, Kind: MainVar, Owner: "main", Token: v.Token}
		if !a.table.Main.declare(sym) {
			return diag.Semanticf(diag.DuplicateDeclaration, v.Token,
				"variable %q is already declared in main", v.Value)
		}
	}
	return nil
}

func (a *analyzer) declareDef(name ast.Name, kind SymbolKind, params int, proc *ast.ProcDef, fn *ast.FuncDef) error {
	if sym, ok := a.table.Global.Lookup(name.Value); ok {
		if sym.Kind == GlobalVar {
			return diag.Semanticf(diag.ReservedName, name.Token,
				"%q is already the name of a global variable", name.Value)
		}
		return diag.Semanticf(diag.DuplicateDeclaration, name.Token,
			"%q is already declared as a %s", name.Value, sym.Kind)
	}
	a.table.Global.declare(&Symbol{
		Name: name.Value, Kind: kind, Token: name.Token,
		ParamCount: params, Proc: proc, Func: fn,
	})
	return nil
}

// declareScope fills a definition's inner scope. Parameters and locals
// share it, so a local repeating a parameter name is a duplicate.
func (a *analyzer) declareScope(owner string, params, locals []ast.Name) error {
	scope := newScope()
	a.table.Defs[owner] = scope
	for _, p := range params {
		if !scope.declare(&Symbol{Name: p.Value, Kind: Param, Owner: owner, Token: p.Token}) {
			return diag.Semanticf(diag.DuplicateDeclaration, p.Token,
				"duplicate parameter %q in %q", p.Value, owner)
		}
	}
	for _, l := range locals {
		if prev, ok := scope.Lookup(l.Value); ok {
			kind := "local variable"
			if prev.Kind == Param {
				kind = "parameter"
			}
			return diag.Semanticf(diag.DuplicateDeclaration, l.Token,
				"local variable %q in %q collides with a %s of the same name", l.Value, owner, kind)
		}
		scope.declare(&Symbol{Name: l.Value, Kind: LocalVar, Owner: owner, Token: l.Token})
	}
	return nil
}

func (a *analyzer) resolve() error {
	for _, def := range a.prog.Procs {
		scope := a.table.Defs[def.Name.Value]
		if err := a.resolveBody(def.Name.Value, scope, def.Body); err != nil {
			return err
		}
	}
	for _, def := range a.prog.Funcs {
		scope := a.table.Defs[def.Name.Value]
		if err := a.resolveBody(def.Name.Value, scope, def.Body); err != nil {
			return err
		}
		if err := a.resolveAtom(scope, def.Result); err != nil {
			return err
		}
	}
	return a.resolveBody("", a.table.Main, a.prog.Main.Body)
}

// resolveBody walks one definition's (or main's) instructions. caller
// is the enclosing def name, empty for main; it feeds the call graph.
func (a *analyzer) resolveBody(caller string, scope *Scope, body []ast.Instr) error {
	for _, in := range body {
		switch in := in.(type) {
		case *ast.Halt:
			// nothing to resolve
		case *ast.Print:
			if atom, ok := in.Value.(ast.Atom); ok {
				if err := a.resolveAtom(scope, atom); err != nil {
					return err
				}
			}
		case *ast.CallStmt:
			if err := a.resolveCall(caller, scope, in, in.Callee, in.Args, ProcSym); err != nil {
				return err
			}
		case *ast.Assign:
			if err := a.resolveVar(scope, in.Target); err != nil {
				return err
			}
			if in.Call != nil {
				if err := a.resolveCall(caller, scope, in.Call, in.Call.Callee, in.Call.Args, FuncSym); err != nil {
					return err
				}
			} else if err := a.resolveTerm(scope, in.Rhs); err != nil {
				return err
			}
		case *ast.While:
			if err := a.resolveTerm(scope, in.Cond); err != nil {
				return err
			}
			if err := a.resolveBody(caller, scope, in.Body); err != nil {
				return err
			}
		case *ast.DoUntil:
			if err := a.resolveBody(caller, scope, in.Body); err != nil {
				return err
			}
			if err := a.resolveTerm(scope, in.Cond); err != nil {
				return err
			}
		case *ast.If:
			if err := a.resolveTerm(scope, in.Cond); err != nil {
				return err
			}
			if err := a.resolveBody(caller, scope, in.Then); err != nil {
				return err
			}
			if in.Else != nil {
				if err := a.resolveBody(caller, scope, in.Else); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *analyzer) resolveTerm(scope *Scope, t ast.Term) error {
	switch t := t.(type) {
	case *ast.AtomRef:
		return a.resolveAtom(scope, t.Atom)
	case *ast.UnaryExpr:
		return a.resolveTerm(scope, t.Operand)
	case *ast.BinaryExpr:
		if err := a.resolveTerm(scope, t.Left); err != nil {
			return err
		}
		return a.resolveTerm(scope, t.Right)
	}
	return nil
}

func (a *analyzer) resolveAtom(scope *Scope, atom ast.Atom) error {
	if ref, ok := atom.(*ast.VarRef); ok {
		return a.resolveVar(scope, ref.Name)
	}
	return nil
}

// resolveVar binds one variable use: inner scope first, then globals.
func (a *analyzer) resolveVar(scope *Scope, name ast.Name) error {
	sym, ok := a.table.resolveIn(scope, name.Value)
	if !ok {
		return diag.Semanticf(diag.UndeclaredName, name.Token,
			"undeclared variable %q", name.Value)
	}
	a.recordUse(name, sym)
	return nil
}

// recordUse keys on the reference's token identity; each occurrence has
// its own source position, so positions are unique per use.
func (a *analyzer) recordUse(name ast.Name, sym *Symbol) {
	a.uses[nameKey(name)] = sym
}

// nameKey normalises an ast.Name into a node usable as a map key. The
// wrapper keeps Resolved.Uses keyed on ast.Node for call nodes too.
type nameUse struct {
	ast.Name
}

func nameKey(name ast.Name) ast.Node { return nameUse{name} }

// LookupUse returns the symbol a variable occurrence resolved to.
func (r *Resolved) LookupUse(name ast.Name) (*Symbol, bool) {
	sym, ok := r.Uses[nameUse{name}]
	return sym, ok
}

func (a *analyzer) resolveCall(caller string, scope *Scope, node ast.Node, callee ast.Name, args []ast.Atom, want SymbolKind) error {
	sym, ok := a.table.Global.Lookup(callee.Value)
	if !ok || sym.IsVar() {
		if ok {
			return diag.Semanticf(diag.CategoryMismatch, callee.Token,
				"%q is a %s, not a %s", callee.Value, sym.Kind, want)
		}
		return diag.Semanticf(diag.UndeclaredName, callee.Token,
			"call to undeclared name %q", callee.Value)
	}
	if sym.Kind != want {
		return diag.Semanticf(diag.CategoryMismatch, callee.Token,
			"%q is a %s, but this call requires a %s", callee.Value, sym.Kind, want)
	}
	if len(args) != sym.ParamCount {
		return diag.Semanticf(diag.ArityMismatch, callee.Token,
			"%q expects %d argument(s), got %d", callee.Value, sym.ParamCount, len(args))
	}
	for _, arg := range args {
		if err := a.resolveAtom(scope, arg); err != nil {
			return err
		}
	}
	a.uses[node] = sym
	if caller != "" {
		a.calls[caller] = append(a.calls[caller], callee.Value)
	}
	return nil
}

// checkRecursion rejects any definition that can reach itself through
// the call graph. Each invocation owns a single fixed storage area, so
// re-entry would clobber the in-flight call's parameters and locals.
func (a *analyzer) checkRecursion() error {
	var order []ast.Name
	for _, def := range a.prog.Procs {
		order = append(order, def.Name)
	}
	for _, def := range a.prog.Funcs {
		order = append(order, def.Name)
	}
	for _, name := range order {
		if a.reaches(name.Value, name.Value, make(map[string]bool)) {
			return diag.Semanticf(diag.Recursion, name.Token,
				"%q calls itself, directly or through other definitions; recursion is not supported", name.Value)
		}
	}
	return nil
}

func (a *analyzer) reaches(from, target string, seen map[string]bool) bool {
	callees := a.calls[from]
	// Deterministic traversal keeps error selection stable.
	sorted := append([]string(nil), callees...)
	sort.Strings(sorted)
	for _, callee := range sorted {
		if callee == target {
			return true
		}
		if seen[callee] {
			continue
		}
		seen[callee] = true
		if a.reaches(callee, target, seen) {
			return true
		}
	}
	return false
}
