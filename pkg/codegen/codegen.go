// Package codegen lowers a resolved program to symbolic target
// instructions. Lowering is a single structural recursion over the AST;
// the only state is the temporary and label counters, which live on the
// Generator so tests can observe fresh numbering per run.
package codegen

import (
	"strconv"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/semantics"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/target"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

type Generator struct {
	res    *semantics.Resolved
	out    []target.Instr
	temps  int
	labels int
}

func NewGenerator(res *semantics.Resolved) *Generator {
	return &Generator{res: res}
}

// Generate lowers the whole program: main first, terminated by STOP,
// then one labelled subroutine block per procedure and function.
func Generate(res *semantics.Resolved) ([]target.Instr, error) {
	g := NewGenerator(res)

	if err := g.body(res.Program.Main.Body); err != nil {
		return nil, err
	}
	// Control must never fall off main into the subroutine blocks.
	if len(g.out) == 0 {
		g.emit(target.Stop{})
	} else if _, ok := g.out[len(g.out)-1].(target.Stop); !ok {
		g.emit(target.Stop{})
	}

	for _, def := range res.Program.Procs {
		g.emit(target.Rem{Label: entryLabel(def.Name.Value)})
		if err := g.body(def.Body); err != nil {
			return nil, err
		}
		g.emit(target.Ret{})
	}
	for _, def := range res.Program.Funcs {
		g.emit(target.Rem{Label: entryLabel(def.Name.Value)})
		if err := g.body(def.Body); err != nil {
			return nil, err
		}
		result, err := g.atom(def.Result)
		if err != nil {
			return nil, err
		}
		g.emit(target.Let{Dst: resultSlot(def.Name.Value), Src: result})
		g.emit(target.Ret{})
	}
	return g.out, nil
}

func (g *Generator) emit(in target.Instr) {
	g.out = append(g.out, in)
}

// newTemp allocates a fresh temporary. The underscore keeps temps out
// of the source namespace: a user variable like t1 is a legal name, so
// plain t<n> spellings would clobber it.
func (g *Generator) newTemp() target.Var {
	g.temps++
	return target.Var("t_" + strconv.Itoa(g.temps))
}

func (g *Generator) newLabel(prefix string) string {
	g.labels++
	return "L" + prefix + strconv.Itoa(g.labels)
}

// entryLabel names a definition's subroutine block.
func entryLabel(def string) string { return "sub_" + def }

func arithOp(op token.Type) target.Op {
	switch op {
	case token.Minus:
		return target.Sub
	case token.Mult:
		return target.Mul
	case token.Div:
		return target.Div
	default: // token.Plus; binary only routes the four arithmetic ops here
		return target.Add
	}
}

// resultSlot is the fixed per-function storage the callee's return
// value travels through.
func resultSlot(def string) target.Var { return target.Var(def + "_ret") }

// storage maps a symbol to its target variable. Globals keep their
// source name; everything else is prefixed with its owner. Source names
// cannot contain underscores, so mangled names never collide.
func storage(sym *semantics.Symbol) target.Var {
	if sym.Owner == "" {
		return target.Var(sym.Name)
	}
	return target.Var(sym.Owner + "_" + sym.Name)
}

func (g *Generator) body(instrs []ast.Instr) error {
	for _, in := range instrs {
		if err := g.instr(in); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) instr(in ast.Instr) error {
	switch in := in.(type) {
	case *ast.Halt:
		g.emit(target.Stop{})
		return nil

	case *ast.Print:
		if s, ok := in.Value.(*ast.StringLit); ok {
			g.emit(target.PrintString{Value: s.Value})
			return nil
		}
		v, err := g.atom(in.Value.(ast.Atom))
		if err != nil {
			return err
		}
		g.emit(target.PrintValue{Value: v})
		return nil

	case *ast.CallStmt:
		return g.call(in, in.Callee, in.Args)

	case *ast.Assign:
		return g.assign(in)

	case *ast.While:
		return g.while(in)

	case *ast.DoUntil:
		return g.doUntil(in)

	case *ast.If:
		return g.branch(in)
	}
	return diag.Internalf("unknown instruction node %T", in)
}

func (g *Generator) assign(in *ast.Assign) error {
	dst, err := g.varStorage(in.Target)
	if err != nil {
		return err
	}

	if in.Call != nil {
		if err := g.call(in.Call, in.Call.Callee, in.Call.Args); err != nil {
			return err
		}
		// The result slot is clobbered by the next call to the same
		// function, so it is drained into a fresh temporary first.
		t := g.newTemp()
		g.emit(target.Let{Dst: t, Src: resultSlot(in.Call.Callee.Value)})
		g.emit(target.Let{Dst: dst, Src: t})
		return nil
	}

	v, err := g.term(in.Rhs)
	if err != nil {
		return err
	}
	g.emit(target.Let{Dst: dst, Src: v})
	return nil
}

// call copies the arguments into the callee's parameter storage in
// declaration order, then transfers control to its entry label.
func (g *Generator) call(node ast.Node, callee ast.Name, args []ast.Atom) error {
	sym, ok := g.res.Uses[node]
	if !ok {
		return diag.Internalf("unresolved call to %q", callee.Value)
	}
	var params []ast.Name
	switch sym.Kind {
	case semantics.ProcSym:
		params = sym.Proc.Params
	case semantics.FuncSym:
		params = sym.Func.Params
	default:
		return diag.Internalf("call to non-callable %q", callee.Value)
	}
	if len(args) != len(params) {
		return diag.Internalf("arity of %q changed after analysis", callee.Value)
	}
	for i, arg := range args {
		v, err := g.atom(arg)
		if err != nil {
			return err
		}
		dst := target.Var(callee.Value + "_" + params[i].Value)
		g.emit(target.Let{Dst: dst, Src: v})
	}
	g.emit(target.Gosub{Target: entryLabel(callee.Value)})
	return nil
}

func (g *Generator) while(in *ast.While) error {
	begin := g.newLabel("Begin")
	exit := g.newLabel("Exit")

	g.emit(target.Rem{Label: begin})
	cond, err := g.term(in.Cond)
	if err != nil {
		return err
	}
	g.emit(target.IfGoto{Left: cond, Rel: target.RelEq, Right: target.Int(0), Target: exit})
	if err := g.body(in.Body); err != nil {
		return err
	}
	g.emit(target.Goto{Target: begin})
	g.emit(target.Rem{Label: exit})
	return nil
}

func (g *Generator) doUntil(in *ast.DoUntil) error {
	begin := g.newLabel("Begin")

	g.emit(target.Rem{Label: begin})
	if err := g.body(in.Body); err != nil {
		return err
	}
	cond, err := g.term(in.Cond)
	if err != nil {
		return err
	}
	g.emit(target.IfGoto{Left: cond, Rel: target.RelEq, Right: target.Int(0), Target: begin})
	return nil
}

func (g *Generator) branch(in *ast.If) error {
	exit := g.newLabel("Exit")

	cond, err := g.term(in.Cond)
	if err != nil {
		return err
	}

	if in.Else == nil {
		g.emit(target.IfGoto{Left: cond, Rel: target.RelEq, Right: target.Int(0), Target: exit})
		if err := g.body(in.Then); err != nil {
			return err
		}
		g.emit(target.Rem{Label: exit})
		return nil
	}

	elseLabel := g.newLabel("Else")
	g.emit(target.IfGoto{Left: cond, Rel: target.RelEq, Right: target.Int(0), Target: elseLabel})
	if err := g.body(in.Then); err != nil {
		return err
	}
	g.emit(target.Goto{Target: exit})
	g.emit(target.Rem{Label: elseLabel})
	if err := g.body(in.Else); err != nil {
		return err
	}
	g.emit(target.Rem{Label: exit})
	return nil
}

// term lowers an expression and returns the operand holding its value.
// Atoms are used directly; every operator application lands in a fresh
// temporary, post-order, so nested terms flatten into a chain of
// three-address operations.
func (g *Generator) term(t ast.Term) (target.Value, error) {
	switch t := t.(type) {
	case *ast.AtomRef:
		return g.atom(t.Atom)

	case *ast.UnaryExpr:
		operand, err := g.term(t.Operand)
		if err != nil {
			return nil, err
		}
		switch t.Op {
		case token.Neg:
			tmp := g.newTemp()
			g.emit(target.LetNeg{Dst: tmp, Src: operand})
			return tmp, nil
		case token.Not:
			return g.boolDiamond(func(trueLabel string) {
				g.emit(target.IfGoto{Left: operand, Rel: target.RelEq, Right: target.Int(0), Target: trueLabel})
			}), nil
		}
		return nil, diag.Internalf("unknown unary operator %v", t.Op)

	case *ast.BinaryExpr:
		return g.binary(t)
	}
	return nil, diag.Internalf("unknown term node %T", t)
}

func (g *Generator) binary(t *ast.BinaryExpr) (target.Value, error) {
	switch t.Op {
	case token.Plus, token.Minus, token.Mult, token.Div:
		left, err := g.term(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.term(t.Right)
		if err != nil {
			return nil, err
		}
		tmp := g.newTemp()
		g.emit(target.LetBinary{Dst: tmp, Left: left, Op: arithOp(t.Op), Right: right})
		return tmp, nil

	case token.Eq, token.Gt:
		left, err := g.term(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := g.term(t.Right)
		if err != nil {
			return nil, err
		}
		rel := target.RelEq
		if t.Op == token.Gt {
			rel = target.RelGt
		}
		return g.boolDiamond(func(trueLabel string) {
			g.emit(target.IfGoto{Left: left, Rel: rel, Right: right, Target: trueLabel})
		}), nil

	case token.And:
		return g.andTerm(t)

	case token.Or:
		return g.orTerm(t)
	}
	return nil, diag.Internalf("unknown binary operator %v", t.Op)
}

// boolDiamond materialises a truth value: test jumps to the true arm,
// the fall-through stores 0.
func (g *Generator) boolDiamond(test func(trueLabel string)) target.Value {
	trueLabel := g.newLabel("True")
	end := g.newLabel("End")
	tmp := g.newTemp()

	test(trueLabel)
	g.emit(target.Let{Dst: tmp, Src: target.Int(0)})
	g.emit(target.Goto{Target: end})
	g.emit(target.Rem{Label: trueLabel})
	g.emit(target.Let{Dst: tmp, Src: target.Int(1)})
	g.emit(target.Rem{Label: end})
	return tmp
}

// andTerm short-circuits: the right operand is not evaluated when the
// left is already false.
func (g *Generator) andTerm(t *ast.BinaryExpr) (target.Value, error) {
	falseLabel := g.newLabel("False")
	end := g.newLabel("End")
	tmp := g.newTemp()

	left, err := g.term(t.Left)
	if err != nil {
		return nil, err
	}
	g.emit(target.IfGoto{Left: left, Rel: target.RelEq, Right: target.Int(0), Target: falseLabel})
	right, err := g.term(t.Right)
	if err != nil {
		return nil, err
	}
	g.emit(target.IfGoto{Left: right, Rel: target.RelEq, Right: target.Int(0), Target: falseLabel})
	g.emit(target.Let{Dst: tmp, Src: target.Int(1)})
	g.emit(target.Goto{Target: end})
	g.emit(target.Rem{Label: falseLabel})
	g.emit(target.Let{Dst: tmp, Src: target.Int(0)})
	g.emit(target.Rem{Label: end})
	return tmp, nil
}

func (g *Generator) orTerm(t *ast.BinaryExpr) (target.Value, error) {
	trueLabel := g.newLabel("True")
	end := g.newLabel("End")
	tmp := g.newTemp()

	left, err := g.term(t.Left)
	if err != nil {
		return nil, err
	}
	g.emit(target.IfGoto{Left: left, Rel: target.RelGt, Right: target.Int(0), Target: trueLabel})
	right, err := g.term(t.Right)
	if err != nil {
		return nil, err
	}
	g.emit(target.IfGoto{Left: right, Rel: target.RelGt, Right: target.Int(0), Target: trueLabel})
	g.emit(target.Let{Dst: tmp, Src: target.Int(0)})
	g.emit(target.Goto{Target: end})
	g.emit(target.Rem{Label: trueLabel})
	g.emit(target.Let{Dst: tmp, Src: target.Int(1)})
	g.emit(target.Rem{Label: end})
	return tmp, nil
}

func (g *Generator) atom(a ast.Atom) (target.Value, error) {
	switch a := a.(type) {
	case *ast.NumberLit:
		return target.Int(a.Value), nil
	case *ast.VarRef:
		return g.varStorage(a.Name)
	}
	return nil, diag.Internalf("unknown atom node %T", a)
}

// varStorage returns the target variable for one source occurrence. An
// occurrence the analyzer never resolved is an internal bug.
func (g *Generator) varStorage(name ast.Name) (target.Var, error) {
	sym, ok := g.res.LookupUse(name)
	if !ok {
		return "", diag.Internalf("unresolved variable %q at %d:%d", name.Value, name.Token.Line, name.Token.Column)
	}
	return storage(sym), nil
}
