// Package ast defines the syntax tree for SPL programs. The variant
// sets are closed: Instr, Term, Atom and Output are sealed interfaces
// whose implementations all live in this package, so a type switch over
// any of them can be exhaustive.
package ast

import "github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"

// Node is implemented by every AST node and reports the token the node
// was built from, for diagnostics.
type Node interface {
	Tok() token.Token
}

// Name is a declared or referenced identifier with its source position.
type Name struct {
	Value string
	Token token.Token
}

func (n Name) Tok() token.Token { return n.Token }

// Program is the root: global variables, procedure and function
// definitions in declaration order, and the main block.
type Program struct {
	Globals []Name
	Procs   []*ProcDef
	Funcs   []*FuncDef
	Main    *MainBlock
	Token   token.Token
}

func (p *Program) Tok() token.Token { return p.Token }

// ProcDef is a procedure: up to three parameters and three locals.
type ProcDef struct {
	Name   Name
	Params []Name
	Locals []Name
	Body   []Instr
}

func (d *ProcDef) Tok() token.Token { return d.Name.Token }

// FuncDef is a function: a procedure shape plus a result atom returned
// to the caller.
type FuncDef struct {
	Name   Name
	Params []Name
	Locals []Name
	Body   []Instr
	Result Atom
}

func (d *FuncDef) Tok() token.Token { return d.Name.Token }

type MainBlock struct {
	Locals []Name
	Body   []Instr
	Token  token.Token
}

func (m *MainBlock) Tok() token.Token { return m.Token }

// Instr is the closed set of statement variants.
type Instr interface {
	Node
	instr()
}

type Halt struct {
	Token token.Token
}

type Print struct {
	Value Output
	Token token.Token
}

// CallStmt invokes a procedure for effect.
type CallStmt struct {
	Callee Name
	Args   []Atom
}

// Assign stores a Term's value, or a function call's result, into a
// variable. Exactly one of Rhs and Call is set.
type Assign struct {
	Target Name
	Rhs    Term
	Call   *CallExpr
}

type While struct {
	Cond  Term
	Body  []Instr
	Token token.Token
}

// DoUntil runs its body at least once, repeating until Cond is true.
type DoUntil struct {
	Body  []Instr
	Cond  Term
	Token token.Token
}

type If struct {
	Cond  Term
	Then  []Instr
	Else  []Instr // nil when no else branch
	Token token.Token
}

func (*Halt) instr()     {}
func (*Print) instr()    {}
func (*CallStmt) instr() {}
func (*Assign) instr()   {}
func (*While) instr()    {}
func (*DoUntil) instr()  {}
func (*If) instr()       {}

func (i *Halt) Tok() token.Token     { return i.Token }
func (i *Print) Tok() token.Token    { return i.Token }
func (i *CallStmt) Tok() token.Token { return i.Callee.Token }
func (i *Assign) Tok() token.Token   { return i.Target.Token }
func (i *While) Tok() token.Token    { return i.Token }
func (i *DoUntil) Tok() token.Token  { return i.Token }
func (i *If) Tok() token.Token       { return i.Token }

// Term is the closed set of expression variants. Every operator
// application is fully parenthesised in the source, so terms carry no
// precedence.
type Term interface {
	Node
	term()
}

// AtomRef lifts an atom into expression position.
type AtomRef struct {
	Atom Atom
}

type UnaryExpr struct {
	Op      token.Type // token.Neg or token.Not
	Operand Term
	Token   token.Token
}

type BinaryExpr struct {
	Op    token.Type // eq > or and plus minus mult div
	Left  Term
	Right Term
	Token token.Token
}

func (*AtomRef) term()    {}
func (*UnaryExpr) term()  {}
func (*BinaryExpr) term() {}

func (t *AtomRef) Tok() token.Token    { return t.Atom.Tok() }
func (t *UnaryExpr) Tok() token.Token  { return t.Token }
func (t *BinaryExpr) Tok() token.Token { return t.Token }

// Atom is a variable reference or a non-negative number literal.
type Atom interface {
	Node
	atom()
}

type VarRef struct {
	Name Name
}

type NumberLit struct {
	Value int
	Token token.Token
}

func (*VarRef) atom()    {}
func (*NumberLit) atom() {}

func (a *VarRef) Tok() token.Token    { return a.Name.Token }
func (a *NumberLit) Tok() token.Token { return a.Token }

// Output is what print accepts: an atom or a string literal.
type Output interface {
	Node
	output()
}

type StringLit struct {
	Value string
	Token token.Token
}

func (*StringLit) output() {}
func (*VarRef) output()    {}
func (*NumberLit) output() {}

func (o *StringLit) Tok() token.Token { return o.Token }

// CallExpr is a function invocation in expression position; it appears
// only as the right-hand side of an assignment.
type CallExpr struct {
	Callee Name
	Args   []Atom
}

func (c *CallExpr) Tok() token.Token { return c.Callee.Token }
