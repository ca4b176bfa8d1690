package ast

import (
	"fmt"
	"strings"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

// Dump renders the tree as an indented outline, one node per line. It
// backs the driver's debug output and is not part of the compilation
// pipeline.
func Dump(p *Program) string {
	var b strings.Builder
	d := dumper{b: &b}
	d.printf(0, "program")
	d.printf(1, "globals %s", nameList(p.Globals))
	for _, def := range p.Procs {
		d.printf(1, "proc %s params %s locals %s", def.Name.Value, nameList(def.Params), nameList(def.Locals))
		d.instrs(2, def.Body)
	}
	for _, def := range p.Funcs {
		d.printf(1, "func %s params %s locals %s", def.Name.Value, nameList(def.Params), nameList(def.Locals))
		d.instrs(2, def.Body)
		d.printf(2, "return %s", atomString(def.Result))
	}
	d.printf(1, "main vars %s", nameList(p.Main.Locals))
	d.instrs(2, p.Main.Body)
	return b.String()
}

type dumper struct {
	b *strings.Builder
}

func (d *dumper) printf(depth int, format string, args ...interface{}) {
	d.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(d.b, format, args...)
	d.b.WriteByte('\n')
}

func (d *dumper) instrs(depth int, body []Instr) {
	for _, in := range body {
		d.instr(depth, in)
	}
}

func (d *dumper) instr(depth int, in Instr) {
	switch in := in.(type) {
	case *Halt:
		d.printf(depth, "halt")
	case *Print:
		d.printf(depth, "print %s", outputString(in.Value))
	case *CallStmt:
		d.printf(depth, "call %s%s", in.Callee.Value, argList(in.Args))
	case *Assign:
		if in.Call != nil {
			d.printf(depth, "assign %s = call %s%s", in.Target.Value, in.Call.Callee.Value, argList(in.Call.Args))
		} else {
			d.printf(depth, "assign %s = %s", in.Target.Value, TermString(in.Rhs))
		}
	case *While:
		d.printf(depth, "while %s", TermString(in.Cond))
		d.instrs(depth+1, in.Body)
	case *DoUntil:
		d.printf(depth, "do")
		d.instrs(depth+1, in.Body)
		d.printf(depth, "until %s", TermString(in.Cond))
	case *If:
		d.printf(depth, "if %s", TermString(in.Cond))
		d.instrs(depth+1, in.Then)
		if in.Else != nil {
			d.printf(depth, "else")
			d.instrs(depth+1, in.Else)
		}
	}
}

// TermString renders a term in source-like fully parenthesised form.
func TermString(t Term) string {
	switch t := t.(type) {
	case *AtomRef:
		return atomString(t.Atom)
	case *UnaryExpr:
		return "(" + opName(t.Op) + " " + TermString(t.Operand) + ")"
	case *BinaryExpr:
		return "(" + TermString(t.Left) + " " + opName(t.Op) + " " + TermString(t.Right) + ")"
	}
	return "?"
}

func opName(op token.Type) string {
	if op == token.Gt {
		return ">"
	}
	// Keyword operators render as their keyword.
	s := op.String()
	return strings.Trim(s, "'")
}

func atomString(a Atom) string {
	switch a := a.(type) {
	case *VarRef:
		return a.Name.Value
	case *NumberLit:
		return fmt.Sprintf("%d", a.Value)
	}
	return "?"
}

func outputString(o Output) string {
	if s, ok := o.(*StringLit); ok {
		return fmt.Sprintf("%q", s.Value)
	}
	return atomString(o.(Atom))
}

func nameList(names []Name) string {
	if len(names) == 0 {
		return "()"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.Value
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func argList(args []Atom) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = atomString(a)
	}
	return "(" + strings.Join(parts, " ") + ")"
}
