// Package target models the output language: a flat BASIC-style
// program of numbered lines with REM labels, assignments, conditional
// and unconditional jumps, subroutine calls, PRINT and STOP.
//
// Code generation happens in two stages. The generator emits symbolic
// instructions whose jumps name REM labels; Resolve then numbers every
// line and rewrites each label reference to the line number of its REM.
package target

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
)

// Value is a jump-free operand: a variable or an integer literal.
type Value interface {
	value()
	String() string
}

type Var string

type Int int

func (Var) value() {}
func (Int) value() {}

func (v Var) String() string { return string(v) }
func (n Int) String() string { return strconv.Itoa(int(n)) }

// Op is a target arithmetic operator.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
)

func (o Op) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	default:
		return "?"
	}
}

// RelOp is a comparison usable in IF ... THEN. The target only
// compares for equality and greater-than.
type RelOp int

const (
	RelEq RelOp = iota
	RelGt
)

func (r RelOp) String() string {
	if r == RelGt {
		return ">"
	}
	return "="
}

// Instr is the closed set of target instructions.
type Instr interface {
	instr()
}

// Rem is a label line; jumps land on its line number.
type Rem struct {
	Label string
}

// Let copies a value into a variable.
type Let struct {
	Dst Var
	Src Value
}

// LetNeg stores the arithmetic negation of a value.
type LetNeg struct {
	Dst Var
	Src Value
}

// LetBinary stores the result of one arithmetic operation.
type LetBinary struct {
	Dst   Var
	Left  Value
	Op    Op
	Right Value
}

// IfGoto jumps to Target when the comparison holds.
type IfGoto struct {
	Left   Value
	Rel    RelOp
	Right  Value
	Target string
}

type Goto struct {
	Target string
}

// Gosub jumps to Target remembering the return point.
type Gosub struct {
	Target string
}

// Ret resumes after the most recent Gosub.
type Ret struct{}

type PrintValue struct {
	Value Value
}

type PrintString struct {
	Value string
}

// Stop terminates the program.
type Stop struct{}

func (Rem) instr()         {}
func (Let) instr()         {}
func (LetNeg) instr()      {}
func (LetBinary) instr()   {}
func (IfGoto) instr()      {}
func (Goto) instr()        {}
func (Gosub) instr()       {}
func (Ret) instr()         {}
func (PrintValue) instr()  {}
func (PrintString) instr() {}
func (Stop) instr()        {}

// Resolve numbers the instructions starting at start, advancing by
// step, and rewrites every jump target to the line number of the REM
// carrying that label. A duplicate or unknown label is a compiler bug
// and surfaces as an internal error.
func Resolve(instrs []Instr, start, step int) (string, error) {
	if start <= 0 || step <= 0 {
		return "", diag.Internalf("line numbering must be positive, got start=%d step=%d", start, step)
	}

	lines := make([]int, len(instrs))
	labels := make(map[string]int)
	num := start
	for i, in := range instrs {
		lines[i] = num
		if rem, ok := in.(Rem); ok {
			if _, dup := labels[rem.Label]; dup {
				return "", diag.Internalf("duplicate label %q", rem.Label)
			}
			labels[rem.Label] = num
		}
		num += step
	}

	lookup := func(label string) (int, error) {
		n, ok := labels[label]
		if !ok {
			return 0, diag.Internalf("jump to unknown label %q", label)
		}
		return n, nil
	}

	var b strings.Builder
	for i, in := range instrs {
		text, err := render(in, lookup)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d %s\n", lines[i], text)
	}
	return b.String(), nil
}

func render(in Instr, lookup func(string) (int, error)) (string, error) {
	switch in := in.(type) {
	case Rem:
		return "REM " + in.Label, nil
	case Let:
		return fmt.Sprintf("%s = %s", in.Dst, in.Src), nil
	case LetNeg:
		return fmt.Sprintf("%s = - %s", in.Dst, in.Src), nil
	case LetBinary:
		return fmt.Sprintf("%s = %s %s %s", in.Dst, in.Left, in.Op, in.Right), nil
	case IfGoto:
		n, err := lookup(in.Target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("IF %s %s %s THEN %d", in.Left, in.Rel, in.Right, n), nil
	case Goto:
		n, err := lookup(in.Target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("GOTO %d", n), nil
	case Gosub:
		n, err := lookup(in.Target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("GOSUB %d", n), nil
	case Ret:
		return "RETURN", nil
	case PrintValue:
		return "PRINT " + in.Value.String(), nil
	case PrintString:
		return fmt.Sprintf("PRINT %q", in.Value), nil
	case Stop:
		return "STOP", nil
	}
	return "", diag.Internalf("unknown instruction %T", in)
}
