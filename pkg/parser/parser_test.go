package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/config"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/lexer"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

func parse(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	cfg := config.NewConfig()
	p, err := NewParser(lexer.NewLexer([]rune(src), cfg), cfg)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parse(t, src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return prog
}

func parseErr(t *testing.T, src string) *diag.Error {
	t.Helper()
	_, err := parse(t, src)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	e, ok := err.(*diag.Error)
	if !ok {
		t.Fatalf("expected *diag.Error, got %T", err)
	}
	return e
}

// ignoreTokens drops source positions from tree comparisons.
var ignoreTokens = cmpopts.IgnoreTypes(token.Token{})

func name(s string) ast.Name { return ast.Name{Value: s} }

func TestMinimalProgram(t *testing.T) {
	prog := mustParse(t, `
		glob { counter }
		proc { }
		func { }
		main { var { x } counter = 0 ; x = 42 ; print "Done" ; halt }
	`)

	want := &ast.Program{
		Globals: []ast.Name{name("counter")},
		Main: &ast.MainBlock{
			Locals: []ast.Name{name("x")},
			Body: []ast.Instr{
				&ast.Assign{Target: name("counter"), Rhs: &ast.AtomRef{Atom: &ast.NumberLit{Value: 0}}},
				&ast.Assign{Target: name("x"), Rhs: &ast.AtomRef{Atom: &ast.NumberLit{Value: 42}}},
				&ast.Print{Value: &ast.StringLit{Value: "Done"}},
				&ast.Halt{},
			},
		},
	}
	if diff := cmp.Diff(want, prog, ignoreTokens); diff != "" {
		t.Errorf("program mismatch (-want +got):\n%s", diff)
	}
}

func TestFuncDef(t *testing.T) {
	prog := mustParse(t, `
		glob { sum }
		proc { }
		func {
			add ( a b ) { local { r } r = ( a plus b ) ; return r }
		}
		main { var { } sum = add ( 10 20 ) ; halt }
	`)

	wantFunc := &ast.FuncDef{
		Name:   name("add"),
		Params: []ast.Name{name("a"), name("b")},
		Locals: []ast.Name{name("r")},
		Body: []ast.Instr{
			&ast.Assign{
				Target: name("r"),
				Rhs: &ast.BinaryExpr{
					Op:    token.Plus,
					Left:  &ast.AtomRef{Atom: &ast.VarRef{Name: name("a")}},
					Right: &ast.AtomRef{Atom: &ast.VarRef{Name: name("b")}},
				},
			},
		},
		Result: &ast.VarRef{Name: name("r")},
	}
	if len(prog.Funcs) != 1 {
		t.Fatalf("expected 1 func, got %d", len(prog.Funcs))
	}
	if diff := cmp.Diff(wantFunc, prog.Funcs[0], ignoreTokens); diff != "" {
		t.Errorf("func mismatch (-want +got):\n%s", diff)
	}

	wantCall := &ast.Assign{
		Target: name("sum"),
		Call: &ast.CallExpr{
			Callee: name("add"),
			Args:   []ast.Atom{&ast.NumberLit{Value: 10}, &ast.NumberLit{Value: 20}},
		},
	}
	if diff := cmp.Diff(wantCall, prog.Main.Body[0], ignoreTokens); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
}

func TestControlFlow(t *testing.T) {
	prog := mustParse(t, `
		glob { x }
		proc { }
		func { }
		main { var { }
			while ( x > 0 ) { print x ; x = ( x minus 1 ) } ;
			do { x = ( x plus 1 ) } until ( x eq 10 ) ;
			if ( not x ) { halt } else { print x }
		}
	`)

	body := prog.Main.Body
	if len(body) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(body))
	}
	if _, ok := body[0].(*ast.While); !ok {
		t.Errorf("expected While, got %T", body[0])
	}
	if _, ok := body[1].(*ast.DoUntil); !ok {
		t.Errorf("expected DoUntil, got %T", body[1])
	}
	iff, ok := body[2].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %T", body[2])
	}
	if _, ok := iff.Cond.(*ast.UnaryExpr); !ok {
		t.Errorf("expected unary condition, got %T", iff.Cond)
	}
	if iff.Else == nil {
		t.Error("expected an else branch")
	}
}

func TestNestedTerm(t *testing.T) {
	prog := mustParse(t, `
		glob { a b c r }
		proc { }
		func { }
		main { var { } r = ( ( a plus b ) mult ( neg c ) ) }
	`)

	want := &ast.BinaryExpr{
		Op: token.Mult,
		Left: &ast.BinaryExpr{
			Op:    token.Plus,
			Left:  &ast.AtomRef{Atom: &ast.VarRef{Name: name("a")}},
			Right: &ast.AtomRef{Atom: &ast.VarRef{Name: name("b")}},
		},
		Right: &ast.UnaryExpr{
			Op:      token.Neg,
			Operand: &ast.AtomRef{Atom: &ast.VarRef{Name: name("c")}},
		},
	}
	rhs := prog.Main.Body[0].(*ast.Assign).Rhs
	if diff := cmp.Diff(ast.Term(want), rhs, ignoreTokens); diff != "" {
		t.Errorf("term mismatch (-want +got):\n%s", diff)
	}
}

func TestProcCallStatement(t *testing.T) {
	prog := mustParse(t, `
		glob { x }
		proc {
			show ( v ) { local { } print v }
		}
		func { }
		main { var { } show ( x ) ; show ( 5 ) }
	`)

	call := prog.Main.Body[0].(*ast.CallStmt)
	if call.Callee.Value != "show" || len(call.Args) != 1 {
		t.Errorf("unexpected call %+v", call)
	}
}

func TestUncappedArgumentList(t *testing.T) {
	// The grammar caps parameters, not call arguments; oversupplying a
	// call must survive parsing so analysis can report arity.
	prog := mustParse(t, `
		glob { }
		proc { }
		func { }
		main { var { } foo ( 1 2 3 4 ) }
	`)
	call := prog.Main.Body[0].(*ast.CallStmt)
	if len(call.Args) != 4 {
		t.Fatalf("expected 4 arguments, got %d", len(call.Args))
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
	}{
		{
			"four parameters",
			`glob { } proc { p ( a b c d ) { local { } halt } } func { } main { var { } halt }`,
			diag.ListTooLong,
		},
		{
			"four locals",
			`glob { } proc { p ( ) { local { a b c d } halt } } func { } main { var { } halt }`,
			diag.ListTooLong,
		},
		{
			"missing separator",
			`glob { } proc { } func { } main { var { } print "a" print "b" }`,
			diag.MissingSeparator,
		},
		{
			"missing glob",
			`proc { } func { } main { var { } halt }`,
			diag.UnexpectedToken,
		},
		{
			"missing return in func",
			`glob { } proc { } func { f ( ) { local { } halt } } main { var { } halt }`,
			diag.UnexpectedToken,
		},
		{
			"unparenthesised binary term",
			`glob { a b x } proc { } func { } main { var { } x = a plus b }`,
			diag.UnexpectedToken,
		},
		{
			"name without call or assign",
			`glob { x } proc { } func { } main { var { } x }`,
			diag.UnexpectedToken,
		},
		{
			// A semicolon separates instructions, it does not terminate
			// them; a trailing one before '}' is rejected.
			"trailing semicolon",
			`glob { } proc { } func { } main { var { } halt ; }`,
			diag.UnexpectedToken,
		},
		{
			"trailing input after main",
			`glob { } proc { } func { } main { var { } halt } halt`,
			diag.UnexpectedToken,
		},
		{
			"unterminated main block",
			`glob { } proc { } func { } main { var { } halt`,
			diag.UnmatchedDelimiter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseErr(t, tt.src)
			if e.Phase != diag.Syntax {
				t.Errorf("expected syntax phase, got %v", e.Phase)
			}
			if e.Kind != tt.kind {
				t.Errorf("expected kind %v, got %v (%s)", tt.kind, e.Kind, e.Message)
			}
		})
	}
}

func TestLexicalErrorSurfacesThroughParser(t *testing.T) {
	e := parseErr(t, `glob { } proc { } func { } main { var { } x = 007 }`)
	if e.Phase != diag.Lexical {
		t.Errorf("expected lexical phase, got %v", e.Phase)
	}
}
