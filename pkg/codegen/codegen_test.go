package codegen

import (
	"strconv"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/config"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/lexer"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/parser"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/semantics"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/target"
)

func resolve(t *testing.T, src string) *semantics.Resolved {
	t.Helper()
	cfg := config.NewConfig()
	p, err := parser.NewParser(lexer.NewLexer([]rune(src), cfg), cfg)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := semantics.Analyze(prog)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return res
}

func listing(t *testing.T, src string) string {
	t.Helper()
	instrs, err := Generate(resolve(t, src))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, err := target.Resolve(instrs, 10, 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return out
}

// assertOrder checks that every needle occurs, in the given order.
func assertOrder(t *testing.T, haystack string, needles []string) {
	t.Helper()
	pos := 0
	for _, needle := range needles {
		idx := strings.Index(haystack[pos:], needle)
		if idx < 0 {
			t.Fatalf("missing %q after offset %d in:\n%s", needle, pos, haystack)
		}
		pos += idx + len(needle)
	}
}

func TestStraightLineProgram(t *testing.T) {
	out := listing(t, `
		glob { counter }
		proc { } func { }
		main { var { x } counter = 0 ; x = 42 ; print "Done" ; halt }
	`)
	assertOrder(t, out, []string{
		"counter = 0",
		"main_x = 42",
		`PRINT "Done"`,
		"STOP",
	})
}

func TestFunctionCall(t *testing.T) {
	out := listing(t, `
		glob { sum }
		proc { }
		func {
			add ( a b ) { local { r } r = ( a plus b ) ; return r }
		}
		main { var { } sum = add ( 10 20 ) ; halt }
	`)
	assertOrder(t, out, []string{
		"add_a = 10",
		"add_b = 20",
		"GOSUB",
		"= add_ret",
		"sum = t_",
		"STOP",
		"REM sub_add",
		"= add_a + add_b",
		"add_ret = add_r",
		"RETURN",
	})
}

func TestProcedureCallCopiesArguments(t *testing.T) {
	out := listing(t, `
		glob { g }
		proc {
			bump ( n ) { local { } g = ( g plus n ) }
		}
		func { }
		main { var { } bump ( 7 ) ; halt }
	`)
	assertOrder(t, out, []string{
		"bump_n = 7",
		"GOSUB",
		"STOP",
		"REM sub_bump",
		"= g + bump_n",
		"RETURN",
	})
}

func TestWhileLoop(t *testing.T) {
	out := listing(t, `
		glob { x }
		proc { } func { }
		main { var { } x = 3 ; while ( x > 0 ) { print x ; x = ( x minus 1 ) } ; halt }
	`)
	assertOrder(t, out, []string{
		"x = 3",
		"REM LBegin",
		"IF x > 0 THEN",
		"GOTO", // condition false arm of the 0/1 diamond
		"REM LTrue",
		"IF t_1 = 0 THEN", // exit test on the materialised condition
		"PRINT x",
		"= x - 1",
		"GOTO", // back edge
		"REM LExit",
		"STOP",
	})
	// One condition evaluation per iteration: the comparison sits
	// between the begin label and the back edge.
	begin := strings.Index(out, "REM LBegin")
	backEdge := strings.LastIndex(out, "GOTO")
	comparison := strings.Index(out, "IF x > 0 THEN")
	if !(begin < comparison && comparison < backEdge) {
		t.Errorf("condition not re-evaluated inside the loop:\n%s", out)
	}
}

func TestDoUntilLoop(t *testing.T) {
	out := listing(t, `
		glob { x }
		proc { } func { }
		main { var { } do { x = ( x plus 1 ) } until ( x eq 10 ) ; halt }
	`)
	assertOrder(t, out, []string{
		"REM LBegin",
		"= x + 1",
		"IF x = 10 THEN",
		"IF t_2 = 0 THEN", // loop back when the condition is still false
		"STOP",
	})
}

func TestIfElse(t *testing.T) {
	out := listing(t, `
		glob { x }
		proc { } func { }
		main { var { } if ( x eq 0 ) { print "zero" } else { print "other" } ; halt }
	`)
	assertOrder(t, out, []string{
		"IF x = 0 THEN",
		"IF t_1 = 0 THEN",
		`PRINT "zero"`,
		"GOTO",
		"REM LElse",
		`PRINT "other"`,
		"REM LExit",
		"STOP",
	})
}

func TestNegAndNestedTerms(t *testing.T) {
	out := listing(t, `
		glob { a b r }
		proc { } func { }
		main { var { } r = ( ( a plus b ) mult ( neg a ) ) ; halt }
	`)
	assertOrder(t, out, []string{
		"t_1 = a + b",
		"t_2 = - a",
		"t_3 = t_1 * t_2",
		"r = t_3",
		"STOP",
	})
}

func TestAllArithmeticOperators(t *testing.T) {
	out := listing(t, `
		glob { a b r }
		proc { } func { }
		main { var { }
			r = ( a plus b ) ;
			r = ( a minus b ) ;
			r = ( a mult b ) ;
			r = ( a div b ) ;
			halt
		}
	`)
	assertOrder(t, out, []string{
		"t_1 = a + b",
		"t_2 = a - b",
		"t_3 = a * b",
		"t_4 = a / b",
		"STOP",
	})
}

func TestTempsDoNotClobberUserVariables(t *testing.T) {
	// t1 is a legal source name; the temporary holding the sum must not
	// overwrite it.
	out := listing(t, `
		glob { t1 x }
		proc { } func { }
		main { var { } t1 = 5 ; x = ( 2 plus 4 ) ; print t1 ; halt }
	`)
	assertOrder(t, out, []string{
		"t1 = 5",
		"t_1 = 2 + 4",
		"x = t_1",
		"PRINT t1",
		"STOP",
	})
	if strings.Contains(out, "t1 = 2 + 4") {
		t.Errorf("temporary reused the user variable t1:\n%s", out)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	out := listing(t, `
		glob { a b r }
		proc { } func { }
		main { var { } r = ( a and b ) ; halt }
	`)
	// The right operand test must come after the left short-circuit
	// test, and both false arms share one label.
	assertOrder(t, out, []string{
		"IF a = 0 THEN",
		"IF b = 0 THEN",
		"= 1",
		"GOTO",
		"REM LFalse",
		"= 0",
		"REM LEnd",
	})
}

func TestHaltInsideMainBody(t *testing.T) {
	out := listing(t, `
		glob { x }
		proc { } func { }
		main { var { } if ( x eq 0 ) { halt } ; print x }
	`)
	// The conditional halt lowers to STOP, and main still gets its own
	// terminating STOP before any subroutine blocks.
	if got := strings.Count(out, "STOP"); got != 2 {
		t.Errorf("expected 2 STOP instructions, got %d:\n%s", got, out)
	}
}

func TestLineNumbersStrictlyIncrease(t *testing.T) {
	out := listing(t, `
		glob { x }
		proc {
			show ( v ) { local { } print v }
		}
		func {
			inc ( n ) { local { r } r = ( n plus 1 ) ; return r }
		}
		main { var { } x = inc ( 1 ) ; show ( x ) ; while ( x > 0 ) { x = ( x minus 1 ) } ; halt }
	`)
	prev := 0
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.SplitN(line, " ", 2)
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			t.Fatalf("line without number: %q", line)
		}
		if n <= prev {
			t.Fatalf("line numbers not strictly increasing at %q", line)
		}
		prev = n
	}
}

func TestLabelsNeverReused(t *testing.T) {
	instrs, err := Generate(resolve(t, `
		glob { x }
		proc { } func { }
		main { var { }
			while ( x > 0 ) { x = ( x minus 1 ) } ;
			while ( x > 0 ) { x = ( x minus 1 ) } ;
			if ( x eq 0 ) { halt } else { print x }
		}
	`))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	seen := make(map[string]bool)
	for _, in := range instrs {
		if rem, ok := in.(target.Rem); ok {
			if seen[rem.Label] {
				t.Fatalf("label %q emitted twice", rem.Label)
			}
			seen[rem.Label] = true
		}
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	src := `
		glob { x y }
		proc {
			show ( v ) { local { } print v }
		}
		func {
			add ( a b ) { local { r } r = ( a plus b ) ; return r }
		}
		main { var { } x = add ( 1 2 ) ; y = add ( x 3 ) ; show ( y ) ; halt }
	`
	res := resolve(t, src)
	first, err := Generate(res)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(res)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	a, err := target.Resolve(first, 10, 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b, err := target.Resolve(second, 10, 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if xxhash.Sum64String(a) != xxhash.Sum64String(b) {
		t.Error("repeated generation produced different listings")
	}
}
