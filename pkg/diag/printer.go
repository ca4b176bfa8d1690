package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorMode controls ANSI colouring of diagnostics.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Printer renders diagnostics for the terminal: one summary line per
// error, plus the offending source line with a caret when the source is
// available.
type Printer struct {
	out    io.Writer
	color  bool
	source []rune
}

func NewPrinter(out io.Writer, mode ColorMode) *Printer {
	color := mode == ColorAlways
	if mode == ColorAuto {
		if f, ok := out.(*os.File); ok {
			color = term.IsTerminal(int(f.Fd()))
		}
	}
	return &Printer{out: out, color: color}
}

// SetSource gives the printer the compiled source so it can show the
// line an error points at.
func (p *Printer) SetSource(src []rune) { p.source = src }

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Print writes the single-line report required on failure, then the
// source context if the error carries a position.
func (p *Printer) Print(err error) {
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(p.out, "splc: %s %s\n", p.paint("31", "error:"), err)
		return
	}

	if e.Line > 0 {
		fmt.Fprintf(p.out, "splc: %s %s %s at %d:%d: %s\n",
			p.paint("31", "error:"), e.Phase, e.Kind, e.Line, e.Column, e.Message)
		p.printSourceLine(e.Line, e.Column)
	} else {
		fmt.Fprintf(p.out, "splc: %s %s %s: %s\n",
			p.paint("31", "error:"), e.Phase, e.Kind, e.Message)
	}
}

func (p *Printer) printSourceLine(line, col int) {
	if len(p.source) == 0 || line <= 0 {
		return
	}
	start := 0
	for i, r := range p.source {
		if line <= 1 {
			break
		}
		if r == '\n' {
			line--
			start = i + 1
		}
	}
	end := len(p.source)
	for i := start; i < len(p.source); i++ {
		if p.source[i] == '\n' {
			end = i
			break
		}
	}
	fmt.Fprintf(p.out, "  %s\n", string(p.source[start:end]))
	if col > 0 && col <= end-start+1 {
		fmt.Fprintf(p.out, "  %s%s\n", strings.Repeat(" ", col-1), p.paint("32", "^"))
	}
}
