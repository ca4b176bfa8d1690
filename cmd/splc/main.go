// Command splc compiles an SPL source file to a numbered BASIC-style
// listing: splc [flags] <input> <output>. On any error it prints one
// diagnostic line to stderr and exits nonzero without writing the
// output file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/compiler"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/config"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/lexer"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.NewConfig()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: splc [flags] <input> <output>\n")
		flag.PrintDefaults()
	}
	flag.IntVar(&cfg.LineStart, "start", cfg.LineStart, "first line number of the listing")
	flag.IntVar(&cfg.LineStep, "step", cfg.LineStep, "line number increment")
	flag.BoolVar(&cfg.DumpTokens, "dump-tokens", false, "print the token stream to stderr")
	flag.BoolVar(&cfg.DumpAST, "dump-ast", false, "print the syntax tree to stderr")
	colorFlag := flag.String("color", "auto", "colour diagnostics: auto, always or never")
	flag.Parse()

	printer := diag.NewPrinter(os.Stderr, parseColorMode(*colorFlag))
	cfg.Color = parseColorMode(*colorFlag)

	if flag.NArg() != 2 {
		flag.Usage()
		return 2
	}
	input, output := flag.Arg(0), flag.Arg(1)

	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "splc: %v\n", err)
		return 1
	}
	source := string(data)
	printer.SetSource([]rune(source))

	if cfg.DumpTokens {
		if err := dumpTokens(source, cfg); err != nil {
			printer.Print(err)
			return 1
		}
	}

	c := compiler.New(cfg)

	if cfg.DumpAST {
		prog, err := c.Parse(source)
		if err != nil {
			printer.Print(err)
			return 1
		}
		fmt.Fprint(os.Stderr, ast.Dump(prog))
	}

	listing, err := c.Compile(source)
	if err != nil {
		printer.Print(err)
		return 1
	}

	if err := os.WriteFile(output, []byte(listing), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "splc: %v\n", err)
		return 1
	}
	return 0
}

func parseColorMode(s string) diag.ColorMode {
	switch s {
	case "always":
		return diag.ColorAlways
	case "never":
		return diag.ColorNever
	default:
		return diag.ColorAuto
	}
}

func dumpTokens(source string, cfg *config.Config) error {
	toks, err := lexer.NewLexer([]rune(source), cfg).Tokenize()
	if err != nil {
		return err
	}
	for _, tok := range toks {
		fmt.Fprintf(os.Stderr, "%4d:%-3d %s\n", tok.Line, tok.Column, tok.Describe())
	}
	return nil
}
