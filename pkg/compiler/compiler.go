// Package compiler runs the full pipeline: scan, parse, analyze,
// lower, number. Each phase either succeeds or returns the first
// diag.Error it hit; nothing downstream runs after a failure.
package compiler

import (
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/codegen"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/config"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/lexer"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/parser"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/semantics"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/target"
)

type Compiler struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Compiler {
	return &Compiler{cfg: cfg}
}

// Parse runs the front end only: scan and parse.
func (c *Compiler) Parse(source string) (*ast.Program, error) {
	lex := lexer.NewLexer([]rune(source), c.cfg)
	p, err := parser.NewParser(lex, c.cfg)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// Analyze parses and name-checks the source.
func (c *Compiler) Analyze(source string) (*semantics.Resolved, error) {
	prog, err := c.Parse(source)
	if err != nil {
		return nil, err
	}
	return semantics.Analyze(prog)
}

// Compile turns SPL source into the numbered target listing.
func (c *Compiler) Compile(source string) (string, error) {
	res, err := c.Analyze(source)
	if err != nil {
		return "", err
	}
	instrs, err := codegen.Generate(res)
	if err != nil {
		return "", err
	}
	return target.Resolve(instrs, c.cfg.LineStart, c.cfg.LineStep)
}
