// Package parser builds the AST from a token stream by predictive
// recursive descent. The grammar is LL(1): terms are fully
// parenthesised, so a single token of lookahead decides every
// production. The first violation aborts parsing with a syntax
// diag.Error; there is no recovery and no partial tree.
package parser

import (
	"strconv"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/ast"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/config"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

// Stream supplies tokens one at a time. The lexer satisfies it; tests
// may substitute a canned stream.
type Stream interface {
	Next() (token.Token, error)
}

type Parser struct {
	stream Stream
	cur    token.Token
	peek   token.Token
	cfg    *config.Config
}

func NewParser(stream Stream, cfg *config.Config) (*Parser, error) {
	p := &Parser{stream: stream, cfg: cfg}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.stream.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

// expect consumes the current token if it has the wanted type, else
// fails with the standard expected/found error. A closing delimiter
// missing at end of input is reported as unmatched.
func (p *Parser) expect(typ token.Type, what string) (token.Token, error) {
	if p.cur.Type != typ {
		if p.cur.Type == token.EOF && (typ == token.RBrace || typ == token.RParen) {
			return token.Token{}, diag.Syntaxf(diag.UnmatchedDelimiter, p.cur,
				"missing %s before end of input", what)
		}
		return token.Token{}, diag.Expected(p.cur, what)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

// Parse consumes the whole stream and returns the program. Anything
// after the closing brace of main is an error.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{Token: p.cur}

	if _, err := p.expect(token.Glob, "'glob'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	globals, err := p.parseVariables()
	if err != nil {
		return nil, err
	}
	prog.Globals = globals
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Proc, "'proc'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	for p.cur.Type == token.Name {
		def, err := p.parseProcDef()
		if err != nil {
			return nil, err
		}
		prog.Procs = append(prog.Procs, def)
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Func, "'func'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	for p.cur.Type == token.Name {
		def, err := p.parseFuncDef()
		if err != nil {
			return nil, err
		}
		prog.Funcs = append(prog.Funcs, def)
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}

	main, err := p.parseMain()
	if err != nil {
		return nil, err
	}
	prog.Main = main

	if p.cur.Type != token.EOF {
		return nil, diag.Expected(p.cur, "end of input")
	}
	return prog, nil
}

// parseVariables reads names until the closing brace. Global and main
// variable lists are unbounded.
func (p *Parser) parseVariables() ([]ast.Name, error) {
	var names []ast.Name
	for p.cur.Type == token.Name {
		names = append(names, ast.Name{Value: p.cur.Value, Token: p.cur})
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// parseMaxThree reads a parameter or local list, capped at three names.
func (p *Parser) parseMaxThree(stop token.Type, what string) ([]ast.Name, error) {
	var names []ast.Name
	for p.cur.Type == token.Name {
		if len(names) == config.MaxParams {
			return nil, diag.Syntaxf(diag.ListTooLong, p.cur,
				"%s list may hold at most %d names", what, config.MaxParams)
		}
		names = append(names, ast.Name{Value: p.cur.Value, Token: p.cur})
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Type != stop {
		return nil, diag.Expected(p.cur, stop.String())
	}
	return names, nil
}

func (p *Parser) parseProcDef() (*ast.ProcDef, error) {
	name, params, locals, body, err := p.parseDefHeader()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ast.ProcDef{Name: name, Params: params, Locals: locals, Body: body}, nil
}

func (p *Parser) parseFuncDef() (*ast.FuncDef, error) {
	name, params, locals, body, err := p.parseDefHeader()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi, "';'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Return, "'return'"); err != nil {
		return nil, err
	}
	result, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ast.FuncDef{Name: name, Params: params, Locals: locals, Body: body, Result: result}, nil
}

// parseDefHeader parses the part shared by procedures and functions:
// NAME ( params ) { local { locals } ALGO
func (p *Parser) parseDefHeader() (ast.Name, []ast.Name, []ast.Name, []ast.Instr, error) {
	nameTok, err := p.expect(token.Name, "name")
	if err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	name := ast.Name{Value: nameTok.Value, Token: nameTok}

	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	params, err := p.parseMaxThree(token.RParen, "parameter")
	if err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return ast.Name{}, nil, nil, nil, err
	}

	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	if _, err := p.expect(token.Local, "'local'"); err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	locals, err := p.parseMaxThree(token.RBrace, "local")
	if err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return ast.Name{}, nil, nil, nil, err
	}

	body, err := p.parseAlgo()
	if err != nil {
		return ast.Name{}, nil, nil, nil, err
	}
	return name, params, locals, body, nil
}

func (p *Parser) parseMain() (*ast.MainBlock, error) {
	mainTok, err := p.expect(token.Main, "'main'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Var, "'var'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	locals, err := p.parseVariables()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	body, err := p.parseAlgo()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ast.MainBlock{Locals: locals, Body: body, Token: mainTok}, nil
}

// parseAlgo parses one or more instructions separated by semicolons.
// It stops before a semicolon that introduces a function's return
// clause, and before the enclosing closing brace.
func (p *Parser) parseAlgo() ([]ast.Instr, error) {
	var body []ast.Instr
	for {
		instr, err := p.parseInstr()
		if err != nil {
			return nil, err
		}
		body = append(body, instr)
		if p.cur.Type != token.Semi {
			if startsInstr(p.cur.Type) {
				return nil, diag.Syntaxf(diag.MissingSeparator, p.cur,
					"instructions must be separated by ';'")
			}
			return body, nil
		}
		if p.peek.Type == token.Return {
			return body, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func startsInstr(t token.Type) bool {
	switch t {
	case token.Halt, token.Print, token.While, token.Do, token.If, token.Name:
		return true
	}
	return false
}

func (p *Parser) parseInstr() (ast.Instr, error) {
	switch p.cur.Type {
	case token.Halt:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Halt{Token: tok}, nil

	case token.Print:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		out, err := p.parseOutput()
		if err != nil {
			return nil, err
		}
		return &ast.Print{Value: out, Token: tok}, nil

	case token.While:
		return p.parseWhile()

	case token.Do:
		return p.parseDoUntil()

	case token.If:
		return p.parseIf()

	case token.Name:
		switch p.peek.Type {
		case token.LParen:
			callee := ast.Name{Value: p.cur.Value, Token: p.cur}
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseInput()
			if err != nil {
				return nil, err
			}
			return &ast.CallStmt{Callee: callee, Args: args}, nil
		case token.Assign:
			return p.parseAssign()
		default:
			return nil, diag.Expected(p.peek, "'(' or '='")
		}
	}
	return nil, diag.Expected(p.cur, "instruction")
}

func (p *Parser) parseAssign() (ast.Instr, error) {
	target := ast.Name{Value: p.cur.Value, Token: p.cur}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "'='"); err != nil {
		return nil, err
	}

	if p.cur.Type == token.Name && p.peek.Type == token.LParen {
		callee := ast.Name{Value: p.cur.Value, Token: p.cur}
		if err := p.advance(); err != nil {
			return nil, err
		}
		args, err := p.parseInput()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Target: target, Call: &ast.CallExpr{Callee: callee, Args: args}}, nil
	}

	rhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Target: target, Rhs: rhs}, nil
}

func (p *Parser) parseWhile() (ast.Instr, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Token: tok}, nil
}

func (p *Parser) parseDoUntil() (ast.Instr, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Until, "'until'"); err != nil {
		return nil, err
	}
	cond, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &ast.DoUntil{Body: body, Cond: cond, Token: tok}, nil
}

func (p *Parser) parseIf() (ast.Instr, error) {
	tok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Cond: cond, Then: then, Token: tok}
	if p.cur.Type == token.Else {
		if err := p.advance(); err != nil {
			return nil, err
		}
		node.Else, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// parseBlock parses `{ ALGO }`.
func (p *Parser) parseBlock() ([]ast.Instr, error) {
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.parseAlgo()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return body, nil
}

// parseInput parses `( ATOM* )`. The argument list is not capped here;
// arity against the callee's parameters is a semantic check.
func (p *Parser) parseInput() ([]ast.Atom, error) {
	if _, err := p.expect(token.LParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Atom
	for p.cur.Type == token.Name || p.cur.Type == token.Number {
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, atom)
	}
	if _, err := p.expect(token.RParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseOutput() (ast.Output, error) {
	if p.cur.Type == token.String {
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.StringLit{Value: tok.Value, Token: tok}, nil
	}
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return atom.(ast.Output), nil
}

func (p *Parser) parseTerm() (ast.Term, error) {
	switch p.cur.Type {
	case token.Name, token.Number:
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &ast.AtomRef{Atom: atom}, nil

	case token.LParen:
		open := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type.IsUnaryOp() {
			op := p.cur
			if err := p.advance(); err != nil {
				return nil, err
			}
			operand, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RParen, "')'"); err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Op: op.Type, Operand: operand, Token: open}, nil
		}
		left, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if !p.cur.Type.IsBinaryOp() {
			return nil, diag.Expected(p.cur, "binary operator")
		}
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: op.Type, Left: left, Right: right, Token: open}, nil
	}
	return nil, diag.Expected(p.cur, "term")
}

func (p *Parser) parseAtom() (ast.Atom, error) {
	switch p.cur.Type {
	case token.Name:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.VarRef{Name: ast.Name{Value: tok.Value, Token: tok}}, nil
	case token.Number:
		tok := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(tok.Value)
		if err != nil {
			return nil, diag.Syntaxf(diag.UnexpectedToken, tok, "number %q out of range", tok.Value)
		}
		return &ast.NumberLit{Value: n, Token: tok}, nil
	}
	return nil, diag.Expected(p.cur, "atom")
}
