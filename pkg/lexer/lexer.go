// Package lexer turns SPL source text into a token stream. Tokens are
// pulled one at a time; the first malformed input aborts the scan with
// a lexical diag.Error.
package lexer

import (
	"unicode"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/config"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/diag"
	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

type Lexer struct {
	source []rune
	pos    int
	line   int
	column int
	cfg    *config.Config
}

func NewLexer(source []rune, cfg *config.Config) *Lexer {
	return &Lexer{source: source, line: 1, column: 1, cfg: cfg}
}

// Next scans and returns the next token. After the source is exhausted
// it keeps returning EOF.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	startCol, startLine := l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startCol, startLine), nil
	}

	ch := l.peek()
	switch {
	case ch >= 'a' && ch <= 'z':
		return l.identifierOrKeyword(startCol, startLine)
	case unicode.IsDigit(ch):
		return l.numberLiteral(startCol, startLine)
	case ch == '"':
		return l.stringLiteral(startCol, startLine)
	}

	l.advance()
	switch ch {
	case '(':
		return l.makeToken(token.LParen, "", startCol, startLine), nil
	case ')':
		return l.makeToken(token.RParen, "", startCol, startLine), nil
	case '{':
		return l.makeToken(token.LBrace, "", startCol, startLine), nil
	case '}':
		return l.makeToken(token.RBrace, "", startCol, startLine), nil
	case ';':
		return l.makeToken(token.Semi, "", startCol, startLine), nil
	case '=':
		return l.makeToken(token.Assign, "", startCol, startLine), nil
	case '>':
		return l.makeToken(token.Gt, "", startCol, startLine), nil
	}
	return token.Token{}, diag.Lexicalf(diag.InvalidCharacter, startLine, startCol,
		"unexpected character %q", string(ch))
}

// Tokenize drains the stream into a slice ending with EOF. The driver
// uses it for -dump-tokens; the parser pulls tokens one at a time.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	ch := l.source[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch := l.peek()
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) makeToken(typ token.Type, value string, startCol, startLine int) token.Token {
	length := len(value)
	if length == 0 && typ != token.EOF {
		length = 1
	}
	return token.Token{Type: typ, Value: value, Line: startLine, Column: startCol, Len: length}
}

// identifierOrKeyword scans a NAME: one or more lowercase letters
// followed by optional digits. A letter after the digit suffix makes
// the whole run malformed rather than two adjacent names.
func (l *Lexer) identifierOrKeyword(startCol, startLine int) (token.Token, error) {
	var buf []rune
	for !l.isAtEnd() && l.peek() >= 'a' && l.peek() <= 'z' {
		buf = append(buf, l.advance())
	}
	sawDigits := false
	for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
		sawDigits = true
		buf = append(buf, l.advance())
	}
	if sawDigits && !l.isAtEnd() && l.peek() >= 'a' && l.peek() <= 'z' {
		for !l.isAtEnd() && (unicode.IsDigit(l.peek()) || (l.peek() >= 'a' && l.peek() <= 'z')) {
			buf = append(buf, l.advance())
		}
		return token.Token{}, diag.Lexicalf(diag.MalformedIdentifier, startLine, startCol,
			"name %q mixes letters after digits; names match [a-z]+[0-9]*", string(buf))
	}

	word := string(buf)
	if typ, ok := token.KeywordMap[word]; ok {
		return l.makeToken(typ, word, startCol, startLine), nil
	}
	return l.makeToken(token.Name, word, startCol, startLine), nil
}

// numberLiteral scans `0 | [1-9][0-9]*`; a digit after a leading zero
// is malformed.
func (l *Lexer) numberLiteral(startCol, startLine int) (token.Token, error) {
	var buf []rune
	buf = append(buf, l.advance())
	if buf[0] == '0' {
		if !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			return token.Token{}, diag.Lexicalf(diag.MalformedNumber, startLine, startCol,
				"leading zeros are not allowed")
		}
	} else {
		for !l.isAtEnd() && unicode.IsDigit(l.peek()) {
			buf = append(buf, l.advance())
		}
	}
	return l.makeToken(token.Number, string(buf), startCol, startLine), nil
}

func (l *Lexer) stringLiteral(startCol, startLine int) (token.Token, error) {
	l.advance() // opening quote
	var buf []rune
	for !l.isAtEnd() && l.peek() != '"' {
		ch := l.advance()
		if ch == '\n' {
			return token.Token{}, diag.Lexicalf(diag.MalformedString, startLine, startCol,
				"unterminated string literal")
		}
		if !isAlnum(ch) {
			return token.Token{}, diag.Lexicalf(diag.MalformedString, startLine, startCol,
				"string literals may only contain letters and digits, found %q", string(ch))
		}
		buf = append(buf, ch)
		if len(buf) > config.MaxStringLength {
			return token.Token{}, diag.Lexicalf(diag.MalformedString, startLine, startCol,
				"string literal exceeds maximum length of %d characters", config.MaxStringLength)
		}
	}
	if l.isAtEnd() {
		return token.Token{}, diag.Lexicalf(diag.MalformedString, startLine, startCol,
			"unterminated string literal")
	}
	l.advance() // closing quote
	tok := l.makeToken(token.String, string(buf), startCol, startLine)
	tok.Len = len(buf) + 2
	return tok, nil
}

func isAlnum(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
