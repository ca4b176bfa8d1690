// Package diag defines the error values shared by every compiler phase
// and the terminal printer the driver uses to report them.
package diag

import (
	"fmt"

	"github.com/johnpeterprogramming/SPLCompilerProject/pkg/token"
)

// Phase identifies which compiler phase produced an error.
type Phase int

const (
	Lexical Phase = iota
	Syntax
	Semantic
	CodeGen
)

func (p Phase) String() string {
	switch p {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case CodeGen:
		return "codegen"
	default:
		return "unknown"
	}
}

// Kind is the closed set of error kinds across all phases.
type Kind int

const (
	// Lexical
	InvalidCharacter Kind = iota
	MalformedNumber
	MalformedString
	MalformedIdentifier

	// Syntax
	UnexpectedToken
	UnmatchedDelimiter
	MissingSeparator
	ListTooLong

	// Semantic
	DuplicateDeclaration
	ReservedName
	UndeclaredName
	CategoryMismatch
	ArityMismatch
	Recursion

	// Code generation (internal invariant violations only)
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidCharacter:
		return "invalid character"
	case MalformedNumber:
		return "malformed number"
	case MalformedString:
		return "malformed string"
	case MalformedIdentifier:
		return "malformed identifier"
	case UnexpectedToken:
		return "unexpected token"
	case UnmatchedDelimiter:
		return "unmatched delimiter"
	case MissingSeparator:
		return "missing separator"
	case ListTooLong:
		return "list too long"
	case DuplicateDeclaration:
		return "duplicate declaration"
	case ReservedName:
		return "reserved name"
	case UndeclaredName:
		return "undeclared name"
	case CategoryMismatch:
		return "category mismatch"
	case ArityMismatch:
		return "arity mismatch"
	case Recursion:
		return "recursive call"
	case Internal:
		return "internal error"
	default:
		return "error"
	}
}

// Error is the single error value every phase returns. Each phase owns a
// closed subset of kinds; the driver reports the first Error it sees and
// aborts, so no accumulation happens anywhere.
type Error struct {
	Phase   Phase
	Kind    Kind
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error at %d:%d: %s: %s", e.Phase, e.Line, e.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error: %s: %s", e.Phase, e.Kind, e.Message)
}

func Lexicalf(kind Kind, line, col int, format string, args ...interface{}) *Error {
	return &Error{Phase: Lexical, Kind: kind, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// Syntaxf builds a syntax error positioned at the offending token.
func Syntaxf(kind Kind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Phase: Syntax, Kind: kind, Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

// Expected is the standard "expected X, found Y" syntax error.
func Expected(tok token.Token, what string) *Error {
	return Syntaxf(UnexpectedToken, tok, "expected %s, found %s", what, tok.Describe())
}

func Semanticf(kind Kind, tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Phase: Semantic, Kind: kind, Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf(format, args...)}
}

// Internalf signals a code-generation invariant violation. It is a bug
// in the compiler, never a user-facing condition.
func Internalf(format string, args ...interface{}) *Error {
	return &Error{Phase: CodeGen, Kind: Internal, Message: fmt.Sprintf(format, args...)}
}
