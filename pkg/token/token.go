package token

type Type int

const (
	EOF Type = iota

	// Literals
	Name
	Number
	String

	// Program structure keywords
	Glob
	Proc
	Func
	Main
	Var
	Local
	Return

	// Statement keywords
	Halt
	Print
	If
	Else
	While
	Do
	Until

	// Unary operators
	Neg
	Not

	// Binary operators
	Eq
	Gt
	Or
	And
	Plus
	Minus
	Mult
	Div

	// Delimiters
	LParen
	RParen
	LBrace
	RBrace
	Semi
	Assign
)

var KeywordMap = map[string]Type{
	"glob":   Glob,
	"proc":   Proc,
	"func":   Func,
	"main":   Main,
	"var":    Var,
	"local":  Local,
	"return": Return,
	"halt":   Halt,
	"print":  Print,
	"if":     If,
	"else":   Else,
	"while":  While,
	"do":     Do,
	"until":  Until,
	"neg":    Neg,
	"not":    Not,
	"eq":     Eq,
	"or":     Or,
	"and":    And,
	"plus":   Plus,
	"minus":  Minus,
	"mult":   Mult,
	"div":    Div,
}

var typeNames = map[Type]string{
	EOF:    "end of input",
	Name:   "name",
	Number: "number",
	String: "string",
	Gt:     "'>'",
	LParen: "'('",
	RParen: "')'",
	LBrace: "'{'",
	RBrace: "'}'",
	Semi:   "';'",
	Assign: "'='",
}

func init() {
	for kw, typ := range KeywordMap {
		typeNames[typ] = "'" + kw + "'"
	}
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown token"
}

// IsBinaryOp reports whether t is one of the eight TERM binary operators.
func (t Type) IsBinaryOp() bool {
	return t == Eq || t == Gt || t == Or || t == And ||
		t == Plus || t == Minus || t == Mult || t == Div
}

// IsUnaryOp reports whether t is a TERM unary operator.
func (t Type) IsUnaryOp() bool { return t == Neg || t == Not }

type Token struct {
	Type   Type
	Value  string
	Line   int
	Column int
	Len    int
}

// Describe renders the token the way diagnostics refer to it, including
// the lexeme for literals and names.
func (t Token) Describe() string {
	switch t.Type {
	case Name:
		return "name '" + t.Value + "'"
	case Number:
		return "number " + t.Value
	case String:
		return "string \"" + t.Value + "\""
	default:
		return t.Type.String()
	}
}
