package lexer

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

// String returns the display name of the token type.
func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(tt))
}

const (
	// Structural tokens.
	EOF TokenType = iota
	NEWLINE
	INDENT
	DEDENT

	// Literals and identifiers.
	NUMBER
	STRING
	IDENT

	// Keywords.
	DEF
	IF
	ELIF
	ELSE
	WHILE
	RETURN
	PRINT
	TRUE
	FALSE
	AND
	OR
	NOT

	// Operators and punctuation.
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN
	EQ
	NE
	LT
	LE
	GT
	GE
	LPAREN
	RPAREN
	COMMA
	COLON
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	NEWLINE: "NEWLINE",
	INDENT:  "INDENT",
	DEDENT:  "DEDENT",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	IDENT:   "IDENT",
	DEF:     "def",
	IF:      "if",
	ELIF:    "elif",
	ELSE:    "else",
	WHILE:   "while",
	RETURN:  "return",
	PRINT:   "print",
	TRUE:    "true",
	FALSE:   "false",
	AND:     "and",
	OR:      "or",
	NOT:     "not",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	ASSIGN:  "=",
	EQ:      "==",
	NE:      "!=",
	LT:      "<",
	LE:      "<=",
	GT:      ">",
	GE:      ">=",
	LPAREN:  "(",
	RPAREN:  ")",
	COMMA:   ",",
	COLON:   ":",
}

var keywords = map[string]TokenType{
	"def":    DEF,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"while":  WHILE,
	"return": RETURN,
	"print":  PRINT,
	"true":   TRUE,
	"false":  FALSE,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
}

// Token is a single lexical unit with its source position.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}
