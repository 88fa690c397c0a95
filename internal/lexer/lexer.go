// Package lexer turns Rill source text into a token stream.
// Rill is layout-sensitive: block structure is carried by INDENT and
// DEDENT tokens computed from an indentation stack, the way Python does it.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer tokenizes one source file.
type Lexer struct {
	src    string
	lines  []string
	indent []int // indentation stack, always starts with 0
}

// New creates a lexer over the given source text.
func New(src string) *Lexer {
	return &Lexer{
		src:    src,
		lines:  strings.Split(src, "\n"),
		indent: []int{0},
	}
}

// Tokenize scans the whole input and returns the token stream.
// The stream always ends with trailing DEDENTs (if any are open) and EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token

	for i, line := range l.lines {
		lineno := i + 1

		if isBlank(line) {
			continue
		}

		level, body := splitIndent(line)
		layout, err := l.handleIndent(level, lineno)
		if err != nil {
			return nil, err
		}
		toks = append(toks, layout...)

		lineToks, err := l.scanLine(body, lineno, level+1)
		if err != nil {
			return nil, err
		}
		toks = append(toks, lineToks...)
		toks = append(toks, Token{Type: NEWLINE, Line: lineno, Column: len(line) + 1})
	}

	// Close any open blocks at end of input.
	last := len(l.lines)
	for len(l.indent) > 1 {
		l.indent = l.indent[:len(l.indent)-1]
		toks = append(toks, Token{Type: DEDENT, Line: last, Column: 1})
	}
	toks = append(toks, Token{Type: EOF, Line: last, Column: 1})

	return toks, nil
}

// handleIndent compares the line's indentation against the stack and
// emits INDENT/DEDENT tokens for the transitions.
func (l *Lexer) handleIndent(level, lineno int) ([]Token, error) {
	top := l.indent[len(l.indent)-1]

	switch {
	case level > top:
		l.indent = append(l.indent, level)
		return []Token{{Type: INDENT, Line: lineno, Column: 1}}, nil

	case level < top:
		var toks []Token
		for len(l.indent) > 1 && level < l.indent[len(l.indent)-1] {
			l.indent = l.indent[:len(l.indent)-1]
			toks = append(toks, Token{Type: DEDENT, Line: lineno, Column: 1})
		}
		if l.indent[len(l.indent)-1] != level {
			return nil, fmt.Errorf("line %d: unindent does not match any outer indentation level", lineno)
		}
		return toks, nil
	}

	return nil, nil
}

func (l *Lexer) scanLine(body string, lineno, startCol int) ([]Token, error) {
	var toks []Token
	i := 0

	for i < len(body) {
		c := body[i]
		col := startCol + i

		switch {
		case c == ' ' || c == '\t':
			i++

		case c == '#':
			// Comment runs to end of line.
			i = len(body)

		case isDigit(c):
			j := i
			for j < len(body) && (isDigit(body[j]) || body[j] == '.') {
				j++
			}
			toks = append(toks, Token{Type: NUMBER, Value: body[i:j], Line: lineno, Column: col})
			i = j

		case isIdentStart(c):
			j := i
			for j < len(body) && isIdentPart(body[j]) {
				j++
			}
			word := body[i:j]
			if kw, ok := keywords[word]; ok {
				toks = append(toks, Token{Type: kw, Value: word, Line: lineno, Column: col})
			} else {
				toks = append(toks, Token{Type: IDENT, Value: word, Line: lineno, Column: col})
			}
			i = j

		case c == '"':
			j := i + 1
			for j < len(body) && body[j] != '"' {
				j++
			}
			if j >= len(body) {
				return nil, fmt.Errorf("line %d: unterminated string literal", lineno)
			}
			toks = append(toks, Token{Type: STRING, Value: body[i+1 : j], Line: lineno, Column: col})
			i = j + 1

		default:
			tok, width, err := scanOperator(body[i:], lineno, col)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += width
		}
	}

	return toks, nil
}

func scanOperator(rest string, lineno, col int) (Token, int, error) {
	if len(rest) >= 2 {
		switch rest[:2] {
		case "==":
			return Token{Type: EQ, Value: "==", Line: lineno, Column: col}, 2, nil
		case "!=":
			return Token{Type: NE, Value: "!=", Line: lineno, Column: col}, 2, nil
		case "<=":
			return Token{Type: LE, Value: "<=", Line: lineno, Column: col}, 2, nil
		case ">=":
			return Token{Type: GE, Value: ">=", Line: lineno, Column: col}, 2, nil
		}
	}

	var ty TokenType
	switch rest[0] {
	case '+':
		ty = PLUS
	case '-':
		ty = MINUS
	case '*':
		ty = STAR
	case '/':
		ty = SLASH
	case '%':
		ty = PERCENT
	case '=':
		ty = ASSIGN
	case '<':
		ty = LT
	case '>':
		ty = GT
	case '(':
		ty = LPAREN
	case ')':
		ty = RPAREN
	case ',':
		ty = COMMA
	case ':':
		ty = COLON
	default:
		return Token{}, 0, fmt.Errorf("line %d: unexpected character %q", lineno, rune(rest[0]))
	}

	return Token{Type: ty, Value: rest[:1], Line: lineno, Column: col}, 1, nil
}

func isBlank(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// splitIndent measures leading whitespace and returns the indentation
// width together with the remaining text. Tabs count as one column each.
func splitIndent(line string) (int, string) {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i, line[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
