// Package parser builds a Rill syntax tree from a token stream.
// The grammar is statement based: a source file is a sequence of function
// definitions, each holding an indented suite of statements. Parse errors
// are fatal; the semantic core only ever sees a well-formed tree.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/lexer"
)

// Parser is a recursive-descent parser with single-token lookahead.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// New creates a parser over a token stream produced by the lexer.
func New(toks []lexer.Token) *Parser {
	return &Parser{toks: toks}
}

// ParseSource tokenizes and parses a whole source file.
func ParseSource(src string) (*ast.Program, error) {
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(toks).Parse()
}

// Parse consumes the stream and returns the program. A source file is a
// sequence of function definitions.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}

	for !p.check(lexer.EOF) {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}

	return prog, nil
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(lexer.DEF, "expected 'def'"); err != nil {
		return nil, err
	}

	name, err := p.expect(lexer.IDENT, "expected function name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}

	var params []string
	if !p.check(lexer.RPAREN) {
		for {
			param, err := p.expect(lexer.IDENT, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Value)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}

	if _, err := p.expect(lexer.RPAREN, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON, "expected ':' after function signature"); err != nil {
		return nil, err
	}

	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}

	return &ast.Function{Name: name.Value, Params: params, Body: body}, nil
}

// parseSuite parses NEWLINE INDENT statement+ DEDENT.
func (p *Parser) parseSuite() (*ast.Block, error) {
	if _, err := p.expect(lexer.NEWLINE, "expected newline before block"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT, "expected indented block"); err != nil {
		return nil, err
	}

	block := &ast.Block{}
	for !p.check(lexer.DEDENT) && !p.check(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}

	p.match(lexer.DEDENT)
	return block, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.check(lexer.IF):
		return p.parseIf()
	case p.check(lexer.WHILE):
		return p.parseWhile()
	case p.check(lexer.RETURN):
		return p.parseReturn()
	case p.check(lexer.PRINT):
		return p.parsePrint()
	default:
		return p.parseSimple()
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	p.advance() // if / elif

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON, "expected ':' after condition"); err != nil {
		return nil, err
	}

	then, err := p.parseSuite()
	if err != nil {
		return nil, err
	}

	node := &ast.If{Cond: cond, Then: then}

	switch {
	case p.check(lexer.ELIF):
		// elif parses exactly like a nested if in the else arm.
		elseStmt, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		node.Else = elseStmt

	case p.match(lexer.ELSE):
		if _, err := p.expect(lexer.COLON, "expected ':' after else"); err != nil {
			return nil, err
		}
		elseBlock, err := p.parseSuite()
		if err != nil {
			return nil, err
		}
		node.Else = elseBlock
	}

	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	p.advance()

	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON, "expected ':' after condition"); err != nil {
		return nil, err
	}

	body, err := p.parseSuite()
	if err != nil {
		return nil, err
	}

	return &ast.While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	p.advance()

	node := &ast.Return{}
	if !p.check(lexer.NEWLINE) {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Value = value
	}

	if _, err := p.expect(lexer.NEWLINE, "expected newline after return"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parsePrint() (ast.Stmt, error) {
	p.advance()

	paren := p.match(lexer.LPAREN)
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if paren {
		if _, err := p.expect(lexer.RPAREN, "expected ')' after print argument"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.NEWLINE, "expected newline after print"); err != nil {
		return nil, err
	}
	return &ast.Print{Value: value}, nil
}

// parseSimple handles assignment and bare expression statements. The two
// are disambiguated by one token of lookahead after an identifier.
func (p *Parser) parseSimple() (ast.Stmt, error) {
	if p.check(lexer.IDENT) && p.checkAt(1, lexer.ASSIGN) {
		name := p.advance()
		p.advance() // =

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.NEWLINE, "expected newline after assignment"); err != nil {
			return nil, err
		}
		return &ast.Assign{Name: name.Value, Value: value}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE, "expected newline after expression"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{E: expr}, nil
}

// ====== Expressions ======
//
// Precedence, loosest first: or, and, equality, comparison, term, factor,
// unary, primary.

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	expr, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.OR) {
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: "or", LHS: expr, RHS: rhs}
	}
	return expr, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.AND) {
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: "and", LHS: expr, RHS: rhs}
	}
	return expr, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.EQ) || p.check(lexer.NE) {
		op := p.advance().Value
		rhs, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op, LHS: expr, RHS: rhs}
	}
	return expr, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.LT) || p.check(lexer.LE) || p.check(lexer.GT) || p.check(lexer.GE) {
		op := p.advance().Value
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op, LHS: expr, RHS: rhs}
	}
	return expr, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.PLUS) || p.check(lexer.MINUS) {
		op := p.advance().Value
		rhs, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op, LHS: expr, RHS: rhs}
	}
	return expr, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.STAR) || p.check(lexer.SLASH) || p.check(lexer.PERCENT) {
		op := p.advance().Value
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Op: op, LHS: expr, RHS: rhs}
	}
	return expr, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(lexer.MINUS) || p.check(lexer.NOT) {
		op := p.advance().Value
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorf("invalid number literal %q", tok.Value)
		}
		return &ast.NumberLit{Value: v}, nil

	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Value: tok.Value}, nil

	case lexer.TRUE:
		p.advance()
		return &ast.NumberLit{Value: 1}, nil

	case lexer.FALSE:
		p.advance()
		return &ast.NumberLit{Value: 0}, nil

	case lexer.IDENT:
		p.advance()
		if p.match(lexer.LPAREN) {
			call := &ast.Call{Callee: tok.Value}
			if !p.check(lexer.RPAREN) {
				for {
					arg, err := p.parseExpression()
					if err != nil {
						return nil, err
					}
					call.Args = append(call.Args, arg)
					if !p.match(lexer.COMMA) {
						break
					}
				}
			}
			if _, err := p.expect(lexer.RPAREN, "expected ')' after arguments"); err != nil {
				return nil, err
			}
			return call, nil
		}
		return &ast.VarRef{Name: tok.Value}, nil

	case lexer.LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	return nil, p.errorf("unexpected token %v", tok)
}

// ====== Token stream helpers ======

func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return lexer.Token{Type: lexer.EOF}
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) checkAt(offset int, t lexer.TokenType) bool {
	i := p.pos + offset
	return i < len(p.toks) && p.toks[i].Type == t
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t lexer.TokenType, msg string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorf("%s, got %v", msg, p.peek())
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	tok := p.peek()
	return fmt.Errorf("line %d: %s", tok.Line, fmt.Sprintf(format, args...))
}
