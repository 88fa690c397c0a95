// Package ast defines the syntax tree for Rill programs.
// The node set is closed: every expression and statement variant is listed
// here, and consumers dispatch with type switches rather than virtual calls.
package ast

import (
	"fmt"
	"strings"
)

// Expr is implemented by all expression nodes.
type Expr interface{ isExpr() }

// Stmt is implemented by all statement nodes.
type Stmt interface{ isStmt() }

// ====== Expressions ======

// NumberLit is a numeric literal. All Rill numbers are carried as
// float64 and read as Float; Int arises only inside the optimizer.
type NumberLit struct {
	Value float64
}

// StringLit is a double-quoted string literal.
type StringLit struct {
	Value string
}

// VarRef references a variable by name.
type VarRef struct {
	Name string
}

// Binary is a binary operation. Op is the surface operator spelling:
// "+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "and", "or".
type Binary struct {
	Op  string
	LHS Expr
	RHS Expr
}

// Unary is a prefix operation: "-" or "not".
type Unary struct {
	Op      string
	Operand Expr
}

// Call invokes a named function.
type Call struct {
	Callee string
	Args   []Expr
}

func (*NumberLit) isExpr() {}
func (*StringLit) isExpr() {}
func (*VarRef) isExpr()    {}
func (*Binary) isExpr()    {}
func (*Unary) isExpr()     {}
func (*Call) isExpr()      {}

// ====== Statements ======

// Assign binds the value of an expression to a name.
type Assign struct {
	Name  string
	Value Expr
}

// ExprStmt evaluates an expression for its effect (or its value, when it
// is the last statement of a function body).
type ExprStmt struct {
	E Expr
}

// Block is an indented statement sequence.
type Block struct {
	Stmts []Stmt
}

// If is a conditional with an optional else arm. Chained elif clauses are
// desugared by the parser into a nested If in the Else position.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

// While loops over Body while Cond is truthy (non-zero).
type While struct {
	Cond Expr
	Body Stmt
}

// Return exits the enclosing function, optionally with a value.
type Return struct {
	Value Expr // nil for bare return
}

// Print writes a value through the runtime print helper.
type Print struct {
	Value Expr
}

func (*Assign) isStmt()   {}
func (*ExprStmt) isStmt() {}
func (*Block) isStmt()    {}
func (*If) isStmt()       {}
func (*While) isStmt()    {}
func (*Return) isStmt()   {}
func (*Print) isStmt()    {}

// ====== Top level ======

// Function is a named function definition.
type Function struct {
	Name   string
	Params []string
	Body   *Block
}

// Program is a whole parsed source file.
type Program struct {
	Functions []*Function
}

// Find returns the function with the given name, or nil.
func (p *Program) Find(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ====== Debug printing ======

// Dump renders a compact s-expression form of an expression, used by
// parser tests and the --parse debug flag.
func Dump(e Expr) string {
	switch n := e.(type) {
	case *NumberLit:
		return fmt.Sprintf("%g", n.Value)
	case *StringLit:
		return fmt.Sprintf("%q", n.Value)
	case *VarRef:
		return n.Name
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", n.Op, Dump(n.LHS), Dump(n.RHS))
	case *Unary:
		return fmt.Sprintf("(%s %s)", n.Op, Dump(n.Operand))
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = Dump(a)
		}
		return fmt.Sprintf("(call %s %s)", n.Callee, strings.Join(args, " "))
	default:
		return "<expr?>"
	}
}
