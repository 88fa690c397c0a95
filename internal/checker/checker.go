// Package checker implements flow-sensitive type checking for Rill
// programs. Checking is permissive: diagnostics accumulate as plain
// strings and never abort the pipeline, and the surface language is
// numeric by default (parameters are assumed Float).
package checker

import (
	"fmt"

	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/types"
)

// Result is the outcome of checking one node: the computed type, or nil
// when the check failed. Failures short-circuit the enclosing expression
// or statement only; the surrounding block keeps going.
type Result struct {
	Type *types.Type
}

func ok(t *types.Type) Result { return Result{Type: t} }

func failed() Result { return Result{} }

// Failed reports whether the check produced no type.
func (r Result) Failed() bool { return r.Type == nil }

// Report is the outcome of checking a whole program.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether checking produced no errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// TypeChecker walks a parsed program, maintaining a lexical environment
// and a flow-sensitive inference context, and accumulates diagnostics.
// One checker instance checks one program.
type TypeChecker struct {
	env  *types.Environment
	flow *InferenceContext
	sigs map[string]*types.FunctionData

	errors   []string
	warnings []string
}

// New creates a checker with the builtin bindings in place. The only
// builtin is print, which accepts any single argument.
func New() *TypeChecker {
	tc := &TypeChecker{
		env:  types.NewEnvironment(),
		flow: NewInferenceContext(),
		sigs: map[string]*types.FunctionData{},
	}
	tc.env.Define("print", types.NewFunction([]*types.Type{types.NewUnknown()}, types.NewVoid()))
	return tc
}

// Signatures returns the inferred signature of every checked function,
// keyed by name. Optimization passes read this after checking.
func (tc *TypeChecker) Signatures() map[string]*types.FunctionData {
	return tc.sigs
}

// CheckProgram checks a whole program in two passes. Pass one forward
// declares every function with Unknown parameter and return types, so
// bodies can reference functions defined later. Pass two checks each
// body in turn, concretizing the signature as it goes.
func (tc *TypeChecker) CheckProgram(prog *ast.Program) *Report {
	for _, fn := range prog.Functions {
		params := make([]*types.Type, len(fn.Params))
		for i := range params {
			params[i] = types.NewUnknown()
		}
		t := types.NewFunction(params, types.NewUnknown())
		tc.env.Define(fn.Name, t)
		tc.sigs[fn.Name] = t.Function()
	}

	for _, fn := range prog.Functions {
		tc.checkFunction(fn)
	}

	return &Report{Errors: tc.errors, Warnings: tc.warnings}
}

func (tc *TypeChecker) checkFunction(fn *ast.Function) {
	sig := tc.sigs[fn.Name]

	tc.env.PushScope()
	tc.flow = NewInferenceContext()

	// Parameters carry no type syntax; the language is numeric by
	// default, so every parameter starts as Float.
	for i, name := range fn.Params {
		p := types.NewFloat()
		tc.env.Define(name, p)
		tc.flow.Refine(name, p.Clone())
		sig.Params[i] = p.Clone()
	}

	r := tc.checkStmt(fn.Body)

	ret := types.NewVoid()
	if !r.Failed() && !r.Type.IsVoid() {
		ret = r.Type.Clone()
	}
	sig.Return = ret

	tc.env.PopScope()
}

// ====== Statements ======

// checkStmt returns the statement's result type. Most statements yield
// Void; an expression statement and return yield their value's type, and
// a block yields the type of its last non-void statement.
func (tc *TypeChecker) checkStmt(s ast.Stmt) Result {
	switch n := s.(type) {
	case *ast.Block:
		return tc.checkBlock(n)
	case *ast.Assign:
		return tc.checkAssign(n)
	case *ast.ExprStmt:
		return tc.checkExpr(n.E)
	case *ast.If:
		return tc.checkIf(n)
	case *ast.While:
		return tc.checkWhile(n)
	case *ast.Return:
		if n.Value == nil {
			return ok(types.NewVoid())
		}
		return tc.checkExpr(n.Value)
	case *ast.Print:
		if r := tc.checkExpr(n.Value); r.Failed() {
			return failed()
		}
		return ok(types.NewVoid())
	default:
		tc.errorf("Unknown statement")
		return failed()
	}
}

func (tc *TypeChecker) checkBlock(b *ast.Block) Result {
	last := ok(types.NewVoid())
	for _, s := range b.Stmts {
		// One bad statement never aborts the rest of the block.
		r := tc.checkStmt(s)
		if !r.Failed() && !r.Type.IsVoid() {
			last = r
		}
	}
	return last
}

func (tc *TypeChecker) checkAssign(a *ast.Assign) Result {
	r := tc.checkExpr(a.Value)
	if r.Failed() {
		return failed()
	}
	if r.Type.IsVoid() {
		tc.warnf("Variable '%s' is assigned a call that returns no value", a.Name)
	}

	if existing := tc.lookupVariable(a.Name); existing != nil {
		// Reassignment. A type error, not a redefinition error; the
		// established type wins and is not re-refined.
		if !existing.AssignableFrom(r.Type) {
			tc.errorf("Type error in assignment to variable '%s': expected %s, got %s", a.Name, existing, r.Type)
			return failed()
		}
	} else {
		tc.env.Define(a.Name, r.Type.Clone())
		tc.flow.Refine(a.Name, r.Type.Clone())
	}

	tc.flow.MarkModified(a.Name)
	return ok(types.NewVoid())
}

func (tc *TypeChecker) checkIf(n *ast.If) Result {
	if !tc.checkCondition(n.Cond) {
		return failed()
	}

	base := tc.flow
	thenCtx := base.Clone()
	elseCtx := base.Clone()

	tc.flow = thenCtx
	tc.checkStmt(n.Then)
	thenCtx = tc.flow

	tc.flow = elseCtx
	if n.Else != nil {
		tc.checkStmt(n.Else)
	}
	elseCtx = tc.flow

	tc.flow = Merge(thenCtx, elseCtx)
	return ok(types.NewVoid())
}

func (tc *TypeChecker) checkWhile(n *ast.While) Result {
	if !tc.checkCondition(n.Cond) {
		return failed()
	}

	// The body is checked once against the live context. Types learned
	// only on later iterations are not visible; no fixed point is run.
	tc.checkStmt(n.Body)
	return ok(types.NewVoid())
}

// checkCondition requires a numeric or boolean condition (0.0 reads as
// false). A failed condition short-circuits the enclosing statement.
func (tc *TypeChecker) checkCondition(e ast.Expr) bool {
	r := tc.checkExpr(e)
	if r.Failed() {
		return false
	}
	if !r.Type.IsNumeric() && !r.Type.IsBool() && !r.Type.IsUnknown() {
		tc.errorf("Condition must be numeric or boolean, got %s", r.Type)
		return false
	}
	return true
}

// ====== Expressions ======

func (tc *TypeChecker) checkExpr(e ast.Expr) Result {
	switch n := e.(type) {
	case *ast.NumberLit:
		return ok(types.NewFloat())
	case *ast.StringLit:
		return ok(types.NewString())
	case *ast.VarRef:
		if t := tc.lookupVariable(n.Name); t != nil {
			return ok(t.Clone())
		}
		tc.errorf("Undefined variable: %s", n.Name)
		return failed()
	case *ast.Binary:
		return tc.checkBinary(n)
	case *ast.Unary:
		return tc.checkUnary(n)
	case *ast.Call:
		return tc.checkCall(n)
	default:
		tc.errorf("Unknown expression")
		return failed()
	}
}

func (tc *TypeChecker) checkBinary(n *ast.Binary) Result {
	lhs := tc.checkExpr(n.LHS)
	if lhs.Failed() {
		return failed()
	}
	rhs := tc.checkExpr(n.RHS)
	if rhs.Failed() {
		return failed()
	}

	switch n.Op {
	case "+", "-", "*", "/", "%":
		if !operandNumeric(lhs.Type) || !operandNumeric(rhs.Type) {
			tc.errorf("Arithmetic operator '%s' requires numeric operands, got %s and %s", n.Op, lhs.Type, rhs.Type)
			return failed()
		}
		return ok(promote(lhs.Type, rhs.Type))

	case "<", ">", "<=", ">=", "==", "!=":
		if !comparableTypes(lhs.Type, rhs.Type) {
			tc.errorf("Cannot compare %s with %s", lhs.Type, rhs.Type)
			return failed()
		}
		return ok(types.NewBool())

	case "and", "or":
		if !truthy(lhs.Type) || !truthy(rhs.Type) {
			tc.errorf("Logical operator '%s' requires numeric or boolean operands, got %s and %s", n.Op, lhs.Type, rhs.Type)
			return failed()
		}
		return ok(types.NewBool())

	default:
		tc.errorf("Unknown operator: %s", n.Op)
		return failed()
	}
}

func (tc *TypeChecker) checkUnary(n *ast.Unary) Result {
	r := tc.checkExpr(n.Operand)
	if r.Failed() {
		return failed()
	}

	switch n.Op {
	case "-":
		if !operandNumeric(r.Type) {
			tc.errorf("Unary '-' requires a numeric operand, got %s", r.Type)
			return failed()
		}
		return r
	case "not":
		if !truthy(r.Type) {
			tc.errorf("'not' requires a numeric or boolean operand, got %s", r.Type)
			return failed()
		}
		return ok(types.NewBool())
	default:
		tc.errorf("Unknown operator: %s", n.Op)
		return failed()
	}
}

// checkCall resolves the callee by exact argument count and per-position
// assignability. Resolution failure reports "Undefined function" whether
// the real cause was an unbound name, an arity mismatch, or an argument
// type mismatch; callers cannot tell these apart from the message.
func (tc *TypeChecker) checkCall(n *ast.Call) Result {
	args := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		r := tc.checkExpr(a)
		if r.Failed() {
			return failed()
		}
		args[i] = r.Type
	}

	fn := tc.env.LookupFunction(n.Callee, args)
	if fn == nil {
		tc.errorf("Undefined function: %s", n.Callee)
		return failed()
	}
	return ok(fn.Return.Clone())
}

// ====== Helpers ======

// lookupVariable consults the flow-sensitive context before the lexical
// environment, so branch refinements shadow declared types.
func (tc *TypeChecker) lookupVariable(name string) *types.Type {
	if t := tc.flow.Lookup(name); t != nil {
		return t
	}
	return tc.env.Lookup(name)
}

func (tc *TypeChecker) errorf(format string, args ...interface{}) {
	tc.errors = append(tc.errors, fmt.Sprintf(format, args...))
}

func (tc *TypeChecker) warnf(format string, args ...interface{}) {
	tc.warnings = append(tc.warnings, fmt.Sprintf(format, args...))
}

func operandNumeric(t *types.Type) bool {
	return t.IsNumeric() || t.IsUnknown()
}

func truthy(t *types.Type) bool {
	return t.IsNumeric() || t.IsBool() || t.IsUnknown()
}

// comparableTypes allows comparing equal types, two numerics, or two
// strings.
func comparableTypes(a, b *types.Type) bool {
	if a.IsUnknown() || b.IsUnknown() {
		return true
	}
	if a.Equals(b) {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a.IsString() && b.IsString()
}

// promote resolves the arithmetic result type. Unknown operands keep the
// result Unknown rather than forcing a numeric kind.
func promote(a, b *types.Type) *types.Type {
	if a.IsUnknown() || b.IsUnknown() {
		return types.NewUnknown()
	}
	return types.PromoteNumeric(a, b)
}
