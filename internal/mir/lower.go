package mir

import (
	"fmt"

	"github.com/rill-lang/rill/internal/ast"
)

// Lower translates a parsed program into a MIR module. The translation
// is direct and rule-by-rule; all cleverness is left to the optimizer.
//
// Every runtime value is a float. Locals are stack slots written through
// store and read through load; comparisons produce a 0/1 bool that is
// immediately cast back to float, so an expression always yields a float
// value. Conditions branch on value != 0.0.
func Lower(prog *ast.Program) (*Module, error) {
	m := &Module{Name: "main"}
	for _, fn := range prog.Functions {
		f, err := lowerFunction(prog, fn)
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, f)
	}
	return m, nil
}

// lowerer carries the per-function state: the insertion block, the
// name→alloca table and a counter for block labels.
type lowerer struct {
	prog   *ast.Program
	fn     *Function
	cur    *Block
	locals map[string]ID
	labels int
}

func lowerFunction(prog *ast.Program, fn *ast.Function) (*Function, error) {
	f := NewFunction(fn.Name, fn.Params)
	lw := &lowerer{prog: prog, fn: f, locals: map[string]ID{}}
	lw.cur = f.NewBlock("entry")

	// Spill parameters into slots so assignment to a parameter works
	// like any other local.
	for i, name := range fn.Params {
		slot := f.Emit(lw.cur, Instr{Op: OpAlloca, Slot: name})
		f.Emit(lw.cur, Instr{Op: OpStore, Args: []Value{Ref(slot), Param(i, name)}})
		lw.locals[name] = slot
	}

	last, err := lw.stmt(fn.Body)
	if err != nil {
		return nil, err
	}

	// Implicit return of the body's trailing value.
	if lw.cur.Terminator() == nil {
		f.Emit(lw.cur, Instr{Op: OpRet, Args: []Value{last}})
	}
	return f, nil
}

func (lw *lowerer) label(base string) string {
	lw.labels++
	return fmt.Sprintf("%s%d", base, lw.labels)
}

// ====== Statements ======

// stmt lowers one statement and returns the value it leaves behind;
// statements with no natural value leave 0.0.
func (lw *lowerer) stmt(s ast.Stmt) (Value, error) {
	zero := ConstFloat(0)

	switch n := s.(type) {
	case *ast.Block:
		last := zero
		for _, sub := range n.Stmts {
			// Code after a return in the same block is unreachable
			// and is not emitted.
			if lw.cur.Terminator() != nil {
				break
			}
			v, err := lw.stmt(sub)
			if err != nil {
				return zero, err
			}
			last = v
		}
		return last, nil

	case *ast.Assign:
		v, err := lw.expr(n.Value)
		if err != nil {
			return zero, err
		}
		slot, ok := lw.locals[n.Name]
		if !ok {
			slot = lw.fn.Emit(lw.cur, Instr{Op: OpAlloca, Slot: n.Name})
			lw.locals[n.Name] = slot
		}
		lw.fn.Emit(lw.cur, Instr{Op: OpStore, Args: []Value{Ref(slot), v}})
		return v, nil

	case *ast.ExprStmt:
		return lw.expr(n.E)

	case *ast.If:
		return zero, lw.ifStmt(n)

	case *ast.While:
		return zero, lw.whileStmt(n)

	case *ast.Return:
		v := zero
		if n.Value != nil {
			var err error
			v, err = lw.expr(n.Value)
			if err != nil {
				return zero, err
			}
		}
		lw.fn.Emit(lw.cur, Instr{Op: OpRet, Args: []Value{v}})
		return v, nil

	case *ast.Print:
		v, err := lw.expr(n.Value)
		if err != nil {
			return zero, err
		}
		lw.fn.Emit(lw.cur, Instr{Op: OpCall, Callee: "print", Args: []Value{v}})
		return v, nil

	default:
		return zero, fmt.Errorf("cannot lower statement %T", s)
	}
}

func (lw *lowerer) ifStmt(n *ast.If) error {
	cond, err := lw.condition(n.Cond)
	if err != nil {
		return err
	}

	thenB := lw.fn.NewBlock(lw.label("then"))
	elseB := lw.fn.NewBlock(lw.label("else"))
	mergeB := lw.fn.NewBlock(lw.label("ifcont"))

	lw.fn.Emit(lw.cur, Instr{Op: OpCondBr, Args: []Value{cond}, True: thenB, False: elseB})

	lw.cur = thenB
	if _, err := lw.stmt(n.Then); err != nil {
		return err
	}
	if lw.cur.Terminator() == nil {
		lw.fn.Emit(lw.cur, Instr{Op: OpBr, Target: mergeB})
	}

	lw.cur = elseB
	if n.Else != nil {
		if _, err := lw.stmt(n.Else); err != nil {
			return err
		}
	}
	if lw.cur.Terminator() == nil {
		lw.fn.Emit(lw.cur, Instr{Op: OpBr, Target: mergeB})
	}

	lw.cur = mergeB
	return nil
}

func (lw *lowerer) whileStmt(n *ast.While) error {
	headB := lw.fn.NewBlock(lw.label("loop"))
	bodyB := lw.fn.NewBlock(lw.label("body"))
	afterB := lw.fn.NewBlock(lw.label("afterloop"))

	lw.fn.Emit(lw.cur, Instr{Op: OpBr, Target: headB})

	lw.cur = headB
	cond, err := lw.condition(n.Cond)
	if err != nil {
		return err
	}
	lw.fn.Emit(lw.cur, Instr{Op: OpCondBr, Args: []Value{cond}, True: bodyB, False: afterB})

	lw.cur = bodyB
	if _, err := lw.stmt(n.Body); err != nil {
		return err
	}
	if lw.cur.Terminator() == nil {
		lw.fn.Emit(lw.cur, Instr{Op: OpBr, Target: headB})
	}

	lw.cur = afterB
	return nil
}

// condition lowers an expression and compares it against 0.0, yielding
// the 0/1 value a conditional branch consumes.
func (lw *lowerer) condition(e ast.Expr) (Value, error) {
	v, err := lw.expr(e)
	if err != nil {
		return Value{}, err
	}
	id := lw.fn.Emit(lw.cur, Instr{Op: OpCmp, Pred: PredNE, Args: []Value{v, ConstFloat(0)}})
	return Ref(id), nil
}

// ====== Expressions ======

func (lw *lowerer) expr(e ast.Expr) (Value, error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return ConstFloat(n.Value), nil

	case *ast.StringLit:
		return ConstString(n.Value), nil

	case *ast.VarRef:
		slot, ok := lw.locals[n.Name]
		if !ok {
			return Value{}, fmt.Errorf("unknown variable name: %s", n.Name)
		}
		id := lw.fn.Emit(lw.cur, Instr{Op: OpLoad, Args: []Value{Ref(slot)}})
		return Ref(id), nil

	case *ast.Binary:
		return lw.binary(n)

	case *ast.Unary:
		return lw.unary(n)

	case *ast.Call:
		return lw.call(n)

	default:
		return Value{}, fmt.Errorf("cannot lower expression %T", e)
	}
}

var arithOps = map[string]Op{
	"+": OpAdd,
	"-": OpSub,
	"*": OpMul,
	"/": OpDiv,
	"%": OpRem,
}

var cmpPreds = map[string]Pred{
	"<":  PredLT,
	"<=": PredLE,
	">":  PredGT,
	">=": PredGE,
	"==": PredEQ,
	"!=": PredNE,
}

func (lw *lowerer) binary(n *ast.Binary) (Value, error) {
	l, err := lw.expr(n.LHS)
	if err != nil {
		return Value{}, err
	}
	r, err := lw.expr(n.RHS)
	if err != nil {
		return Value{}, err
	}

	if op, ok := arithOps[n.Op]; ok {
		id := lw.fn.Emit(lw.cur, Instr{Op: op, Args: []Value{l, r}})
		return Ref(id), nil
	}

	if pred, ok := cmpPreds[n.Op]; ok {
		cmp := lw.fn.Emit(lw.cur, Instr{Op: OpCmp, Pred: pred, Args: []Value{l, r}})
		return lw.boolToFloat(cmp), nil
	}

	switch n.Op {
	case "and", "or":
		op := OpAnd
		if n.Op == "or" {
			op = OpOr
		}
		lb := lw.fn.Emit(lw.cur, Instr{Op: OpCmp, Pred: PredNE, Args: []Value{l, ConstFloat(0)}})
		rb := lw.fn.Emit(lw.cur, Instr{Op: OpCmp, Pred: PredNE, Args: []Value{r, ConstFloat(0)}})
		id := lw.fn.Emit(lw.cur, Instr{Op: op, Args: []Value{Ref(lb), Ref(rb)}})
		return lw.boolToFloat(id), nil
	}
	return Value{}, fmt.Errorf("invalid binary operator: %s", n.Op)
}

func (lw *lowerer) unary(n *ast.Unary) (Value, error) {
	v, err := lw.expr(n.Operand)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case "-":
		id := lw.fn.Emit(lw.cur, Instr{Op: OpSub, Args: []Value{ConstFloat(0), v}})
		return Ref(id), nil
	case "not":
		cmp := lw.fn.Emit(lw.cur, Instr{Op: OpCmp, Pred: PredEQ, Args: []Value{v, ConstFloat(0)}})
		return lw.boolToFloat(cmp), nil
	default:
		return Value{}, fmt.Errorf("invalid unary operator: %s", n.Op)
	}
}

func (lw *lowerer) call(n *ast.Call) (Value, error) {
	if n.Callee != "print" {
		callee := lw.prog.Find(n.Callee)
		if callee == nil {
			return Value{}, fmt.Errorf("unknown function referenced: %s", n.Callee)
		}
		if len(callee.Params) != len(n.Args) {
			return Value{}, fmt.Errorf("incorrect number of arguments passed to %s", n.Callee)
		}
	} else if len(n.Args) != 1 {
		return Value{}, fmt.Errorf("incorrect number of arguments passed to print")
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := lw.expr(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	id := lw.fn.Emit(lw.cur, Instr{Op: OpCall, Callee: n.Callee, Args: args})
	return Ref(id), nil
}

func (lw *lowerer) boolToFloat(cmp ID) Value {
	id := lw.fn.Emit(lw.cur, Instr{
		Op: OpCast, From: ScalarBool, To: ScalarFloat,
		Args: []Value{Ref(cmp)},
	})
	return Ref(id)
}
