package opt

import (
	"github.com/rill-lang/rill/internal/mir"
)

// ArithmeticSimplification applies one algebraic identity per visited
// binary instruction: x+0, x-0, x-x, x*0, x*1, x/1, x/x, 0/x, x+x and
// x*2. The x/x rewrite assumes the divisor is non-zero. Rewritten
// instructions are collected and deleted after the sweep finishes, not
// while iterating.
type ArithmeticSimplification struct {
	Simplified int
}

func (*ArithmeticSimplification) Name() string { return "arithmetic-simplification" }

func (p *ArithmeticSimplification) RunOnFunction(f *mir.Function) bool {
	var rewritten []mir.ID

	f.Instructions(func(in *mir.Instr) {
		repl, ok := p.simplify(f, in)
		if !ok {
			return
		}
		f.ReplaceAllUses(in.ID, repl)
		rewritten = append(rewritten, in.ID)
		p.Simplified++
	})

	for _, id := range rewritten {
		f.Erase(id)
	}
	return len(rewritten) > 0
}

func (p *ArithmeticSimplification) simplify(f *mir.Function, in *mir.Instr) (mir.Value, bool) {
	if len(in.Args) != 2 {
		return mir.Value{}, false
	}
	l, r := in.Args[0], in.Args[1]

	switch in.Op {
	case mir.OpAdd:
		if isZero(r) {
			return l, true
		}
		if isZero(l) {
			return r, true
		}
		if l.Same(r) {
			// x + x = 2 * x
			id := f.EmitAt(in.Block, position(in), mir.Instr{
				Op: mir.OpMul, Args: []mir.Value{l, mir.ConstFloat(2)},
			})
			return mir.Ref(id), true
		}

	case mir.OpSub:
		if isZero(r) {
			return l, true
		}
		if l.Same(r) {
			return mir.ConstFloat(0), true
		}

	case mir.OpMul:
		if isZero(l) || isZero(r) {
			return mir.ConstFloat(0), true
		}
		if isOne(r) {
			return l, true
		}
		if isOne(l) {
			return r, true
		}
		// x * 2 = x + x, in either operand position.
		if isTwo(r) {
			id := f.EmitAt(in.Block, position(in), mir.Instr{
				Op: mir.OpAdd, Args: []mir.Value{l, l},
			})
			return mir.Ref(id), true
		}
		if isTwo(l) {
			id := f.EmitAt(in.Block, position(in), mir.Instr{
				Op: mir.OpAdd, Args: []mir.Value{r, r},
			})
			return mir.Ref(id), true
		}

	case mir.OpDiv:
		if isOne(r) {
			return l, true
		}
		if l.Same(r) {
			// Assumes the divisor is non-zero.
			return mir.ConstFloat(1), true
		}
		if isZero(l) {
			return mir.ConstFloat(0), true
		}
	}
	return mir.Value{}, false
}

func position(in *mir.Instr) int {
	for i, id := range in.Block.Instrs {
		if id == in.ID {
			return i
		}
	}
	return 0
}

func isZero(v mir.Value) bool { return v.IsConst() && v.AsFloat() == 0 }
func isOne(v mir.Value) bool  { return v.IsConst() && v.AsFloat() == 1 }
func isTwo(v mir.Value) bool  { return v.IsConst() && v.AsFloat() == 2 }
