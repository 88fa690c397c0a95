package opt

import (
	"github.com/rill-lang/rill/internal/mir"
)

// Reassociation canonicalizes commutative operations: constants move to
// the right-hand side, and chains of the same operation with constant
// right-hand sides collapse into one ((x+1)+2 becomes x+3). The
// canonical form feeds the peephole passes, which only look rightward
// for constants.
type Reassociation struct{}

func (Reassociation) Name() string { return "reassociation" }

func (Reassociation) RunOnFunction(f *mir.Function) bool {
	changed := false
	f.Instructions(func(in *mir.Instr) {
		if !commutative(in.Op) {
			return
		}

		if in.Args[0].IsConst() && !in.Args[1].IsConst() {
			l, r := in.Args[0], in.Args[1]
			f.SetArg(in.ID, 0, r)
			f.SetArg(in.ID, 1, l)
			changed = true
		}

		// (x op c1) op c2 -> x op (c1 op c2), when the inner result has
		// no other consumer.
		if in.Args[1].IsConst() && in.Args[0].Kind == mir.ValRef {
			inner := f.Instr(in.Args[0].Ref)
			if inner != nil && !inner.Erased() && inner.Op == in.Op &&
				inner.Args[1].IsConst() && f.NumUsers(inner.ID) == 1 {
				folded := foldPair(in.Op, inner.Args[1], in.Args[1])
				f.SetArg(in.ID, 0, inner.Args[0])
				f.SetArg(in.ID, 1, folded)
				f.Erase(inner.ID)
				changed = true
			}
		}
	})
	return changed
}

func commutative(op mir.Op) bool {
	switch op {
	case mir.OpAdd, mir.OpMul, mir.OpIAdd, mir.OpIMul:
		return true
	}
	return false
}

func foldPair(op mir.Op, a, b mir.Value) mir.Value {
	switch op {
	case mir.OpAdd:
		return mir.ConstFloat(a.AsFloat() + b.AsFloat())
	case mir.OpMul:
		return mir.ConstFloat(a.AsFloat() * b.AsFloat())
	case mir.OpIAdd:
		return mir.ConstInt(a.AsInt() + b.AsInt())
	case mir.OpIMul:
		return mir.ConstInt(a.AsInt() * b.AsInt())
	}
	return a
}
