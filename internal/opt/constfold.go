package opt

import (
	"math"

	"github.com/rill-lang/rill/internal/mir"
)

// ConstantFolding evaluates binary operations over constant operands at
// compile time, plus a narrow single-hop constant propagation through
// stack slots. Division and modulo by a literal zero stay unfolded so
// the runtime trap survives.
type ConstantFolding struct {
	Folded int
}

func (*ConstantFolding) Name() string { return "constant-folding" }

func (p *ConstantFolding) RunOnFunction(f *mir.Function) bool {
	changed := false
	// Folding one instruction can make another foldable; sweep until a
	// full pass does nothing.
	for {
		again := false
		if p.foldBinary(f) {
			changed, again = true, true
		}
		if p.propagateSlots(f) {
			changed, again = true, true
		}
		if !again {
			return changed
		}
	}
}

func (p *ConstantFolding) foldBinary(f *mir.Function) bool {
	changed := false
	f.Instructions(func(in *mir.Instr) {
		v, ok := evalConst(in)
		if !ok {
			return
		}
		f.ReplaceAllUses(in.ID, v)
		f.Erase(in.ID)
		p.Folded++
		changed = true
	})
	return changed
}

// propagateSlots rewrites a load that immediately follows a constant
// store to the same slot. Single hop only; no dataflow fixed point.
func (p *ConstantFolding) propagateSlots(f *mir.Function) bool {
	changed := false
	for _, b := range f.Blocks {
		var prev *mir.Instr
		for _, id := range append([]mir.ID(nil), b.Instrs...) {
			in := f.Instr(id)
			if in == nil || in.Erased() {
				continue
			}
			if prev != nil && in.Op == mir.OpLoad && prev.Op == mir.OpStore &&
				prev.Args[1].IsConst() && in.Args[0].Same(prev.Args[0]) {
				f.ReplaceAllUses(in.ID, prev.Args[1])
				f.Erase(in.ID)
				changed = true
				// The store stays prev: a following load of the same
				// slot folds too.
				continue
			}
			prev = in
		}
	}
	return changed
}

// evalConst computes the result of a binary instruction whose operands
// are both constants. Comparisons are left alone here; folding them is
// the type-directed pass's business.
func evalConst(in *mir.Instr) (mir.Value, bool) {
	switch in.Op {
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv, mir.OpRem:
		l, r := in.Args[0], in.Args[1]
		if !l.IsConst() || !r.IsConst() {
			return mir.Value{}, false
		}
		a, b := l.AsFloat(), r.AsFloat()
		switch in.Op {
		case mir.OpAdd:
			return mir.ConstFloat(a + b), true
		case mir.OpSub:
			return mir.ConstFloat(a - b), true
		case mir.OpMul:
			return mir.ConstFloat(a * b), true
		case mir.OpDiv:
			if b == 0 {
				return mir.Value{}, false
			}
			return mir.ConstFloat(a / b), true
		case mir.OpRem:
			if b == 0 {
				return mir.Value{}, false
			}
			return mir.ConstFloat(math.Mod(a, b)), true
		}

	case mir.OpIAdd, mir.OpISub, mir.OpIMul, mir.OpShl, mir.OpShr:
		l, r := in.Args[0], in.Args[1]
		if !l.IsConst() || !r.IsConst() {
			return mir.Value{}, false
		}
		a, b := l.AsInt(), r.AsInt()
		switch in.Op {
		case mir.OpIAdd:
			return mir.ConstInt(a + b), true
		case mir.OpISub:
			return mir.ConstInt(a - b), true
		case mir.OpIMul:
			return mir.ConstInt(a * b), true
		case mir.OpShl:
			return mir.ConstInt(a << uint64(b)), true
		case mir.OpShr:
			return mir.ConstInt(a >> uint64(b)), true
		}
	}
	return mir.Value{}, false
}
