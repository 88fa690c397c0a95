package opt

import (
	"fmt"

	"github.com/rill-lang/rill/internal/mir"
)

// ValueNumbering removes redundant computations within a block: two pure
// instructions with the same opcode and operands compute the same value,
// so the later one is redirected to the earlier. Loads and calls are
// never numbered; a store in between could change what they see.
type ValueNumbering struct {
	Removed int
}

func (*ValueNumbering) Name() string { return "value-numbering" }

func (p *ValueNumbering) RunOnFunction(f *mir.Function) bool {
	changed := false
	for _, b := range f.Blocks {
		seen := map[string]mir.ID{}
		for _, id := range append([]mir.ID(nil), b.Instrs...) {
			in := f.Instr(id)
			if in == nil || in.Erased() || !pure(in.Op) {
				continue
			}
			key := numberKey(in)
			if first, ok := seen[key]; ok {
				f.ReplaceAllUses(in.ID, mir.Ref(first))
				f.Erase(in.ID)
				p.Removed++
				changed = true
				continue
			}
			seen[key] = id
		}
	}
	return changed
}

func pure(op mir.Op) bool {
	switch op {
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv, mir.OpRem,
		mir.OpIAdd, mir.OpISub, mir.OpIMul, mir.OpShl, mir.OpShr,
		mir.OpCmp, mir.OpICmp, mir.OpAnd, mir.OpOr, mir.OpCast:
		return true
	}
	return false
}

func numberKey(in *mir.Instr) string {
	key := fmt.Sprintf("%d/%d/%d.%d", in.Op, in.Pred, in.From, in.To)
	for _, a := range in.Args {
		key += "|" + valueKey(a)
	}
	return key
}

func valueKey(v mir.Value) string {
	switch v.Kind {
	case mir.ValConstInt:
		return fmt.Sprintf("i%d", v.Int64)
	case mir.ValConstFloat:
		return fmt.Sprintf("f%x", v.Float64)
	case mir.ValRef:
		return fmt.Sprintf("r%d", v.Ref)
	case mir.ValParam:
		return fmt.Sprintf("p%d", v.Index)
	default:
		return "?"
	}
}
