package opt

import (
	"math"

	"github.com/rill-lang/rill/internal/mir"
	"github.com/rill-lang/rill/internal/types"
)

// TypeDirectedStats are the counters the O3 report prints.
type TypeDirectedStats struct {
	NumericOps      int
	MulToShifts     int
	DivToShifts     int
	CastsEliminated int

	// Specializations counts candidates identified; no clone or call
	// redirection is performed for them yet.
	Specializations int
}

// TypeDirectedOptimization uses the checker's inferred signatures and
// constant shapes to strength-reduce float operations: integer-valued
// constant arithmetic runs on the integer unit with one cast back,
// power-of-two multiplies and divides become shifts, and redundant cast
// chains collapse.
type TypeDirectedOptimization struct {
	Stats TypeDirectedStats

	sigs map[string]*types.FunctionData
}

// NewTypeDirectedOptimization creates the pass over the checker's
// signature map; a nil map disables the specialization counters only.
func NewTypeDirectedOptimization(sigs map[string]*types.FunctionData) *TypeDirectedOptimization {
	return &TypeDirectedOptimization{sigs: sigs}
}

func (*TypeDirectedOptimization) Name() string { return "type-directed" }

func (p *TypeDirectedOptimization) RunOnFunction(f *mir.Function) bool {
	changed := false
	if p.optimizeNumericOps(f) {
		changed = true
	}
	if p.eliminateCasts(f) {
		changed = true
	}
	p.countSpecializationCandidates(f)
	return changed
}

func (p *TypeDirectedOptimization) optimizeNumericOps(f *mir.Function) bool {
	var rewritten []mir.ID
	changed := false

	f.Instructions(func(in *mir.Instr) {
		switch in.Op {
		case mir.OpAdd:
			l, lok := intConstant(in.Args[0])
			r, rok := intConstant(in.Args[1])
			if !lok || !rok {
				return
			}
			add := f.EmitAt(in.Block, position(in), mir.Instr{
				Op: mir.OpIAdd, Args: []mir.Value{mir.ConstInt(l), mir.ConstInt(r)},
			})
			p.replaceWithIntResult(f, in, add, &rewritten)

		case mir.OpMul:
			l, lok := intConstant(in.Args[0])
			r, rok := intConstant(in.Args[1])
			if !lok || !rok || !isPowerOfTwo(r) {
				return
			}
			shl := f.EmitAt(in.Block, position(in), mir.Instr{
				Op: mir.OpShl, Args: []mir.Value{mir.ConstInt(l), mir.ConstInt(shiftAmount(r))},
			})
			p.replaceWithIntResult(f, in, shl, &rewritten)
			p.Stats.MulToShifts++

		case mir.OpDiv:
			l, lok := intConstant(in.Args[0])
			r, rok := intConstant(in.Args[1])
			if !lok || !rok || !isPowerOfTwo(r) {
				return
			}
			// Arithmetic right shift keeps the sign.
			shr := f.EmitAt(in.Block, position(in), mir.Instr{
				Op: mir.OpShr, Args: []mir.Value{mir.ConstInt(l), mir.ConstInt(shiftAmount(r))},
			})
			p.replaceWithIntResult(f, in, shr, &rewritten)
			p.Stats.DivToShifts++

		case mir.OpCmp:
			l, lok := intConstant(in.Args[0])
			r, rok := intConstant(in.Args[1])
			if !lok || !rok {
				return
			}
			// A float compare of two integer-valued constants compares
			// the same on the integer unit; rewrite in place.
			in.Op = mir.OpICmp
			f.SetArg(in.ID, 0, mir.ConstInt(l))
			f.SetArg(in.ID, 1, mir.ConstInt(r))
			p.Stats.NumericOps++
			changed = true
		}
	})

	for _, id := range rewritten {
		f.Erase(id)
		changed = true
	}
	return changed
}

// replaceWithIntResult casts the integer computation back to float so
// the externally observed type stays stable, then retires the float
// instruction.
func (p *TypeDirectedOptimization) replaceWithIntResult(f *mir.Function, old *mir.Instr, intOp mir.ID, rewritten *[]mir.ID) {
	cast := f.EmitAt(old.Block, position(old), mir.Instr{
		Op: mir.OpCast, From: mir.ScalarInt, To: mir.ScalarFloat,
		Args: []mir.Value{mir.Ref(intOp)},
	})
	f.ReplaceAllUses(old.ID, mir.Ref(cast))
	*rewritten = append(*rewritten, old.ID)
	p.Stats.NumericOps++
}

func (p *TypeDirectedOptimization) eliminateCasts(f *mir.Function) bool {
	var rewritten []mir.ID

	f.Instructions(func(in *mir.Instr) {
		if in.Op != mir.OpCast {
			return
		}

		// Cast to its own source type.
		if in.From == in.To {
			f.ReplaceAllUses(in.ID, in.Args[0])
			rewritten = append(rewritten, in.ID)
			p.Stats.CastsEliminated++
			return
		}

		// Cast chains: cast(cast(x)).
		if in.Args[0].Kind != mir.ValRef {
			return
		}
		inner := f.Instr(in.Args[0].Ref)
		if inner == nil || inner.Erased() || inner.Op != mir.OpCast {
			return
		}
		if inner.From == in.To {
			// The outer cast exactly reverses the inner one. Valid for
			// the scalar classes here because bool and int survive the
			// float round trip.
			f.ReplaceAllUses(in.ID, inner.Args[0])
			rewritten = append(rewritten, in.ID)
			p.Stats.CastsEliminated++
			return
		}
		// The intermediate class is not needed; one combined cast does
		// the same conversion.
		combined := f.EmitAt(in.Block, position(in), mir.Instr{
			Op: mir.OpCast, From: inner.From, To: in.To,
			Args: []mir.Value{inner.Args[0]},
		})
		f.ReplaceAllUses(in.ID, mir.Ref(combined))
		rewritten = append(rewritten, in.ID)
		p.Stats.CastsEliminated++
	})

	for _, id := range rewritten {
		f.Erase(id)
	}
	return len(rewritten) > 0
}

// countSpecializationCandidates tallies calls whose callee could get a
// monomorphic variant for the caller's argument types. Identification
// only: the counter moves and no function is cloned or redirected.
func (p *TypeDirectedOptimization) countSpecializationCandidates(f *mir.Function) {
	if p.sigs == nil {
		return
	}
	f.Instructions(func(in *mir.Instr) {
		if in.Op != mir.OpCall {
			return
		}
		sig, ok := p.sigs[in.Callee]
		if ok && len(sig.Params) > 0 {
			p.Stats.Specializations++
		}
	})
}

func intConstant(v mir.Value) (int64, bool) {
	if v.Kind == mir.ValConstInt {
		return v.Int64, true
	}
	if v.Kind != mir.ValConstFloat {
		return 0, false
	}
	fv := v.Float64
	// float64(math.MaxInt64) rounds up to 2^63, so the upper bound
	// must be exclusive to keep int64(fv) from overflowing.
	if fv != math.Floor(fv) || fv < math.MinInt64 || fv >= 9223372036854775808.0 {
		return 0, false
	}
	return int64(fv), true
}

func isPowerOfTwo(v int64) bool {
	return v > 0 && v&(v-1) == 0
}

func shiftAmount(powerOfTwo int64) int64 {
	n := int64(0)
	for powerOfTwo > 1 {
		powerOfTwo >>= 1
		n++
	}
	return n
}
