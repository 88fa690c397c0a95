package opt

import (
	"github.com/rill-lang/rill/internal/mir"
)

// DeadCodeElimination removes instructions nothing uses and blocks
// nothing reaches. Stores and calls always count as side-effecting and
// stay; terminators stay.
type DeadCodeElimination struct {
	Eliminated int

	cache *AnalysisCache
}

// NewDeadCodeElimination creates the pass over a shared analysis cache.
func NewDeadCodeElimination(cache *AnalysisCache) *DeadCodeElimination {
	return &DeadCodeElimination{cache: cache}
}

func (*DeadCodeElimination) Name() string { return "dead-code-elimination" }

func (p *DeadCodeElimination) RunOnFunction(f *mir.Function) bool {
	changed := false
	if p.sweepInstructions(f) {
		changed = true
		p.cache.Invalidate(f)
	}
	if p.removeUnreachable(f) {
		changed = true
		p.cache.Invalidate(f)
	}
	return changed
}

// sweepInstructions repeatedly removes use-free, side-effect-free
// instructions until one full sweep changes nothing, so cascading dead
// chains fall in one run.
func (p *DeadCodeElimination) sweepInstructions(f *mir.Function) bool {
	changed := false
	for {
		removed := false
		f.Instructions(func(in *mir.Instr) {
			if in.HasSideEffects() || f.NumUsers(in.ID) > 0 {
				return
			}
			f.Erase(in.ID)
			p.Eliminated++
			removed = true
		})
		if !removed {
			return changed
		}
		changed = true
	}
}

func (p *DeadCodeElimination) removeUnreachable(f *mir.Function) bool {
	reach := p.cache.Reachable(f)

	var dead []*mir.Block
	for _, b := range f.Blocks {
		if !reach.Contains(b) {
			dead = append(dead, b)
		}
	}
	for _, b := range dead {
		p.Eliminated += len(b.Instrs)
		f.RemoveBlock(b)
	}
	return len(dead) > 0
}
