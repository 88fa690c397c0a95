package opt

import (
	"fmt"

	"github.com/rill-lang/rill/internal/mir"
)

// Cost model for inlining decisions. A candidate callee must fit in
// maxInlineBlocks basic blocks and maxInlineCost weighted instructions.
const (
	maxInlineBlocks = 3
	maxInlineCost   = 20

	costCall   = 5
	costBranch = 1
	costMemory = 2
	costOther  = 1
)

// FunctionInlining is the one module-scoped pass: it replaces calls to
// small defined functions with a copy of their body. All eligible call
// sites are collected first, then inlined as a batch in collection
// order; no cost-based ordering across sites is attempted.
type FunctionInlining struct {
	Inlined int

	// Entry names the program's entry function, which is never inlined
	// into anything.
	Entry string

	inlineSeq int
}

// NewFunctionInlining creates the pass with main as the entry function.
func NewFunctionInlining() *FunctionInlining {
	return &FunctionInlining{Entry: "main"}
}

func (*FunctionInlining) Name() string { return "function-inlining" }

type callSite struct {
	caller *mir.Function
	call   mir.ID
	callee *mir.Function
}

func (p *FunctionInlining) RunOnModule(m *mir.Module) bool {
	var sites []callSite
	for _, caller := range m.Functions {
		caller.Instructions(func(in *mir.Instr) {
			if in.Op != mir.OpCall {
				return
			}
			callee := m.Find(in.Callee)
			if callee == nil || callee == caller {
				return
			}
			if p.shouldInline(callee) {
				sites = append(sites, callSite{caller: caller, call: in.ID, callee: callee})
			}
		})
	}

	changed := false
	for _, s := range sites {
		// The batch may already have rewritten this site.
		in := s.caller.Instr(s.call)
		if in == nil || in.Erased() {
			continue
		}
		p.inline(s)
		p.Inlined++
		changed = true
	}
	return changed
}

func (p *FunctionInlining) shouldInline(callee *mir.Function) bool {
	if callee.Name == p.Entry {
		return false
	}
	if len(callee.Blocks) == 0 || len(callee.Blocks) > maxInlineBlocks {
		return false
	}
	if selfRecursive(callee) {
		return false
	}
	return inlineCost(callee) <= maxInlineCost
}

// selfRecursive reports whether the function's own body calls the
// function back. One level only; longer cycles are not chased.
func selfRecursive(f *mir.Function) bool {
	found := false
	f.Instructions(func(in *mir.Instr) {
		if in.Op == mir.OpCall && in.Callee == f.Name {
			found = true
		}
	})
	return found
}

func inlineCost(f *mir.Function) int {
	cost := 0
	f.Instructions(func(in *mir.Instr) {
		switch in.Op {
		case mir.OpCall:
			cost += costCall
		case mir.OpBr, mir.OpCondBr:
			cost += costBranch
		case mir.OpLoad, mir.OpStore:
			cost += costMemory
		default:
			cost += costOther
		}
	})
	return cost
}

// inline splices a copy of the callee into the caller at one call site.
// The block holding the call is split after it; the callee's blocks are
// cloned between the two halves, parameters become the call arguments,
// and every cloned return stores into a result slot read at the top of
// the continuation.
func (p *FunctionInlining) inline(s callSite) {
	caller, callee := s.caller, s.callee
	call := caller.Instr(s.call)
	callBlock := call.Block

	p.inlineSeq++
	tag := fmt.Sprintf("inl%d", p.inlineSeq)

	cont := caller.SplitAfter(callBlock, s.call, tag+".cont")

	// Result slot: multiple returns in the callee all funnel into it.
	slot := caller.EmitAt(callBlock, position(call), mir.Instr{
		Op: mir.OpAlloca, Slot: tag + ".ret",
	})

	// Clone the callee body. Lowered MIR defines every value before its
	// uses in block order, so a single in-order walk can remap operands
	// as it goes.
	blockMap := map[*mir.Block]*mir.Block{}
	for _, b := range callee.Blocks {
		blockMap[b] = caller.NewBlock(tag + "." + b.Name)
	}

	valueMap := map[mir.ID]mir.Value{}
	remap := func(v mir.Value) mir.Value {
		switch v.Kind {
		case mir.ValParam:
			return call.Args[v.Index]
		case mir.ValRef:
			return valueMap[v.Ref]
		}
		return v
	}

	for _, b := range callee.Blocks {
		nb := blockMap[b]
		for _, id := range b.Instrs {
			in := callee.Instr(id)
			if in == nil || in.Erased() {
				continue
			}

			clone := mir.Instr{
				Op: in.Op, Pred: in.Pred, From: in.From, To: in.To,
				Callee: in.Callee, Slot: in.Slot,
			}
			for _, a := range in.Args {
				clone.Args = append(clone.Args, remap(a))
			}

			switch in.Op {
			case mir.OpRet:
				ret := mir.ConstFloat(0)
				if len(clone.Args) > 0 {
					ret = clone.Args[0]
				}
				caller.Emit(nb, mir.Instr{
					Op: mir.OpStore, Args: []mir.Value{mir.Ref(slot), ret},
				})
				caller.Emit(nb, mir.Instr{Op: mir.OpBr, Target: cont})
			case mir.OpBr:
				clone.Target = blockMap[in.Target]
				caller.Emit(nb, clone)
			case mir.OpCondBr:
				clone.True = blockMap[in.True]
				clone.False = blockMap[in.False]
				caller.Emit(nb, clone)
			default:
				valueMap[id] = mir.Ref(caller.Emit(nb, clone))
			}
		}
	}

	// Jump into the cloned entry and read the result back where the
	// call used to be.
	caller.Emit(callBlock, mir.Instr{Op: mir.OpBr, Target: blockMap[callee.Entry()]})

	load := caller.EmitAt(cont, 0, mir.Instr{
		Op: mir.OpLoad, Args: []mir.Value{mir.Ref(slot)},
	})
	caller.ReplaceAllUses(s.call, mir.Ref(load))
	caller.Erase(s.call)
}
