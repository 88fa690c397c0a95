package opt

import (
	"testing"

	"github.com/rill-lang/rill/internal/mir"
)

func TestDCERemovesUnusedChain(t *testing.T) {
	f, b := newFunc("x")
	a := binop(f, b, mir.OpAdd, mir.Param(0, "x"), mir.ConstFloat(1))
	binop(f, b, mir.OpMul, mir.Ref(a), mir.ConstFloat(2))
	ret(f, b, mir.ConstFloat(0))

	p := NewDeadCodeElimination(NewAnalysisCache())
	if !p.RunOnFunction(f) {
		t.Fatal("expected a change")
	}
	// The mul dies first, which frees the add; one run takes both.
	if p.Eliminated != 2 {
		t.Errorf("Eliminated = %d, want 2", p.Eliminated)
	}
	if f.NumInstrs() != 1 {
		t.Errorf("live instructions = %d, want only the return", f.NumInstrs())
	}
}

func TestDCEKeepsSideEffects(t *testing.T) {
	f, b := newFunc()
	slot := f.Emit(b, mir.Instr{Op: mir.OpAlloca, Slot: "x"})
	f.Emit(b, mir.Instr{Op: mir.OpStore, Args: []mir.Value{mir.Ref(slot), mir.ConstFloat(1)}})
	f.Emit(b, mir.Instr{Op: mir.OpCall, Callee: "print", Args: []mir.Value{mir.ConstFloat(1)}})
	ret(f, b, mir.ConstFloat(0))

	p := NewDeadCodeElimination(NewAnalysisCache())
	p.RunOnFunction(f)

	if f.NumInstrs() != 4 {
		t.Errorf("live instructions = %d, want 4 (alloca, store, call, ret)", f.NumInstrs())
	}
}

func TestDCERemovesUnreachableBlock(t *testing.T) {
	f, b := newFunc()
	exit := f.NewBlock("exit")
	f.Emit(b, mir.Instr{Op: mir.OpBr, Target: exit})
	ret(f, exit, mir.ConstFloat(0))

	orphan := f.NewBlock("orphan")
	binop(f, orphan, mir.OpAdd, mir.ConstFloat(1), mir.ConstFloat(2))
	ret(f, orphan, mir.ConstFloat(1))

	p := NewDeadCodeElimination(NewAnalysisCache())
	if !p.RunOnFunction(f) {
		t.Fatal("expected a change")
	}
	if len(f.Blocks) != 2 {
		t.Errorf("blocks = %d, want 2", len(f.Blocks))
	}
	if p.Eliminated != 2 {
		t.Errorf("Eliminated = %d, want the orphan's 2 instructions", p.Eliminated)
	}
}

func TestDCEIdempotent(t *testing.T) {
	m := lower(t, `def main():
    x = 1 + 2
    y = x * 3
    print x
`)
	f := m.Find("main")

	p := NewDeadCodeElimination(NewAnalysisCache())
	p.RunOnFunction(f)
	if p.RunOnFunction(f) {
		t.Error("second run changed something; DCE should reach a fixed point in one run")
	}
}
