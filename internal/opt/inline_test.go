package opt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rill-lang/rill/internal/mir"
)

func runMain(t *testing.T, m *mir.Module) string {
	t.Helper()
	var out bytes.Buffer
	if _, err := mir.NewInterp(&out).Run(m, "main", nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestInlineStraightLineCallee(t *testing.T) {
	m := lower(t, `def double(x):
    return x * 2

def main():
    print double(21)
`)
	p := NewFunctionInlining()
	if !p.RunOnModule(m) {
		t.Fatal("expected the call to be inlined")
	}
	if p.Inlined != 1 {
		t.Errorf("Inlined = %d, want 1", p.Inlined)
	}

	main := m.Find("main")
	main.Instructions(func(in *mir.Instr) {
		if in.Op == mir.OpCall && in.Callee == "double" {
			t.Error("call to double survived inlining")
		}
	})

	if got := runMain(t, m); got != "42\n" {
		t.Errorf("output = %q, want %q", got, "42\n")
	}
}

func TestInlineMultiBlockCallee(t *testing.T) {
	// A hand-built three-block callee with two returns: sign(x) is 1 for
	// nonzero x, otherwise 0.
	sign := mir.NewFunction("sign", []string{"x"})
	entry := sign.NewBlock("entry")
	pos := sign.NewBlock("pos")
	zero := sign.NewBlock("zero")
	cmp := sign.Emit(entry, mir.Instr{Op: mir.OpCmp, Pred: mir.PredNE,
		Args: []mir.Value{mir.Param(0, "x"), mir.ConstFloat(0)}})
	sign.Emit(entry, mir.Instr{Op: mir.OpCondBr,
		Args: []mir.Value{mir.Ref(cmp)}, True: pos, False: zero})
	sign.Emit(pos, mir.Instr{Op: mir.OpRet, Args: []mir.Value{mir.ConstFloat(1)}})
	sign.Emit(zero, mir.Instr{Op: mir.OpRet, Args: []mir.Value{mir.ConstFloat(0)}})

	main := mir.NewFunction("main", nil)
	me := main.NewBlock("entry")
	call := main.Emit(me, mir.Instr{Op: mir.OpCall, Callee: "sign",
		Args: []mir.Value{mir.ConstFloat(5)}})
	main.Emit(me, mir.Instr{Op: mir.OpRet, Args: []mir.Value{mir.Ref(call)}})

	m := &mir.Module{Functions: []*mir.Function{sign, main}}
	p := NewFunctionInlining()
	if !p.RunOnModule(m) {
		t.Fatal("expected the call to be inlined")
	}
	if p.Inlined != 1 {
		t.Errorf("Inlined = %d, want 1", p.Inlined)
	}

	got, err := mir.NewInterp(nil).Run(m, "main", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != 1 {
		t.Errorf("main() = %v, want 1", got)
	}
}

func TestInlineSkipsBranchyLoweredCallee(t *testing.T) {
	// Lowered ifs materialize then/else/merge blocks, pushing any
	// branching callee past the block limit.
	m := lower(t, `def mag(x):
    if x < 0:
        return 0 - x
    return x

def main():
    print mag(0 - 5)
`)
	if NewFunctionInlining().RunOnModule(m) {
		t.Error("four-block callee must stay a call")
	}
	if got := runMain(t, m); got != "5\n" {
		t.Errorf("output = %q, want %q", got, "5\n")
	}
}

func TestInlineNeverTouchesEntry(t *testing.T) {
	m := lower(t, `def main():
    return 1

def wrapper():
    return main()
`)
	p := NewFunctionInlining()
	if p.RunOnModule(m) {
		t.Error("the entry function must never be inlined")
	}
}

func TestInlineSkipsSelfRecursion(t *testing.T) {
	m := lower(t, `def loop(x):
    return loop(x)

def main():
    return 0
`)
	// Give main a call site to loop by hand; the source form would never
	// terminate under the interpreter tests.
	main := m.Find("main")
	main.EmitAt(main.Entry(), 0, mir.Instr{
		Op: mir.OpCall, Callee: "loop", Args: []mir.Value{mir.ConstFloat(1)},
	})

	p := NewFunctionInlining()
	if p.RunOnModule(m) {
		t.Error("self-recursive callees must not be inlined")
	}
}

func TestInlineSkipsLargeCallee(t *testing.T) {
	m := lower(t, `def sum(n):
    total = 0
    i = 0
    while i < n:
        total = total + i
        i = i + 1
    return total

def main():
    print sum(10)
`)
	if NewFunctionInlining().RunOnModule(m) {
		t.Error("a loop body exceeds the block limit and must stay a call")
	}
	if got := runMain(t, m); got != "45\n" {
		t.Errorf("output = %q, want %q", got, "45\n")
	}
}

func TestInlineRewritesCallerStructure(t *testing.T) {
	m := lower(t, `def inc(x):
    return x + 1

def main():
    print inc(inc(1))
`)
	p := NewFunctionInlining()
	p.RunOnModule(m)
	if p.Inlined != 2 {
		t.Fatalf("Inlined = %d, want 2", p.Inlined)
	}

	s := m.Find("main").String()
	if !strings.Contains(s, ".cont") {
		t.Errorf("expected continuation blocks in:\n%s", s)
	}
	if got := runMain(t, m); got != "3\n" {
		t.Errorf("output = %q, want %q", got, "3\n")
	}
}
