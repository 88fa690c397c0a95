package mir

import (
	"strings"
	"testing"

	"github.com/rill-lang/rill/internal/parser"
)

func lower(t *testing.T, src string) *Module {
	t.Helper()
	prog, err := parser.ParseSource(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, err := Lower(prog)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return m
}

func TestLowerSimpleFunction(t *testing.T) {
	m := lower(t, `def double(x):
    return x * 2
`)
	f := m.Find("double")
	if f == nil {
		t.Fatal("no function double")
	}

	s := f.String()
	// Parameter spill, load, multiply, return.
	for _, want := range []string{"alloca x", "store", "load", "fmul", "ret"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in:\n%s", want, s)
		}
	}
}

func TestLowerIfProducesDiamond(t *testing.T) {
	m := lower(t, `def f(x):
    if x > 0:
        y = 1
    else:
        y = 2
    return y
`)
	f := m.Find("f")
	// entry, then, else, merge.
	if len(f.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(f.Blocks))
	}
	if f.Entry().Terminator().Op != OpCondBr {
		t.Errorf("entry should end in a conditional branch")
	}
	merge := f.Blocks[3]
	if len(merge.Preds) != 2 {
		t.Errorf("merge block predecessors = %d, want 2", len(merge.Preds))
	}
}

func TestLowerWhileTestsConditionFirst(t *testing.T) {
	m := lower(t, `def f(x):
    while x > 0:
        x = x - 1
    return x
`)
	f := m.Find("f")
	// entry, loop header, body, afterloop.
	if len(f.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4", len(f.Blocks))
	}
	head := f.Blocks[1]
	term := head.Terminator()
	if term == nil || term.Op != OpCondBr {
		t.Fatalf("loop header should end in a conditional branch")
	}
	body := term.True
	if bt := body.Terminator(); bt == nil || bt.Op != OpBr || bt.Target != head {
		t.Errorf("body should branch back to the header")
	}
}

func TestLowerComparisonCastsBool(t *testing.T) {
	m := lower(t, `def f(x):
    return x < 1
`)
	s := m.Find("f").String()
	if !strings.Contains(s, "fcmp.lt") {
		t.Errorf("missing comparison in:\n%s", s)
	}
	if !strings.Contains(s, "cast.bool.float") {
		t.Errorf("comparison result not widened back to float:\n%s", s)
	}
}

func TestLowerPrintCallsRuntime(t *testing.T) {
	m := lower(t, `def f(x):
    print(x)
`)
	if !strings.Contains(m.Find("f").String(), "call print(") {
		t.Error("print did not lower to a runtime call")
	}
}

func TestLowerUnknownVariable(t *testing.T) {
	prog, err := parser.ParseSource(`def f():
    return y
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Lower(prog); err == nil {
		t.Error("expected a lowering error for an unknown variable")
	}
}

func TestLowerStopsAfterReturn(t *testing.T) {
	m := lower(t, `def f(x):
    return x
    print(x)
`)
	f := m.Find("f")
	for _, b := range f.Blocks {
		seen := false
		for _, id := range b.Instrs {
			in := f.Instr(id)
			if seen {
				t.Errorf("instruction after terminator: %s", in)
			}
			if in.IsTerminator() {
				seen = true
			}
		}
	}
}
