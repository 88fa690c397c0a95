package opt

import (
	"testing"

	"github.com/rill-lang/rill/internal/mir"
)

func TestReassociationMovesConstantRight(t *testing.T) {
	f, b := newFunc("x")
	add := binop(f, b, mir.OpAdd, mir.ConstFloat(3), mir.Param(0, "x"))
	ret(f, b, mir.Ref(add))

	if !(Reassociation{}).RunOnFunction(f) {
		t.Fatal("expected a change")
	}
	in := f.Instr(add)
	if in.Args[0].Kind != mir.ValParam || !in.Args[1].IsConst() {
		t.Errorf("operands not canonicalized: %s", in)
	}
}

func TestReassociationCollapsesChain(t *testing.T) {
	f, b := newFunc("x")
	inner := binop(f, b, mir.OpAdd, mir.Param(0, "x"), mir.ConstFloat(1))
	outer := binop(f, b, mir.OpAdd, mir.Ref(inner), mir.ConstFloat(2))
	ret(f, b, mir.Ref(outer))

	(Reassociation{}).RunOnFunction(f)

	in := f.Instr(outer)
	if in.Args[0].Kind != mir.ValParam {
		t.Errorf("outer left operand = %s, want the parameter", in.Args[0])
	}
	if !in.Args[1].IsConst() || in.Args[1].AsFloat() != 3 {
		t.Errorf("outer right operand = %s, want constant 3", in.Args[1])
	}
	if !f.Instr(inner).Erased() {
		t.Error("inner add should be erased")
	}
}

func TestReassociationKeepsSharedInner(t *testing.T) {
	f, b := newFunc("x")
	inner := binop(f, b, mir.OpAdd, mir.Param(0, "x"), mir.ConstFloat(1))
	outer := binop(f, b, mir.OpAdd, mir.Ref(inner), mir.ConstFloat(2))
	sum := binop(f, b, mir.OpAdd, mir.Ref(inner), mir.Ref(outer))
	ret(f, b, mir.Ref(sum))

	(Reassociation{}).RunOnFunction(f)

	if f.Instr(inner).Erased() {
		t.Fatal("inner add has another consumer and must survive")
	}
}

func TestReassociationIgnoresNonCommutative(t *testing.T) {
	f, b := newFunc("x")
	sub := binop(f, b, mir.OpSub, mir.ConstFloat(3), mir.Param(0, "x"))
	ret(f, b, mir.Ref(sub))

	if (Reassociation{}).RunOnFunction(f) {
		t.Error("subtraction operands must not be swapped")
	}
}
