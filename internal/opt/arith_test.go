package opt

import (
	"testing"

	"github.com/rill-lang/rill/internal/mir"
)

func TestArithSimplifyIdentities(t *testing.T) {
	cases := []struct {
		name string
		op   mir.Op
		l, r mir.Value
		want mir.Value
	}{
		{"add zero right", mir.OpAdd, mir.Param(0, "x"), mir.ConstFloat(0), mir.Param(0, "x")},
		{"add zero left", mir.OpAdd, mir.ConstFloat(0), mir.Param(0, "x"), mir.Param(0, "x")},
		{"sub zero", mir.OpSub, mir.Param(0, "x"), mir.ConstFloat(0), mir.Param(0, "x")},
		{"sub self", mir.OpSub, mir.Param(0, "x"), mir.Param(0, "x"), mir.ConstFloat(0)},
		{"mul one", mir.OpMul, mir.Param(0, "x"), mir.ConstFloat(1), mir.Param(0, "x")},
		{"mul zero", mir.OpMul, mir.Param(0, "x"), mir.ConstFloat(0), mir.ConstFloat(0)},
		{"div one", mir.OpDiv, mir.Param(0, "x"), mir.ConstFloat(1), mir.Param(0, "x")},
		{"div self", mir.OpDiv, mir.Param(0, "x"), mir.Param(0, "x"), mir.ConstFloat(1)},
		{"zero div", mir.OpDiv, mir.ConstFloat(0), mir.Param(0, "x"), mir.ConstFloat(0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, b := newFunc("x")
			id := binop(f, b, tc.op, tc.l, tc.r)
			r := ret(f, b, mir.Ref(id))

			p := &ArithmeticSimplification{}
			if !p.RunOnFunction(f) {
				t.Fatal("expected a change")
			}
			if !f.Instr(id).Erased() {
				t.Error("simplified instruction should be erased")
			}
			if got := retArg(t, f, r); !got.Same(tc.want) {
				t.Errorf("return operand = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestArithSimplifyAddSelf(t *testing.T) {
	f, b := newFunc("x")
	add := binop(f, b, mir.OpAdd, mir.Param(0, "x"), mir.Param(0, "x"))
	r := ret(f, b, mir.Ref(add))

	(&ArithmeticSimplification{}).RunOnFunction(f)

	got := retArg(t, f, r)
	if got.Kind != mir.ValRef {
		t.Fatalf("return operand = %s, want a rewritten instruction", got)
	}
	in := f.Instr(got.Ref)
	if in.Op != mir.OpMul || !isTwo(in.Args[1]) {
		t.Errorf("x + x should become x * 2, got %s", in)
	}
}

func TestArithSimplifyMulTwo(t *testing.T) {
	f, b := newFunc("x")
	mul := binop(f, b, mir.OpMul, mir.Param(0, "x"), mir.ConstFloat(2))
	r := ret(f, b, mir.Ref(mul))

	(&ArithmeticSimplification{}).RunOnFunction(f)

	got := retArg(t, f, r)
	if got.Kind != mir.ValRef {
		t.Fatalf("return operand = %s, want a rewritten instruction", got)
	}
	in := f.Instr(got.Ref)
	if in.Op != mir.OpAdd || !in.Args[0].Same(in.Args[1]) {
		t.Errorf("x * 2 should become x + x, got %s", in)
	}
}

func TestArithSimplifyLeavesGeneralOps(t *testing.T) {
	f, b := newFunc("x")
	add := binop(f, b, mir.OpAdd, mir.Param(0, "x"), mir.ConstFloat(3))
	ret(f, b, mir.Ref(add))

	if (&ArithmeticSimplification{}).RunOnFunction(f) {
		t.Error("x + 3 matches no identity and must stay")
	}
}
