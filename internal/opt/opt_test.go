package opt

import (
	"testing"

	"github.com/rill-lang/rill/internal/mir"
	"github.com/rill-lang/rill/internal/parser"
)

// lower parses and lowers a source program for pass tests that want
// realistic IR shapes.
func lower(t *testing.T, src string) *mir.Module {
	t.Helper()
	prog, err := parser.ParseSource(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, err := mir.Lower(prog)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return m
}

// newFunc builds an empty single-block function for hand-assembled IR.
func newFunc(params ...string) (*mir.Function, *mir.Block) {
	f := mir.NewFunction("f", params)
	return f, f.NewBlock("entry")
}

func ret(f *mir.Function, b *mir.Block, v mir.Value) mir.ID {
	return f.Emit(b, mir.Instr{Op: mir.OpRet, Args: []mir.Value{v}})
}

func binop(f *mir.Function, b *mir.Block, op mir.Op, l, r mir.Value) mir.ID {
	return f.Emit(b, mir.Instr{Op: op, Args: []mir.Value{l, r}})
}

func retArg(t *testing.T, f *mir.Function, id mir.ID) mir.Value {
	t.Helper()
	in := f.Instr(id)
	if in == nil || in.Erased() {
		t.Fatal("return instruction is gone")
	}
	return in.Args[0]
}
