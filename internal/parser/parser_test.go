package parser

import (
	"testing"

	"github.com/rill-lang/rill/internal/ast"
)

func parseOne(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ParseSource(src)
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	return prog
}

func TestParseSimpleFunction(t *testing.T) {
	prog := parseOne(t, "def f(x):\n    return x * 2\n")

	if len(prog.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Functions))
	}

	fn := prog.Functions[0]
	if fn.Name != "f" {
		t.Errorf("expected function name f, got %s", fn.Name)
	}
	if len(fn.Params) != 1 || fn.Params[0] != "x" {
		t.Errorf("expected params [x], got %v", fn.Params)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(fn.Body.Stmts))
	}

	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected return statement, got %T", fn.Body.Stmts[0])
	}
	if got := ast.Dump(ret.Value); got != "(* x 2)" {
		t.Errorf("expected (* x 2), got %s", got)
	}
}

func TestPrecedence(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(+ 1 (* 2 3))"},
		{"(1 + 2) * 3", "(* (+ 1 2) 3)"},
		{"a < b + 1", "(< a (+ b 1))"},
		{"a == b or c != d", "(or (== a b) (!= c d))"},
		{"x and y or z", "(or (and x y) z)"},
		{"-x * 2", "(* (- x) 2)"},
		{"not a == b", "(not (== a b))"},
		{"1 - 2 - 3", "(- (- 1 2) 3)"},
	}

	for _, tc := range cases {
		prog := parseOne(t, "def t():\n    return "+tc.src+"\n")
		ret := prog.Functions[0].Body.Stmts[0].(*ast.Return)
		if got := ast.Dump(ret.Value); got != tc.want {
			t.Errorf("parse(%q) = %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestElifDesugarsToNestedIf(t *testing.T) {
	src := `def f(x):
    if x > 2:
        return 2
    elif x > 1:
        return 1
    else:
        return 0
`
	prog := parseOne(t, src)

	outer, ok := prog.Functions[0].Body.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("expected if, got %T", prog.Functions[0].Body.Stmts[0])
	}

	inner, ok := outer.Else.(*ast.If)
	if !ok {
		t.Fatalf("expected elif to become nested if, got %T", outer.Else)
	}
	if inner.Else == nil {
		t.Error("expected trailing else on the nested if")
	}
}

func TestWhileAndAssignment(t *testing.T) {
	src := `def count(n):
    i = 0
    while i < n:
        i = i + 1
    return i
`
	prog := parseOne(t, src)
	body := prog.Functions[0].Body.Stmts

	if _, ok := body[0].(*ast.Assign); !ok {
		t.Errorf("expected assignment, got %T", body[0])
	}

	loop, ok := body[1].(*ast.While)
	if !ok {
		t.Fatalf("expected while, got %T", body[1])
	}
	loopBody := loop.Body.(*ast.Block)
	if len(loopBody.Stmts) != 1 {
		t.Errorf("expected 1 loop statement, got %d", len(loopBody.Stmts))
	}
}

func TestPrintStatementForms(t *testing.T) {
	for _, src := range []string{
		"def f():\n    print 42\n",
		"def f():\n    print(42)\n",
	} {
		prog := parseOne(t, src)
		if _, ok := prog.Functions[0].Body.Stmts[0].(*ast.Print); !ok {
			t.Errorf("parse(%q): expected print statement", src)
		}
	}
}

func TestCallArguments(t *testing.T) {
	prog := parseOne(t, "def f():\n    return g(1, 2 + 3, h())\n")
	ret := prog.Functions[0].Body.Stmts[0].(*ast.Return)

	call, ok := ret.Value.(*ast.Call)
	if !ok {
		t.Fatalf("expected call, got %T", ret.Value)
	}
	if call.Callee != "g" || len(call.Args) != 3 {
		t.Errorf("expected g with 3 args, got %s with %d", call.Callee, len(call.Args))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"def f(:\n    return 1\n",
		"def f():\nreturn 1\n",
		"x = 1\n", // statements are only legal inside functions
		"def f():\n    return 1 +\n",
	}

	for _, src := range cases {
		if _, err := ParseSource(src); err == nil {
			t.Errorf("expected parse error for %q", src)
		}
	}
}
