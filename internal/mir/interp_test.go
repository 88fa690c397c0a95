package mir

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, src, fn string, args ...float64) float64 {
	t.Helper()
	m := lower(t, src)
	got, err := NewInterp(nil).Run(m, fn, args)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return got
}

func TestInterpArithmetic(t *testing.T) {
	src := `def calc(a, b):
    return a * b + a - b / 2
`
	if got := run(t, src, "calc", 4, 2); got != 4*2+4-2.0/2 {
		t.Errorf("calc(4,2) = %g", got)
	}
}

func TestInterpBranches(t *testing.T) {
	src := `def sign(x):
    if x > 0:
        return 1
    elif x < 0:
        return 0 - 1
    return 0
`
	cases := map[float64]float64{5: 1, -3: -1, 0: 0}
	for in, want := range cases {
		if got := run(t, src, "sign", in); got != want {
			t.Errorf("sign(%g) = %g, want %g", in, got, want)
		}
	}
}

func TestInterpLoop(t *testing.T) {
	src := `def sum(n):
    total = 0
    while n > 0:
        total = total + n
        n = n - 1
    return total
`
	if got := run(t, src, "sum", 10); got != 55 {
		t.Errorf("sum(10) = %g, want 55", got)
	}
	// Condition is tested before the first iteration.
	if got := run(t, src, "sum", 0); got != 0 {
		t.Errorf("sum(0) = %g, want 0", got)
	}
}

func TestInterpRecursion(t *testing.T) {
	src := `def fib(n):
    if n < 2:
        return n
    return fib(n - 1) + fib(n - 2)
`
	if got := run(t, src, "fib", 10); got != 55 {
		t.Errorf("fib(10) = %g, want 55", got)
	}
}

func TestInterpLogic(t *testing.T) {
	src := `def both(a, b):
    return a and b

def either(a, b):
    return a or b

def negate(a):
    return not a
`
	m := lower(t, src)
	in := NewInterp(nil)

	cases := []struct {
		fn   string
		a, b float64
		want float64
	}{
		{"both", 1, 1, 1},
		{"both", 1, 0, 0},
		{"either", 0, 3, 1},
		{"either", 0, 0, 0},
	}
	for _, tc := range cases {
		got, err := in.Run(m, tc.fn, []float64{tc.a, tc.b})
		if err != nil {
			t.Fatalf("%s: %v", tc.fn, err)
		}
		if got != tc.want {
			t.Errorf("%s(%g,%g) = %g, want %g", tc.fn, tc.a, tc.b, got, tc.want)
		}
	}

	if got, _ := in.Run(m, "negate", []float64{0}); got != 1 {
		t.Errorf("negate(0) = %g, want 1", got)
	}
}

func TestInterpPrintFormatting(t *testing.T) {
	src := `def show(x):
    print(x)
    print("done")
`
	m := lower(t, src)
	var buf bytes.Buffer
	if _, err := NewInterp(&buf).Run(m, "show", []float64{3}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := buf.String(), "3\ndone\n"; got != want {
		t.Errorf("output %q, want %q", got, want)
	}

	buf.Reset()
	if _, err := NewInterp(&buf).Run(m, "show", []float64{2.5}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "2.500000\n") {
		t.Errorf("fractional values print with six places, got %q", buf.String())
	}
}

func TestInterpDivisionByZero(t *testing.T) {
	src := `def f(x):
    return x / 0
`
	m := lower(t, src)
	if _, err := NewInterp(nil).Run(m, "f", []float64{1}); err == nil {
		t.Error("expected a division by zero error")
	}
}

func TestInterpStepLimit(t *testing.T) {
	src := `def spin():
    while 1:
        x = 1
    return 0
`
	m := lower(t, src)
	in := NewInterp(nil)
	in.MaxSteps = 1000
	if _, err := in.Run(m, "spin", nil); err == nil {
		t.Error("expected the step limit to fire")
	}
}
