package mir

import (
	"fmt"
	"io"
	"math"
)

// Interp executes MIR directly. It exists so programs can run without a
// native backend and so optimized and unoptimized modules can be checked
// for identical behavior.
type Interp struct {
	Out io.Writer

	// MaxSteps bounds total executed instructions per Run; 0 means the
	// default. Runaway loops return an error instead of hanging.
	MaxSteps int

	module *Module
	steps  int
	depth  int
}

const (
	defaultMaxSteps = 50_000_000
	maxCallDepth    = 10_000
)

// NewInterp creates an interpreter writing print output to out.
func NewInterp(out io.Writer) *Interp {
	return &Interp{Out: out}
}

// rtval is a runtime value: a float, or a string on its way to print.
type rtval struct {
	f     float64
	s     string
	isStr bool
}

type frame struct {
	args  []float64
	vals  map[ID]rtval
	slots map[ID]rtval
}

// Run executes a named function with the given arguments and returns its
// result.
func (in *Interp) Run(m *Module, name string, args []float64) (float64, error) {
	fn := m.Find(name)
	if fn == nil {
		return 0, fmt.Errorf("unknown function: %s", name)
	}
	if len(args) != len(fn.Params) {
		return 0, fmt.Errorf("%s expects %d arguments, got %d", name, len(fn.Params), len(args))
	}

	in.module = m
	in.steps = 0
	in.depth = 0
	return in.call(fn, args)
}

func (in *Interp) call(fn *Function, args []float64) (float64, error) {
	in.depth++
	defer func() { in.depth-- }()
	if in.depth > maxCallDepth {
		return 0, fmt.Errorf("call depth exceeded in %s", fn.Name)
	}

	fr := &frame{args: args, vals: map[ID]rtval{}, slots: map[ID]rtval{}}

	limit := in.MaxSteps
	if limit == 0 {
		limit = defaultMaxSteps
	}

	b := fn.Entry()
	if b == nil {
		return 0, nil
	}
	for {
		var next *Block
		for _, id := range b.Instrs {
			i := fn.Instr(id)
			if i == nil || i.Erased() {
				continue
			}
			in.steps++
			if in.steps > limit {
				return 0, fmt.Errorf("step limit exceeded in %s", fn.Name)
			}

			switch i.Op {
			case OpBr:
				next = i.Target
			case OpCondBr:
				if fr.eval(i.Args[0]).f != 0 {
					next = i.True
				} else {
					next = i.False
				}
			case OpRet:
				if len(i.Args) == 0 {
					return 0, nil
				}
				return fr.eval(i.Args[0]).f, nil
			default:
				if err := in.step(fn, fr, i); err != nil {
					return 0, err
				}
			}
			if next != nil {
				break
			}
		}
		if next == nil {
			// Fell off a block with no terminator; treat as ret 0.
			return 0, nil
		}
		b = next
	}
}

func (in *Interp) step(fn *Function, fr *frame, i *Instr) error {
	switch i.Op {
	case OpAlloca:
		fr.slots[i.ID] = rtval{}

	case OpLoad:
		fr.vals[i.ID] = fr.slots[i.Args[0].Ref]

	case OpStore:
		fr.slots[i.Args[0].Ref] = fr.eval(i.Args[1])

	case OpCall:
		return in.execCall(fn, fr, i)

	case OpCmp, OpICmp:
		a, b := fr.eval(i.Args[0]).f, fr.eval(i.Args[1]).f
		fr.vals[i.ID] = rtval{f: boolVal(comparePred(i.Pred, a, b))}

	case OpAnd:
		a, b := fr.eval(i.Args[0]).f, fr.eval(i.Args[1]).f
		fr.vals[i.ID] = rtval{f: boolVal(a != 0 && b != 0)}

	case OpOr:
		a, b := fr.eval(i.Args[0]).f, fr.eval(i.Args[1]).f
		fr.vals[i.ID] = rtval{f: boolVal(a != 0 || b != 0)}

	case OpCast:
		v := fr.eval(i.Args[0]).f
		switch i.To {
		case ScalarBool:
			v = boolVal(v != 0)
		case ScalarInt:
			v = float64(int64(v))
		}
		fr.vals[i.ID] = rtval{f: v}

	default:
		v, err := arith(i.Op, fr.eval(i.Args[0]).f, fr.eval(i.Args[1]).f)
		if err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
		fr.vals[i.ID] = rtval{f: v}
	}
	return nil
}

func (in *Interp) execCall(fn *Function, fr *frame, i *Instr) error {
	if i.Callee == "print" {
		in.print(fr.eval(i.Args[0]))
		fr.vals[i.ID] = rtval{}
		return nil
	}

	callee := in.module.Find(i.Callee)
	if callee == nil {
		return fmt.Errorf("unknown function: %s", i.Callee)
	}
	args := make([]float64, len(i.Args))
	for idx, a := range i.Args {
		args[idx] = fr.eval(a).f
	}
	ret, err := in.call(callee, args)
	if err != nil {
		return err
	}
	fr.vals[i.ID] = rtval{f: ret}
	return nil
}

// print mirrors the runtime helper: integer-valued floats print without
// decimal places, everything else with six.
func (in *Interp) print(v rtval) {
	if in.Out == nil {
		return
	}
	if v.isStr {
		fmt.Fprintln(in.Out, v.s)
		return
	}
	if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
		fmt.Fprintf(in.Out, "%.0f\n", v.f)
	} else {
		fmt.Fprintf(in.Out, "%.6f\n", v.f)
	}
}

func (fr *frame) eval(v Value) rtval {
	switch v.Kind {
	case ValConstInt:
		return rtval{f: float64(v.Int64)}
	case ValConstFloat:
		return rtval{f: v.Float64}
	case ValConstString:
		return rtval{s: v.Str, isStr: true}
	case ValRef:
		return fr.vals[v.Ref]
	case ValParam:
		return rtval{f: fr.args[v.Index]}
	default:
		return rtval{}
	}
}

func arith(op Op, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	case OpRem:
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return math.Mod(a, b), nil
	case OpIAdd:
		return float64(int64(a) + int64(b)), nil
	case OpISub:
		return float64(int64(a) - int64(b)), nil
	case OpIMul:
		return float64(int64(a) * int64(b)), nil
	case OpShl:
		return float64(int64(a) << uint64(int64(b))), nil
	case OpShr:
		return float64(int64(a) >> uint64(int64(b))), nil
	default:
		return 0, fmt.Errorf("cannot execute op %s", op)
	}
}

func comparePred(p Pred, a, b float64) bool {
	switch p {
	case PredEQ:
		return a == b
	case PredNE:
		return a != b
	case PredLT:
		return a < b
	case PredLE:
		return a <= b
	case PredGT:
		return a > b
	case PredGE:
		return a >= b
	}
	return false
}

func boolVal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
