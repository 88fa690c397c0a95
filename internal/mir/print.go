package mir

import (
	"fmt"
	"strings"
)

// Emission is textual: the compiler currently serializes MIR instead of
// producing machine code, and these String forms are that output.

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "fadd"
	case OpSub:
		return "fsub"
	case OpMul:
		return "fmul"
	case OpDiv:
		return "fdiv"
	case OpRem:
		return "frem"
	case OpIAdd:
		return "add"
	case OpISub:
		return "sub"
	case OpIMul:
		return "mul"
	case OpShl:
		return "shl"
	case OpShr:
		return "shr"
	case OpCmp:
		return "fcmp"
	case OpICmp:
		return "icmp"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpCast:
		return "cast"
	case OpAlloca:
		return "alloca"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpCall:
		return "call"
	case OpBr:
		return "br"
	case OpCondBr:
		return "brcond"
	case OpRet:
		return "ret"
	default:
		return "op?"
	}
}

func (p Pred) String() string {
	switch p {
	case PredEQ:
		return "eq"
	case PredNE:
		return "ne"
	case PredLT:
		return "lt"
	case PredLE:
		return "le"
	case PredGT:
		return "gt"
	case PredGE:
		return "ge"
	default:
		return "pred?"
	}
}

func (s Scalar) String() string {
	switch s {
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	default:
		return "scalar?"
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ValConstInt:
		return fmt.Sprintf("%d", v.Int64)
	case ValConstFloat:
		return fmt.Sprintf("%g", v.Float64)
	case ValConstString:
		return fmt.Sprintf("%q", v.Str)
	case ValRef:
		return fmt.Sprintf("%%%d", v.Ref)
	case ValParam:
		if v.Name != "" {
			return "%" + v.Name
		}
		return fmt.Sprintf("%%arg%d", v.Index)
	default:
		return "<invalid>"
	}
}

func (i *Instr) String() string {
	var b strings.Builder
	if i.DefinesValue() {
		fmt.Fprintf(&b, "%%%d = ", i.ID)
	}

	switch i.Op {
	case OpCmp, OpICmp:
		fmt.Fprintf(&b, "%s.%s %s, %s", i.Op, i.Pred, i.Args[0], i.Args[1])
	case OpCast:
		fmt.Fprintf(&b, "cast.%s.%s %s", i.From, i.To, i.Args[0])
	case OpAlloca:
		fmt.Fprintf(&b, "alloca %s", i.Slot)
	case OpCall:
		args := make([]string, len(i.Args))
		for idx, a := range i.Args {
			args[idx] = a.String()
		}
		fmt.Fprintf(&b, "call %s(%s)", i.Callee, strings.Join(args, ", "))
	case OpBr:
		fmt.Fprintf(&b, "br %s", i.Target.Name)
	case OpCondBr:
		fmt.Fprintf(&b, "brcond %s, %s, %s", i.Args[0], i.True.Name, i.False.Name)
	case OpRet:
		if len(i.Args) == 0 {
			b.WriteString("ret")
		} else {
			fmt.Fprintf(&b, "ret %s", i.Args[0])
		}
	default:
		args := make([]string, len(i.Args))
		for idx, a := range i.Args {
			args[idx] = a.String()
		}
		fmt.Fprintf(&b, "%s %s", i.Op, strings.Join(args, ", "))
	}
	return b.String()
}

func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", b.Name)
	for _, id := range b.Instrs {
		in := b.fn.Instr(id)
		if in == nil || in.Erased() {
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f *Function) String() string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = "%" + p
	}
	fmt.Fprintf(&b, "func %s(%s) {\n", f.Name, strings.Join(params, ", "))
	for _, bb := range f.Blocks {
		b.WriteString(bb.String())
	}
	b.WriteString("}\n")
	return b.String()
}

func (m *Module) String() string {
	if m == nil {
		return "<nil-module>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name)
	for _, f := range m.Functions {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}
