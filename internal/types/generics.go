package types

// Instantiator substitutes concrete types for generic parameters. It
// holds a binding table filled either directly or by solving a
// constraint set.
type Instantiator struct {
	bindings map[string]*Type
}

// NewInstantiator creates an instantiator with no bindings.
func NewInstantiator() *Instantiator {
	return &Instantiator{bindings: map[string]*Type{}}
}

// Bind records a concrete type for a generic parameter name.
func (in *Instantiator) Bind(param string, concrete *Type) {
	in.bindings[param] = concrete
}

// Binding returns the bound type for a parameter, or nil.
func (in *Instantiator) Binding(param string) *Type {
	return in.bindings[param]
}

// Clear drops all bindings.
func (in *Instantiator) Clear() {
	in.bindings = map[string]*Type{}
}

// Instantiate rewrites a type, substituting bound generic parameters.
// An unbound generic parameter passes through unresolved; primitives
// clone as-is.
func (in *Instantiator) Instantiate(t *Type) *Type {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case KindGeneric:
		if bound := in.Binding(t.Generic().Param); bound != nil {
			return bound.Clone()
		}
		return t.Clone()

	case KindFunction:
		d := t.Function()
		params := make([]*Type, len(d.Params))
		for i, p := range d.Params {
			params[i] = in.Instantiate(p)
		}
		return NewFunction(params, in.Instantiate(d.Return))

	case KindList:
		return NewList(in.Instantiate(t.Data.(*ListData).Elem))

	case KindTuple:
		d := t.Data.(*TupleData)
		elems := make([]*Type, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = in.Instantiate(e)
		}
		return NewTuple(elems)

	case KindUnion:
		d := t.Data.(*UnionData)
		members := make([]*Type, len(d.Members))
		for i, m := range d.Members {
			members[i] = in.Instantiate(m)
		}
		return NewUnion(members)

	default:
		return t.Clone()
	}
}

// ====== Constraint solving ======

// ConstraintKind classifies a type constraint.
type ConstraintKind int

const (
	ConstraintEquals ConstraintKind = iota
	ConstraintSubtype
	ConstraintImplements
	ConstraintNumeric
	ConstraintComparable
)

// Constraint relates two types (Right is nil for unary kinds).
type Constraint struct {
	Kind  ConstraintKind
	Left  *Type
	Right *Type
}

// Constraints is a flat set of constraints solved by repeated scanning.
type Constraints struct {
	list []Constraint
}

// Add appends a constraint.
func (cs *Constraints) Add(kind ConstraintKind, left, right *Type) {
	cs.list = append(cs.list, Constraint{Kind: kind, Left: left, Right: right})
}

// Clear drops all constraints.
func (cs *Constraints) Clear() {
	cs.list = nil
}

// Solve scans the constraint list until a full pass adds no new binding.
// EQUALS binds an unbound generic to the concrete side; NUMERIC and
// COMPARABLE default an unbound generic to int. Solve always reports
// success: unsatisfiable constraint sets are not detected.
func (cs *Constraints) Solve(in *Instantiator) bool {
	changed := true
	for changed {
		changed = false

		for _, c := range cs.list {
			switch c.Kind {
			case ConstraintEquals:
				if g := c.Left.Generic(); g != nil && c.Right != nil && c.Right.Kind != KindGeneric {
					if in.Binding(g.Param) == nil {
						in.Bind(g.Param, c.Right.Clone())
						changed = true
					}
				} else if g := c.Right.Generic(); g != nil && c.Left != nil && c.Left.Kind != KindGeneric {
					if in.Binding(g.Param) == nil {
						in.Bind(g.Param, c.Left.Clone())
						changed = true
					}
				}

			case ConstraintNumeric, ConstraintComparable:
				if g := c.Left.Generic(); g != nil {
					if in.Binding(g.Param) == nil {
						in.Bind(g.Param, NewInt())
						changed = true
					}
				}
			}
		}
	}

	return true
}
