package types

import "fmt"

// PromoteNumeric returns the wider of two numeric types: int with int
// stays int, any float operand makes the result float. Non-numeric
// inputs yield an error type.
func PromoteNumeric(a, b *Type) *Type {
	if a == nil || b == nil {
		return NewError("nil type in promotion")
	}

	if a.IsFloat() || b.IsFloat() {
		if a.IsNumeric() && b.IsNumeric() {
			return NewFloat()
		}
	}

	if a.IsInteger() && b.IsInteger() {
		return NewInt()
	}

	return NewError("cannot promote non-numeric types")
}

// Unify computes the most specific type compatible with both inputs:
// equal types unify to a clone, two numerics unify to their promotion,
// unknown absorbs into the other operand, and everything else is an
// error type.
func Unify(a, b *Type) *Type {
	if a == nil || b == nil {
		return NewError("nil type in unification")
	}

	if a.Equals(b) {
		return a.Clone()
	}

	if a.IsNumeric() && b.IsNumeric() {
		return PromoteNumeric(a, b)
	}

	if a.IsUnknown() {
		return b.Clone()
	}
	if b.IsUnknown() {
		return a.Clone()
	}

	return NewError(fmt.Sprintf("cannot unify incompatible types: %s and %s", a, b))
}

// CommonType folds Unify over a non-empty type list, stopping at the
// first error.
func CommonType(list []*Type) *Type {
	if len(list) == 0 {
		return NewError("no types to unify")
	}

	result := list[0].Clone()
	for _, t := range list[1:] {
		result = Unify(result, t)
		if result.IsError() {
			break
		}
	}
	return result
}
