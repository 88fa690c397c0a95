// Basic type system for the Rill language.
// Every Type value is independently owned: sharing a type between two
// holders requires Clone, never aliasing, because type nodes are
// specialized in place per use site (generic instantiation, flow merges).
package types

import (
	"fmt"
	"strings"
)

// ====== Kinds ======

// Kind discriminates the closed set of type variants.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindVoid
	KindFunction
	KindList
	KindTuple
	KindUnion
	KindDiscriminatedUnion
	KindGeneric
	KindInterface
	KindUnknown
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindVoid:
		return "void"
	case KindFunction:
		return "function"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindUnion:
		return "union"
	case KindDiscriminatedUnion:
		return "discriminated_union"
	case KindGeneric:
		return "generic"
	case KindInterface:
		return "interface"
	case KindUnknown:
		return "unknown"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Type is a type in the Rill type system. Composite kinds carry their
// shape in Data; consumers access it through the typed accessors below.
type Type struct {
	Kind Kind
	Data interface{}
}

// ====== Composite payloads ======

// FunctionData is the shape of a function type.
type FunctionData struct {
	Params []*Type
	Return *Type
}

// ListData is the element type of a homogeneous list.
type ListData struct {
	Elem *Type
}

// TupleData is the ordered element types of a tuple.
type TupleData struct {
	Elems []*Type
}

// UnionData is the member set of an untagged union.
type UnionData struct {
	Members []*Type
}

// Variant is one tagged alternative of a discriminated union.
type Variant struct {
	Tag  string
	Type *Type
}

// DiscriminatedUnionData extends the union shape with per-member tags.
type DiscriminatedUnionData struct {
	Variants []Variant
}

// GenericData is an uninstantiated type parameter.
type GenericData struct {
	Param       string
	Constraints []*Type
}

// Method is one required method of an interface.
type Method struct {
	Name      string
	Signature *Type // always KindFunction
}

// InterfaceData is a structural interface: a name plus required methods.
type InterfaceData struct {
	Name    string
	Methods []Method
}

// ErrorData carries the diagnostic message of an error type.
type ErrorData struct {
	Message string
}

// ====== Constructors (the factory surface) ======

// NewInt returns a fresh int type.
func NewInt() *Type { return &Type{Kind: KindInt} }

// NewFloat returns a fresh float type.
func NewFloat() *Type { return &Type{Kind: KindFloat} }

// NewBool returns a fresh bool type.
func NewBool() *Type { return &Type{Kind: KindBool} }

// NewString returns a fresh string type.
func NewString() *Type { return &Type{Kind: KindString} }

// NewVoid returns a fresh void type.
func NewVoid() *Type { return &Type{Kind: KindVoid} }

// NewUnknown returns a fresh unknown type. Unknown is assignable-from
// anything; it is the placeholder for not-yet-inferred positions.
func NewUnknown() *Type { return &Type{Kind: KindUnknown} }

// NewError returns an error type carrying a diagnostic message. Error
// types propagate through unification without masking.
func NewError(message string) *Type {
	return &Type{Kind: KindError, Data: &ErrorData{Message: message}}
}

// NewFunction returns a function type. The parameter and return types are
// owned by the new type.
func NewFunction(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunction, Data: &FunctionData{Params: params, Return: ret}}
}

// NewList returns a list type with the given element type.
func NewList(elem *Type) *Type {
	return &Type{Kind: KindList, Data: &ListData{Elem: elem}}
}

// NewTuple returns a tuple type with the given element types.
func NewTuple(elems []*Type) *Type {
	return &Type{Kind: KindTuple, Data: &TupleData{Elems: elems}}
}

// NewUnion returns an untagged union of the given member types.
func NewUnion(members []*Type) *Type {
	return &Type{Kind: KindUnion, Data: &UnionData{Members: members}}
}

// NewDiscriminatedUnion returns a tagged union over the given variants.
func NewDiscriminatedUnion(variants []Variant) *Type {
	return &Type{Kind: KindDiscriminatedUnion, Data: &DiscriminatedUnionData{Variants: variants}}
}

// NewGeneric returns a generic type parameter.
func NewGeneric(param string, constraints []*Type) *Type {
	return &Type{Kind: KindGeneric, Data: &GenericData{Param: param, Constraints: constraints}}
}

// NewInterface returns a structural interface type.
func NewInterface(name string, methods []Method) *Type {
	return &Type{Kind: KindInterface, Data: &InterfaceData{Name: name, Methods: methods}}
}

// ====== Accessors ======

// Function returns the function payload, or nil for other kinds.
func (t *Type) Function() *FunctionData {
	if t == nil || t.Kind != KindFunction {
		return nil
	}
	return t.Data.(*FunctionData)
}

// Generic returns the generic payload, or nil for other kinds.
func (t *Type) Generic() *GenericData {
	if t == nil || t.Kind != KindGeneric {
		return nil
	}
	return t.Data.(*GenericData)
}

// Interface returns the interface payload, or nil for other kinds.
func (t *Type) Interface() *InterfaceData {
	if t == nil || t.Kind != KindInterface {
		return nil
	}
	return t.Data.(*InterfaceData)
}

// ErrorMessage returns the message of an error type, or "".
func (t *Type) ErrorMessage() string {
	if t == nil || t.Kind != KindError {
		return ""
	}
	return t.Data.(*ErrorData).Message
}

// VariantType returns the payload type of the variant with the given tag
// in a discriminated union, or nil.
func (t *Type) VariantType(tag string) *Type {
	if t == nil || t.Kind != KindDiscriminatedUnion {
		return nil
	}
	for _, v := range t.Data.(*DiscriminatedUnionData).Variants {
		if v.Tag == tag {
			return v.Type
		}
	}
	return nil
}

// unionMembers returns the member types of both union kinds.
func (t *Type) unionMembers() []*Type {
	switch t.Kind {
	case KindUnion:
		return t.Data.(*UnionData).Members
	case KindDiscriminatedUnion:
		variants := t.Data.(*DiscriminatedUnionData).Variants
		members := make([]*Type, len(variants))
		for i, v := range variants {
			members[i] = v.Type
		}
		return members
	}
	return nil
}

// ====== Predicates ======

// IsNumeric reports whether the type is int or float.
func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindFloat)
}

// IsPrimitive reports whether the type is one of the scalar kinds.
func (t *Type) IsPrimitive() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindString:
		return true
	}
	return false
}

// IsInteger reports whether the type is int.
func (t *Type) IsInteger() bool { return t != nil && t.Kind == KindInt }

// IsFloat reports whether the type is float.
func (t *Type) IsFloat() bool { return t != nil && t.Kind == KindFloat }

// IsBool reports whether the type is bool.
func (t *Type) IsBool() bool { return t != nil && t.Kind == KindBool }

// IsString reports whether the type is string.
func (t *Type) IsString() bool { return t != nil && t.Kind == KindString }

// IsVoid reports whether the type is void.
func (t *Type) IsVoid() bool { return t != nil && t.Kind == KindVoid }

// IsUnknown reports whether the type is unknown.
func (t *Type) IsUnknown() bool { return t != nil && t.Kind == KindUnknown }

// IsError reports whether the type is an error type.
func (t *Type) IsError() bool { return t != nil && t.Kind == KindError }

// IsFunction reports whether the type is a function type.
func (t *Type) IsFunction() bool { return t != nil && t.Kind == KindFunction }

// ====== Structural equality ======

// Equals reports structural equality: matching kind, and recursively
// matching shape for composite kinds. Union member order is irrelevant.
func (t *Type) Equals(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}

	switch t.Kind {
	case KindFunction:
		a, b := t.Function(), other.Function()
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !a.Params[i].Equals(b.Params[i]) {
				return false
			}
		}
		return a.Return.Equals(b.Return)

	case KindList:
		return t.Data.(*ListData).Elem.Equals(other.Data.(*ListData).Elem)

	case KindTuple:
		a, b := t.Data.(*TupleData), other.Data.(*TupleData)
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !a.Elems[i].Equals(b.Elems[i]) {
				return false
			}
		}
		return true

	case KindUnion:
		a, b := t.unionMembers(), other.unionMembers()
		if len(a) != len(b) {
			return false
		}
		for _, m := range a {
			found := false
			for _, o := range b {
				if m.Equals(o) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	case KindDiscriminatedUnion:
		a := t.Data.(*DiscriminatedUnionData)
		b := other.Data.(*DiscriminatedUnionData)
		if len(a.Variants) != len(b.Variants) {
			return false
		}
		for _, v := range a.Variants {
			ot := other.VariantType(v.Tag)
			if ot == nil || !v.Type.Equals(ot) {
				return false
			}
		}
		return true

	case KindGeneric:
		return t.Generic().Param == other.Generic().Param

	case KindInterface:
		a, b := t.Interface(), other.Interface()
		if a.Name != b.Name || len(a.Methods) != len(b.Methods) {
			return false
		}
		for _, m := range a.Methods {
			om := b.method(m.Name)
			if om == nil || !m.Signature.Equals(om) {
				return false
			}
		}
		return true

	default:
		// Scalar kinds (and unknown/error) are equal when kinds match.
		return true
	}
}

func (d *InterfaceData) method(name string) *Type {
	for _, m := range d.Methods {
		if m.Name == name {
			return m.Signature
		}
	}
	return nil
}

// ====== Assignability ======

// AssignableFrom reports whether a value of type other can be bound to a
// slot of type t. The default rule is equality; float additionally
// accepts int (widening only), a union accepts anything assignable to any
// member, an interface accepts a type structurally exposing every
// required method with an identical signature, and unknown accepts
// anything.
func (t *Type) AssignableFrom(other *Type) bool {
	if t == nil || other == nil {
		return false
	}

	switch t.Kind {
	case KindUnknown:
		return true

	case KindFloat:
		return other.Kind == KindFloat || other.Kind == KindInt

	case KindUnion, KindDiscriminatedUnion:
		for _, m := range t.unionMembers() {
			if m.AssignableFrom(other) {
				return true
			}
		}
		return false

	case KindInterface:
		// Exact-signature structural check. Not subtype-polymorphic:
		// parameter and return types must match exactly.
		cand := other.Interface()
		if cand == nil {
			return false
		}
		for _, m := range t.Interface().Methods {
			sig := cand.method(m.Name)
			if sig == nil || !m.Signature.Equals(sig) {
				return false
			}
		}
		return true

	default:
		return t.Equals(other)
	}
}

// ====== Deep copy ======

// Clone returns a deep copy. The result shares no nodes with the
// receiver.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}

	switch t.Kind {
	case KindFunction:
		d := t.Function()
		params := make([]*Type, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Clone()
		}
		return NewFunction(params, d.Return.Clone())

	case KindList:
		return NewList(t.Data.(*ListData).Elem.Clone())

	case KindTuple:
		d := t.Data.(*TupleData)
		elems := make([]*Type, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = e.Clone()
		}
		return NewTuple(elems)

	case KindUnion:
		d := t.Data.(*UnionData)
		members := make([]*Type, len(d.Members))
		for i, m := range d.Members {
			members[i] = m.Clone()
		}
		return NewUnion(members)

	case KindDiscriminatedUnion:
		d := t.Data.(*DiscriminatedUnionData)
		variants := make([]Variant, len(d.Variants))
		for i, v := range d.Variants {
			variants[i] = Variant{Tag: v.Tag, Type: v.Type.Clone()}
		}
		return NewDiscriminatedUnion(variants)

	case KindGeneric:
		d := t.Generic()
		constraints := make([]*Type, len(d.Constraints))
		for i, c := range d.Constraints {
			constraints[i] = c.Clone()
		}
		return NewGeneric(d.Param, constraints)

	case KindInterface:
		d := t.Interface()
		methods := make([]Method, len(d.Methods))
		for i, m := range d.Methods {
			methods[i] = Method{Name: m.Name, Signature: m.Signature.Clone()}
		}
		return NewInterface(d.Name, methods)

	case KindError:
		return NewError(t.ErrorMessage())

	default:
		return &Type{Kind: t.Kind}
	}
}

// ====== String form ======

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind {
	case KindFunction:
		d := t.Function()
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), d.Return)

	case KindList:
		return fmt.Sprintf("list[%s]", t.Data.(*ListData).Elem)

	case KindTuple:
		d := t.Data.(*TupleData)
		elems := make([]string, len(d.Elems))
		for i, e := range d.Elems {
			elems[i] = e.String()
		}
		return fmt.Sprintf("tuple[%s]", strings.Join(elems, ", "))

	case KindUnion:
		d := t.Data.(*UnionData)
		members := make([]string, len(d.Members))
		for i, m := range d.Members {
			members[i] = m.String()
		}
		return strings.Join(members, " | ")

	case KindDiscriminatedUnion:
		d := t.Data.(*DiscriminatedUnionData)
		variants := make([]string, len(d.Variants))
		for i, v := range d.Variants {
			variants[i] = fmt.Sprintf("%s(%s)", v.Tag, v.Type)
		}
		return strings.Join(variants, " | ")

	case KindGeneric:
		return t.Generic().Param

	case KindInterface:
		d := t.Interface()
		methods := make([]string, len(d.Methods))
		for i, m := range d.Methods {
			methods[i] = fmt.Sprintf("%s: %s", m.Name, m.Signature)
		}
		return fmt.Sprintf("interface %s { %s }", d.Name, strings.Join(methods, "; "))

	case KindError:
		return fmt.Sprintf("error(%s)", t.ErrorMessage())

	default:
		return t.Kind.String()
	}
}
