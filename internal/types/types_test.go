package types

import "testing"

func primitives() []*Type {
	return []*Type{NewInt(), NewFloat(), NewBool(), NewString(), NewVoid()}
}

func TestUnifyIdentity(t *testing.T) {
	// Unify(T, T) == T for every primitive T.
	for _, p := range primitives() {
		got := Unify(p, p.Clone())
		if !got.Equals(p) {
			t.Errorf("Unify(%s, %s) = %s, want %s", p, p, got, p)
		}
	}
}

func TestPromoteNumeric(t *testing.T) {
	cases := []struct {
		a, b *Type
		want Kind
	}{
		{NewInt(), NewInt(), KindInt},
		{NewInt(), NewFloat(), KindFloat},
		{NewFloat(), NewInt(), KindFloat},
		{NewFloat(), NewFloat(), KindFloat},
	}

	for _, tc := range cases {
		got := PromoteNumeric(tc.a, tc.b)
		if got.Kind != tc.want {
			t.Errorf("PromoteNumeric(%s, %s) = %s, want %s", tc.a, tc.b, got, tc.want)
		}
	}

	if got := PromoteNumeric(NewString(), NewInt()); !got.IsError() {
		t.Errorf("PromoteNumeric(string, int) = %s, want error", got)
	}
}

func TestUnifyUnknownAbsorbs(t *testing.T) {
	if got := Unify(NewUnknown(), NewString()); !got.IsString() {
		t.Errorf("Unify(unknown, string) = %s, want string", got)
	}
	if got := Unify(NewBool(), NewUnknown()); !got.IsBool() {
		t.Errorf("Unify(bool, unknown) = %s, want bool", got)
	}
}

func TestUnifyIncompatible(t *testing.T) {
	if got := Unify(NewString(), NewBool()); !got.IsError() {
		t.Errorf("Unify(string, bool) = %s, want error", got)
	}
}

func TestFloatAcceptsIntOnly(t *testing.T) {
	f := NewFloat()
	if !f.AssignableFrom(NewInt()) {
		t.Error("float should accept int")
	}
	if !f.AssignableFrom(NewFloat()) {
		t.Error("float should accept float")
	}
	if NewInt().AssignableFrom(NewFloat()) {
		t.Error("int must not accept float (widening only)")
	}
	if f.AssignableFrom(NewString()) {
		t.Error("float must not accept string")
	}
}

func TestUnknownAcceptsAnything(t *testing.T) {
	u := NewUnknown()
	for _, p := range primitives() {
		if !u.AssignableFrom(p) {
			t.Errorf("unknown should accept %s", p)
		}
	}
	if !u.AssignableFrom(NewFunction(nil, NewVoid())) {
		t.Error("unknown should accept function types")
	}
}

func TestUnionAssignability(t *testing.T) {
	u := NewUnion([]*Type{NewInt(), NewString()})

	if !u.AssignableFrom(NewInt()) {
		t.Error("int | string should accept int")
	}
	if !u.AssignableFrom(NewString()) {
		t.Error("int | string should accept string")
	}
	if u.AssignableFrom(NewBool()) {
		t.Error("int | string must not accept bool")
	}
}

func TestUnionEqualityIgnoresOrder(t *testing.T) {
	a := NewUnion([]*Type{NewInt(), NewString()})
	b := NewUnion([]*Type{NewString(), NewInt()})
	if !a.Equals(b) {
		t.Error("union equality must ignore member order")
	}
}

func TestFunctionEquality(t *testing.T) {
	a := NewFunction([]*Type{NewFloat(), NewFloat()}, NewFloat())
	b := NewFunction([]*Type{NewFloat(), NewFloat()}, NewFloat())
	c := NewFunction([]*Type{NewFloat()}, NewFloat())
	d := NewFunction([]*Type{NewFloat(), NewFloat()}, NewInt())

	if !a.Equals(b) {
		t.Error("identical function types must be equal")
	}
	if a.Equals(c) {
		t.Error("arity mismatch must not be equal")
	}
	if a.Equals(d) {
		t.Error("return mismatch must not be equal")
	}
}

func TestInterfaceStructuralAssignability(t *testing.T) {
	sig := NewFunction([]*Type{NewFloat()}, NewFloat())

	want := NewInterface("Scaler", []Method{{Name: "scale", Signature: sig.Clone()}})
	has := NewInterface("Impl", []Method{
		{Name: "scale", Signature: sig.Clone()},
		{Name: "extra", Signature: NewFunction(nil, NewVoid())},
	})
	missing := NewInterface("Empty", nil)
	wrongSig := NewInterface("Impl2", []Method{
		{Name: "scale", Signature: NewFunction([]*Type{NewInt()}, NewFloat())},
	})

	if !want.AssignableFrom(has) {
		t.Error("interface with matching method should be assignable")
	}
	if want.AssignableFrom(missing) {
		t.Error("interface lacking the method must not be assignable")
	}
	if want.AssignableFrom(wrongSig) {
		t.Error("signature match is exact, not covariant")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewFunction([]*Type{NewList(NewInt())}, NewTuple([]*Type{NewFloat(), NewString()}))
	cp := orig.Clone()

	if !orig.Equals(cp) {
		t.Fatal("clone must be structurally equal")
	}

	// Mutating the clone must not reach the original.
	cp.Function().Params[0].Data.(*ListData).Elem.Kind = KindString
	if orig.Function().Params[0].Data.(*ListData).Elem.Kind != KindInt {
		t.Error("clone shares nodes with the original")
	}
}

func TestDiscriminatedUnionVariants(t *testing.T) {
	du := NewDiscriminatedUnion([]Variant{
		{Tag: "ok", Type: NewFloat()},
		{Tag: "err", Type: NewString()},
	})

	if du.VariantType("ok") == nil || !du.VariantType("ok").IsFloat() {
		t.Error("expected ok variant to be float")
	}
	if du.VariantType("missing") != nil {
		t.Error("expected nil for unknown tag")
	}
	if !du.AssignableFrom(NewString()) {
		t.Error("tagged union should accept a member type")
	}
}

func TestCommonType(t *testing.T) {
	got := CommonType([]*Type{NewInt(), NewFloat(), NewInt()})
	if !got.IsFloat() {
		t.Errorf("CommonType(int, float, int) = %s, want float", got)
	}

	bad := CommonType([]*Type{NewInt(), NewString()})
	if !bad.IsError() {
		t.Errorf("CommonType(int, string) = %s, want error", bad)
	}
}
