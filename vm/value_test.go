package vm

import "testing"

func TestToBoolCoercions(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Null, false},
		{True, true},
		{False, false},
		{Int32(0), false},
		{Int32(-3), true},
		{Int64(1), true},
		{Float64(0), false},
		{Float64(1e-12), false}, // within epsilon of zero
		{Float64(0.5), true},
		{Str(""), false},
		{Str("x"), true},
		{ObjRef(NewObject(NewClass("Box", nil))), true},
	}
	for _, c := range cases {
		if got := c.v.ToBool(DefaultEpsilon); got != c.want {
			t.Errorf("ToBool(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestToInt64Coercions(t *testing.T) {
	if n, err := Str(" 42 ").ToInt64(); err != nil || n != 42 {
		t.Errorf("ToInt64(\" 42 \") = %d, %v", n, err)
	}
	if n, err := Float64(3.9).ToInt64(); err != nil || n != 3 {
		t.Errorf("ToInt64(3.9) = %d, %v; want truncation toward zero", n, err)
	}
	if n, err := Float64(-3.9).ToInt64(); err != nil || n != -3 {
		t.Errorf("ToInt64(-3.9) = %d, %v; want truncation toward zero", n, err)
	}
	if n, err := True.ToInt64(); err != nil || n != 1 {
		t.Errorf("ToInt64(true) = %d, %v", n, err)
	}
	if _, err := Str("not a number").ToInt64(); !IsKind(err, TypeMismatch) {
		t.Errorf("ToInt64(garbage) error = %v, want TypeMismatch", err)
	}
}

func TestEqualIsComponentWise(t *testing.T) {
	if !Int32(5).Equal(Int32(5)) {
		t.Error("Int32(5) != Int32(5)")
	}
	if Int32(5).Equal(Int64(5)) {
		t.Error("cross-kind equality must be false")
	}
	if !Str("a").Equal(Str("a")) {
		t.Error("equal strings compare unequal")
	}
	o := NewObject(NewClass("Box", nil))
	if !ObjRef(o).Equal(ObjRef(o)) {
		t.Error("same object handle compares unequal")
	}
	if ObjRef(o).Equal(ObjRef(NewObject(NewClass("Box", nil)))) {
		t.Error("distinct objects compare equal (reference semantics)")
	}
}

func TestHashDistinguishesKinds(t *testing.T) {
	// Int32(0), Int64(0), Null, and False all carry a zero payload; the
	// tag prefix must keep their hashes apart so hashed-set containment
	// never conflates them.
	hashes := map[uint64]string{}
	for _, c := range []struct {
		name string
		v    Value
	}{
		{"null", Null}, {"i32", Int32(0)}, {"i64", Int64(0)}, {"false", False}, {"empty", Str("")},
	} {
		h := c.v.Hash()
		if prev, dup := hashes[h]; dup {
			t.Errorf("hash collision between %s and %s", prev, c.name)
		}
		hashes[h] = c.name
	}

	if Str("abc").Hash() != Str("abc").Hash() {
		t.Error("equal strings must hash equally")
	}
}

func TestToStringValueRendersNullEmpty(t *testing.T) {
	if got := Null.ToStringValue(); got != "" {
		t.Errorf("null renders %q, want empty", got)
	}
	if got := Int32(5).ToStringValue(); got != "5" {
		t.Errorf("Int32(5) renders %q", got)
	}
	if got := True.ToStringValue(); got != "true" {
		t.Errorf("true renders %q", got)
	}
}
