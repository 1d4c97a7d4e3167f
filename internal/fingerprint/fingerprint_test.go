package fingerprint

import "testing"

func TestOf_StableUnderFieldOrder(t *testing.T) {
	a := struct {
		A string
		B int
	}{A: "x", B: 1}
	b := struct {
		B int
		A string
	}{B: 1, A: "x"}

	fa, err := Of(a)
	if err != nil {
		t.Fatalf("Of(a): %v", err)
	}
	fb, err := Of(b)
	if err != nil {
		t.Fatalf("Of(b): %v", err)
	}
	if fa != fb {
		t.Fatalf("expected equal fingerprints, got %q vs %q", fa, fb)
	}
}

func TestOf_StableUnderMapKeyOrder(t *testing.T) {
	m1 := map[string]any{"z": 1, "a": 2, "m": 3}
	m2 := map[string]any{"a": 2, "m": 3, "z": 1}

	f1 := MustOf(m1)
	f2 := MustOf(m2)
	if f1 != f2 {
		t.Fatalf("expected equal fingerprints, got %q vs %q", f1, f2)
	}
}

func TestOf_DifferentValuesDiffer(t *testing.T) {
	f1 := MustOf(map[string]any{"genre": "horror"})
	f2 := MustOf(map[string]any{"genre": "comedy"})
	if f1 == f2 {
		t.Fatalf("expected different fingerprints for different values")
	}
}

func TestOf_NestedSliceOfMaps(t *testing.T) {
	v1 := map[string]any{
		"tags": []any{
			map[string]any{"b": 1, "a": 2},
			map[string]any{"d": 3, "c": 4},
		},
	}
	v2 := map[string]any{
		"tags": []any{
			map[string]any{"a": 2, "b": 1},
			map[string]any{"c": 4, "d": 3},
		},
	}
	if MustOf(v1) != MustOf(v2) {
		t.Fatalf("expected equal fingerprints for nested structures")
	}
}
