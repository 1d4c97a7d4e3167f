package pgvectorstore

import "testing"

func TestPQArrayRoundTrip(t *testing.T) {
	in := []string{"horror", "dark comedy", `quote"d`}
	literal := pqArray(in)
	out := parsePGArray(literal)

	if len(out) != len(in) {
		t.Fatalf("expected %d items, got %d (%v)", len(in), len(out), out)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("index %d: expected %q, got %q", i, in[i], out[i])
		}
	}
}

func TestParsePGArray_Empty(t *testing.T) {
	if out := parsePGArray("{}"); out != nil {
		t.Fatalf("expected nil for empty array, got %v", out)
	}
}
