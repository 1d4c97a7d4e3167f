package assets

import "testing"

func TestObjectNameFor_StripsSchemeAndSlashes(t *testing.T) {
	got := objectNameFor("https://img.example.com/posters/m1.jpg")
	want := "posters/img.example.com_posters_m1.jpg"
	if got != want {
		t.Errorf("objectNameFor() = %q, want %q", got, want)
	}
}

func TestObjectNameFor_Deterministic(t *testing.T) {
	url := "http://cdn.example.com/a/b/c.png"
	if objectNameFor(url) != objectNameFor(url) {
		t.Error("expected objectNameFor to be deterministic for the same input")
	}
}
