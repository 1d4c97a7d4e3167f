package tokenize

import "testing"

func TestThemes_MatchesTagsVerbatim(t *testing.T) {
	themes := Themes([]string{"Violent", "Boring"}, "")
	found := toSet(themes)
	if !found["too_violent"] {
		t.Error("expected too_violent from tag 'Violent'")
	}
	if !found["too_boring"] {
		t.Error("expected too_boring from tag 'Boring'")
	}
}

func TestThemes_EmptyInputIsEmpty(t *testing.T) {
	themes := Themes(nil, "")
	if len(themes) != 0 {
		t.Errorf("expected no themes for empty input, got %v", themes)
	}
}

func toSet(themes []string) map[string]bool {
	out := map[string]bool{}
	for _, t := range themes {
		out[t] = true
	}
	return out
}
