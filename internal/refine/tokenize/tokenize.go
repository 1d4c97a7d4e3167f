// Package tokenize extracts a closed vocabulary of refinement themes from
// free-text reactions and tags, used by the Refinement Engine's (C11)
// pattern-detection step. Uses a gojieba-segmentation-plus-fixed-keyword-set
// preprocessing shape, applied to reaction-text theme extraction instead of
// chat-query preprocessing.
package tokenize

import (
	"strings"
	"sync"

	"github.com/yanyiwu/gojieba"

	"github.com/nyx-moment/moment/internal/common"
)

var (
	jiebaOnce sync.Once
	jiebaInst *gojieba.Jieba
)

func instance() *gojieba.Jieba {
	jiebaOnce.Do(func() {
		jiebaInst = gojieba.NewJieba()
	})
	return jiebaInst
}

// Close releases the shared jieba dictionary. Safe to call at process
// shutdown; a process that never calls it simply leaks the dictionary for
// its lifetime. No finalizer releases it, and the container's cleanup does
// not call it.
func Close() {
	if jiebaInst != nil {
		jiebaInst.Free()
	}
}

// themeKeywords maps each closed-vocabulary theme to the token set that
// triggers it. Tags are matched verbatim (already closed-vocabulary by
// convention); free text is segmented and matched token-by-token.
var themeKeywords = map[string][]string{
	"too_dark":     {"dark", "disturbing", "bleak", "grim"},
	"too_violent":  {"violent", "violence", "gory", "brutal"},
	"too_slow":     {"slow", "boring", "dragged", "sluggish"},
	"too_boring":   {"boring", "dull", "bland"},
	"wrong_mood":   {"mood", "vibe", "tone"},
	"wrong_vibe":   {"vibe", "feel", "atmosphere"},
	"wrong_genre":  {"genre", "category", "type"},
	"more_of_this": {"more", "loved", "favorite", "perfect"},
	"repetitive":   {"repetitive", "samey", "similar", "again"},
}

// Themes extracts the closed set of themes present in tags (matched
// verbatim, case-insensitively) and free text (segmented via jieba, then
// matched token-by-token against themeKeywords).
func Themes(tags []string, text string) []string {
	found := map[string]bool{}

	for _, tag := range tags {
		markThemesForToken(found, strings.ToLower(tag))
	}

	for _, token := range segment(text) {
		markThemesForToken(found, strings.ToLower(token))
	}

	out := make([]string, 0, len(found))
	for theme := range found {
		out = append(out, theme)
	}
	return out
}

func markThemesForToken(found map[string]bool, token string) {
	for theme, keywords := range themeKeywords {
		for _, kw := range keywords {
			if token == kw {
				found[theme] = true
			}
		}
	}
}

func segment(text string) []string {
	text = common.CleanInvalidUTF8(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return instance().CutForSearch(text, true)
}
