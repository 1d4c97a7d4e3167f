// Package common holds small text-sanitization helpers shared by the
// Refinement Engine's (C11) tokenizer and the Pipeline Orchestrator's (C13)
// last-resort generator (D5).
package common

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ParseLLMJsonResponse parses a JSON response from an LLM, handling cases
// where the JSON is wrapped in a markdown code block.
func ParseLLMJsonResponse(content string, target interface{}) error {
	if err := json.Unmarshal([]byte(content), target); err == nil {
		return nil
	}

	re := regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	matches := re.FindStringSubmatch(content)
	if len(matches) >= 2 {
		jsonContent := strings.TrimSpace(matches[1])
		return json.Unmarshal([]byte(jsonContent), target)
	}

	return json.Unmarshal([]byte(content), target)
}

// CleanInvalidUTF8 strips invalid UTF-8 bytes and \x00 from s, used before
// tokenizing free-text reactions submitted to Refine.
func CleanInvalidUTF8(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if r == 0 {
			i += size
			continue
		}
		b.WriteRune(r)
		i += size
	}

	return b.String()
}
