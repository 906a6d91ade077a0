package classify

import (
	"encoding/json"
	"strings"
)

// ExtractJSONList pulls the first well-formed JSON list out of model output
// that may be wrapped in markdown fences or surrounding prose. Returns false
// when no parseable list can be found.
func ExtractJSONList(text string) (string, bool) {
	text = stripFences(strings.TrimSpace(text))

	if candidate := betweenBrackets(text); candidate != "" && json.Valid([]byte(candidate)) {
		return candidate, true
	}

	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") && json.Valid([]byte(text)) {
		return text, true
	}
	return "", false
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	} else {
		return text
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// betweenBrackets returns the substring spanning the first '[' through the
// last ']', or empty when no such span exists.
func betweenBrackets(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
