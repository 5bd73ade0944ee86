// Package llmjson decodes model responses that are supposed to carry a JSON
// object but often arrive fenced, wrapped in prose, or loosely typed.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[ \t]*(?:json|JSON)?[ \t]*\\r?\\n?(.*?)```")

// Extract returns the JSON object carried by raw. It tries the whole trimmed
// text first, then the body of a fenced code block, then the span between the
// first '{' and the last '}'. ok is false when none of them decodes to an object.
func Extract(raw string) (obj map[string]any, ok bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	if obj, ok := decodeObject(text); ok {
		return obj, true
	}

	if m := fencePattern.FindStringSubmatch(text); len(m) == 2 {
		if obj, ok := decodeObject(strings.TrimSpace(m[1])); ok {
			return obj, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := decodeObject(text[start : end+1]); ok {
			return obj, true
		}
	}

	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
