package llmjson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number coerces v to a finite float. Strings have every character outside
// [0-9.-] removed before parsing. def is returned when nothing usable remains.
func Number(v any, def float64) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, val)
		if cleaned == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Answers normalizes a question → answer mapping. Non-object values yield an
// empty map and null answers become empty strings.
func Answers(v any) map[string]string {
	out := map[string]string{}
	obj, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range obj {
		out[k] = String(val)
	}
	return out
}

// Strings keeps the string form of every element of a list. Anything else is
// an empty list.
func Strings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := String(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// String renders v as text. Nested values are JSON encoded.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
