package client

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"
)

// normalizeJSONKeys rewrites every object key in the document to snake_case,
// recursing through nested objects and arrays. Values are carried as raw
// messages, so numbers and strings pass through byte-identical. Documents
// that do not parse are returned unchanged; the subsequent unmarshal reports
// the real error.
func normalizeJSONKeys(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return raw
	}
	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return raw
		}
		normalized := make(map[string]json.RawMessage, len(obj))
		for k, v := range obj {
			normalized[snakeCaseKey(k)] = normalizeJSONKeys(v)
		}
		out, err := json.Marshal(normalized)
		if err != nil {
			return raw
		}
		return out
	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return raw
		}
		for i, v := range arr {
			arr[i] = normalizeJSONKeys(v)
		}
		out, err := json.Marshal(arr)
		if err != nil {
			return raw
		}
		return out
	}
	return raw
}

// snakeCaseKey converts camelCase and PascalCase keys to snake_case. Keys
// already in snake_case come back unchanged. Acronym runs stay one word:
// "attemptID" becomes "attempt_id", not "attempt_i_d".
func snakeCaseKey(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	runes := []rune(key)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextIsLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
