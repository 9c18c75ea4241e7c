package jsonutil

import (
	"strings"
)

// ExtractObject returns the first balanced JSON object in raw and its byte offset.
func ExtractObject(raw string) (string, int, bool) {
	return extractJSONObject(raw)
}

// ExtractAfter returns the first balanced JSON object that follows marker.
// The reported offset is relative to the start of raw.
func ExtractAfter(raw, marker string) (string, int, bool) {
	if marker == "" {
		return extractJSONObject(raw)
	}
	idx := strings.Index(raw, marker)
	if idx == -1 {
		return "", -1, false
	}
	base := idx + len(marker)
	obj, rel, ok := extractJSONObject(raw[base:])
	if !ok {
		return "", -1, false
	}
	return obj, base + rel, true
}

func extractJSONObject(raw string) (string, int, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", -1, false
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], start, true
			}
		}
	}
	return "", -1, false
}
