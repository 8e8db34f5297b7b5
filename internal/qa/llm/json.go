package llm

import (
	"encoding/json"
	"fmt"
)

// ExtractJSONObject tolerates markdown-fenced or prose-wrapped model output
// by extracting the longest balanced {...} or [...] span that parses. An
// array result is rejected: callers expect an object.
func ExtractJSONObject(s string) (map[string]any, error) {
	span, ok := longestBalancedSpan(s)
	if !ok {
		return nil, fmt.Errorf("no JSON value found in response")
	}
	var v any
	if err := json.Unmarshal([]byte(span), &v); err != nil {
		return nil, fmt.Errorf("parse extracted JSON: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("extracted JSON is not an object")
	}
	return obj, nil
}

// longestBalancedSpan scans for top-level balanced {...}/[...] spans that
// parse as JSON and returns the longest one.
func longestBalancedSpan(s string) (string, bool) {
	var best string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end, ok := matchBalanced(s, i)
		if !ok {
			continue
		}
		candidate := s[i : end+1]
		if len(candidate) > len(best) && json.Valid([]byte(candidate)) {
			best = candidate
		}
		i = end
	}
	return best, best != ""
}

// matchBalanced finds the close matching the bracket at start, honouring
// string literals and escapes.
func matchBalanced(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
			if depth < 0 {
				return 0, false
			}
		}
	}
	return 0, false
}
