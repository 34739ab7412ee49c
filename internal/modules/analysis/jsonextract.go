package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON value in model output")

func stripCodeFences(src string) string {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return strings.Trim(s, "`")
	}
	body := lines[1:]
	if strings.TrimSpace(body[len(body)-1]) == "```" {
		body = body[:len(body)-1]
	} else {
		last := strings.TrimRight(body[len(body)-1], " \t")
		body[len(body)-1] = strings.TrimSuffix(last, "```")
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

// balancedAt returns the bracket-balanced value that opens at s[start], or
// false when it never closes or a closer mismatches. Brackets inside string
// literals are ignored.
func balancedAt(s string, start int) (string, bool) {
	var stack []byte
	inString, escaped := false, false
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
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// jsonCandidates lists, in order of appearance, every syntactically valid JSON
// value in text that opens with one of the given bytes.
func jsonCandidates(text, openers string) []string {
	s := stripCodeFences(text)
	var out []string
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(openers, s[i]) < 0 {
			continue
		}
		if raw, ok := balancedAt(s, i); ok && json.Valid([]byte(raw)) {
			out = append(out, raw)
		}
	}
	return out
}

// decodeEmbedded decodes the first embedded JSON object in model output that
// fits v. Bracketed prose ahead of the object is skipped.
func decodeEmbedded(text string, v interface{}) error {
	candidates := jsonCandidates(text, "{")
	if len(candidates) == 0 {
		return errNoJSON
	}
	var lastErr error
	for _, raw := range candidates {
		if lastErr = json.Unmarshal([]byte(raw), v); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
