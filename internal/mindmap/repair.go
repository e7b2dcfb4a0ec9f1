package mindmap

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceOpen     = regexp.MustCompile("(?i)```(?:json)?\\s*")
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuoteKey = regexp.MustCompile(`'([^']*)'\s*:`)
	singleQuoteVal = regexp.MustCompile(`:\s*'([^']*)'`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the first balanced JSON object out of a model response.
// Models routinely wrap the object in prose or code fences; the balanced
// scan is string-aware so braces inside values do not confuse it.
func ExtractJSON(content string) string {
	content = fenceOpen.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "```", "")

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	content = content[start:]

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return strings.TrimSpace(content[:i+1])
				}
			}
		}
	}
	// Never closed; hand the remainder to the repair pass.
	return strings.TrimSpace(content)
}

// RepairJSON applies heuristic fixes to near-valid JSON: quoting unquoted
// keys, converting single-quoted strings, stripping trailing commas and
// balancing braces/brackets. Valid input is returned untouched, which makes
// the pass idempotent.
func RepairJSON(content string) string {
	content = strings.TrimSpace(content)
	if json.Valid([]byte(content)) {
		return content
	}

	content = singleQuoteKey.ReplaceAllString(content, `"$1":`)
	content = singleQuoteVal.ReplaceAllString(content, `: "$1"`)
	content = unquotedKey.ReplaceAllString(content, `$1"$2":`)
	content = trailingComma.ReplaceAllString(content, "$1")
	content = balanceDelimiters(content)
	return content
}

// balanceDelimiters pads missing closing braces/brackets in nesting order
// and drops closers that never had an opener, tracking string literals so
// delimiters inside values are ignored.
func balanceDelimiters(content string) string {
	var out strings.Builder
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			out.WriteByte(ch)
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, ch)
			}
		case '}':
			if !inString {
				if len(stack) == 0 || stack[len(stack)-1] != '{' {
					continue // stray closer, drop it
				}
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString {
				if len(stack) == 0 || stack[len(stack)-1] != '[' {
					continue
				}
				stack = stack[:len(stack)-1]
			}
		}
		out.WriteByte(ch)
	}

	// A response cut off mid-string needs its quote closed first.
	if inString {
		out.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			out.WriteByte('}')
		} else {
			out.WriteByte(']')
		}
	}
	return out.String()
}

// decodeLoose parses untrusted model output into a generic value tree. The
// strict Outline is only built after an explicit normalization pass.
func decodeLoose(content string) (map[string]any, bool) {
	extracted := ExtractJSON(content)
	if extracted == "" {
		return nil, false
	}

	var v map[string]any
	if err := json.Unmarshal([]byte(extracted), &v); err == nil {
		return v, true
	}

	repaired := RepairJSON(extracted)
	if err := json.Unmarshal([]byte(repaired), &v); err == nil {
		return v, true
	}
	return nil, false
}
