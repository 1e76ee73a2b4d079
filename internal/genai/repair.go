package genai

import "strings"

// RepairResponse normalizes raw model output into a JSON array payload.
// Models wrap JSON in markdown fences or prose often enough that skipping
// this step causes spurious generation failures. The repair is deterministic:
// the same input always yields the same payload.
func RepairResponse(raw string) string {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if strings.HasPrefix(cleaned, "[") {
		return cleaned
	}
	if arr := extractArray(cleaned); arr != "" {
		return arr
	}
	return cleaned
}

// stripCodeFence removes a leading ```json or ``` line and a trailing ``` line.
func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractArray returns the first balanced top-level [...] substring of s,
// tracking string literals and escapes so brackets inside question text do
// not throw off the depth count. Returns "" when no balanced array exists.
func extractArray(s string) string {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
