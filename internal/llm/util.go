// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock strips the wrappers LLMs put around JSON payloads: markdown
// code fences, conversational preamble, and trailing commentary. Models wrap
// JSON in ```json ... ``` blocks or chatty sentences even when instructed not
// to. The result is the first complete JSON object or array in the text, or
// the trimmed input when none is found.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			// If first line looks like a language identifier (no spaces, short), skip it
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// No fences. Cut conversational preamble and trailers by extracting the
	// first balanced object or array, whichever opens earlier.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	start := objStart
	extract := extractJSONObject
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start = arrStart
		extract = extractJSONArray
	}
	if start >= 0 {
		if payload := extract(text[start:]); payload != "" {
			return payload
		}
	}

	return text
}

// extractJSONObject returns the balanced JSON object at the start of s, or ""
// when s does not begin with one. Braces inside string literals are ignored.
func extractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

// extractJSONArray returns the balanced JSON array at the start of s, or ""
// when s does not begin with one.
func extractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, opener, closer byte) string {
	if len(s) == 0 || s[0] != opener {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch s[i] {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case opener:
			if !inString {
				depth++
			}
		case closer:
			if !inString {
				depth--
				if depth == 0 {
					return s[:i+1]
				}
			}
		}
	}

	return ""
}
