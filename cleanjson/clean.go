// Package cleanjson recovers a parseable JSON payload from unreliable
// free-text model output. Models wrap JSON in markdown fences, quote it,
// or surround it with prose; the strategies here peel those layers off
// before handing the candidate to a general-purpose syntax repairer.
package cleanjson

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// strategy extracts a JSON candidate from raw text, or returns "" when the
// shape it looks for is absent.
type strategy func(string) string

// strategies are tried in order; the first non-empty candidate wins.
// The order matters: an already-quoted object must be unwrapped before the
// balanced-brace scan sees it, and fenced blocks take priority over raw
// brace hunting.
var strategies = []strategy{
	unwrapQuotes,
	extractFence,
	extractBalancedObject,
	extractBrackets,
}

// Clean turns arbitrary model output into a string guaranteed to parse as
// JSON. The label identifies the calling component in error messages so
// failures stay attributable. Only a bounded preview of the raw input is
// ever logged.
func Clean(text, label string) (string, error) {
	trimmed := strings.TrimSpace(text)

	candidate := trimmed
	for _, s := range strategies {
		if c := s(trimmed); c != "" {
			candidate = c
			break
		}
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		log.Printf("[WARN] unrecoverable %s response: %s", label, truncate(trimmed, 200))
		return "", fmt.Errorf("failed to clean %s response: %w", label, err)
	}
	if !json.Valid([]byte(repaired)) {
		log.Printf("[WARN] unrecoverable %s response: %s", label, truncate(trimmed, 200))
		return "", fmt.Errorf("failed to clean %s response: repaired candidate is still not valid JSON", label)
	}
	return repaired, nil
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

// unwrapQuotes handles replies where the model quoted an entire JSON object,
// e.g. `"{\"a\":1}"` or '{"a":1}'.
func unwrapQuotes(text string) string {
	if len(text) < 2 {
		return ""
	}
	first, last := text[0], text[len(text)-1]
	if first != last {
		return ""
	}
	if first != '"' && first != '\'' && first != '`' {
		return ""
	}
	inner := strings.TrimSpace(text[1 : len(text)-1])
	if strings.HasPrefix(inner, "{") || strings.HasPrefix(inner, "[") {
		return inner
	}
	return ""
}

// extractFence pulls the inner content out of the first triple-backtick
// block, with or without a language tag.
func extractFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	inner := rest[:end]
	// Drop a language tag on the opening line ("json", "javascript", ...).
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(inner[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{}[]\":,") {
			inner = inner[nl+1:]
		}
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return ""
	}
	return inner
}

// extractBalancedObject slices from the first '{' to the last '}' and
// accepts the substring only if the braces balance outside string literals.
// The scan honors backslash escapes so braces embedded in values do not
// confuse the counter.
func extractBalancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	candidate := text[start : end+1]

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
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
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth < 0 {
					return ""
				}
			}
		}
	}
	if depth != 0 {
		return ""
	}
	return candidate
}

// extractBrackets slices from the first '[' to the last ']' for
// array-shaped replies. Accepted unconditionally; the repairer and the
// final parse validation catch garbage.
func extractBrackets(text string) string {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// truncate shortens a string for log output.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
