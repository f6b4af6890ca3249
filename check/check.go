// Package check verifies that a candidate translation preserves the
// untranslatable parts of its source: interpolation placeholders, URLs,
// email addresses, and edge whitespace.
//
// All checks are advisory. The translation engine records mismatches as
// issues and keeps the candidate; only whitespace drift is repaired in
// place.
package check

import (
	"regexp"
	"slices"
	"sort"
	"strings"
)

var (
	// icuPattern matches ICU plural/select blocks, one level of nested
	// braces deep: {count, plural, one {# item} other {# items}}.
	icuPattern = regexp.MustCompile(`\{\s*[\w.]+\s*,\s*(?:plural|select)\s*,[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)

	// simplePattern matches printf-style specifiers and single/double
	// brace interpolations: %s, %d, {{name}}, {name}.
	simplePattern = regexp.MustCompile(`%[sd]|\{\{\s*[\w.]+\s*\}\}|\{[\w.]+\}`)

	urlPattern   = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	leadingWS  = regexp.MustCompile(`^[ \t\r\n]*`)
	trailingWS = regexp.MustCompile(`[ \t\r\n]*$`)

	htmlTokenPattern = regexp.MustCompile(`__HTML\d+__`)
)

// Placeholders collects the ICU block tokens and simple placeholders of s,
// sorted. ICU blocks are removed before the simple scan so their inner
// braces are not double-counted.
func Placeholders(s string) []string {
	var tokens []string
	rest := icuPattern.ReplaceAllStringFunc(s, func(m string) string {
		tokens = append(tokens, m)
		return ""
	})
	tokens = append(tokens, simplePattern.FindAllString(rest, -1)...)
	sort.Strings(tokens)
	return tokens
}

// PlaceholdersEqual reports whether source and candidate carry exactly the
// same placeholder tokens. Order-insensitive and symmetric.
func PlaceholdersEqual(src, cand string) bool {
	return slices.Equal(Placeholders(src), Placeholders(cand))
}

func tokenSet(pattern *regexp.Regexp, s string, fold bool) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range pattern.FindAllString(s, -1) {
		if fold {
			m = strings.ToLower(m)
		}
		set[m] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// URLsEqual compares the http(s) URL sets of source and candidate,
// case-insensitively. Duplicates and order are ignored.
func URLsEqual(src, cand string) bool {
	return setsEqual(tokenSet(urlPattern, src, true), tokenSet(urlPattern, cand, true))
}

// EmailsEqual compares the email-shaped token sets of source and candidate.
func EmailsEqual(src, cand string) bool {
	return setsEqual(tokenSet(emailPattern, src, true), tokenSet(emailPattern, cand, true))
}

// RepairEdgeWhitespace restores the source's leading and trailing
// whitespace runs on the candidate when either run differs in length.
// Models trim or pad edges constantly; this is repaired silently rather
// than reported.
func RepairEdgeWhitespace(src, cand string) string {
	srcLead := leadingWS.FindString(src)
	srcTrail := trailingWS.FindString(src)
	if len(srcLead) == len(leadingWS.FindString(cand)) &&
		len(srcTrail) == len(trailingWS.FindString(cand)) {
		return cand
	}
	return srcLead + strings.TrimSpace(cand) + srcTrail
}

// IsTrivial reports whether a source value carries nothing translatable:
// empty after trimming, or consisting of exactly one placeholder token.
// Trivial values are never taken from the model reply.
func IsTrivial(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	for _, p := range []*regexp.Regexp{simplePattern, icuPattern, htmlTokenPattern} {
		if loc := p.FindStringIndex(t); loc != nil && loc[0] == 0 && loc[1] == len(t) {
			return true
		}
	}
	return false
}
