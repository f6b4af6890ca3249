// Package htmltag shields embedded HTML markup from the translator.
//
// Markup-bearing strings are first normalized through a lenient fragment
// parser (which auto-closes unmatched tags), then every tag is replaced by
// an opaque positional token. The model only ever sees tokens where tags
// were, so it cannot corrupt the markup; structural correctness is
// guaranteed by construction rather than validated after the fact.
package htmltag

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TagMap records the original tag text for each token, in order of first
// appearance. The slice index is the token number.
type TagMap []string

// tagPattern matches generic tag-shaped substrings, non-greedy.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Normalize repairs a malformed HTML fragment by parsing it leniently and
// serializing it back to canonical markup. No document wrapper is added.
// On any parser failure the input is returned unchanged; this function
// never fails.
func Normalize(fragment string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return fragment
	}

	var b strings.Builder
	for _, n := range nodes {
		if err := html.Render(&b, n); err != nil {
			return fragment
		}
	}
	return b.String()
}

// Token returns the opaque marker substituted for tag number n. The shape
// is namespaced so it cannot collide with ordinary numeric content.
func Token(n int) string {
	return fmt.Sprintf("__HTML%d__", n)
}

// Protect replaces each tag-shaped substring with its positional token,
// left to right, and records the originals for later restoration.
func Protect(text string) (string, TagMap) {
	var tags TagMap
	protected := tagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		token := Token(len(tags))
		tags = append(tags, tag)
		return token
	})
	return protected, tags
}

// Restore substitutes every occurrence of each recorded token back with the
// original tag text. Plain substring replacement is sufficient because the
// token shape never occurs in natural text.
func Restore(text string, tags TagMap) string {
	for i, tag := range tags {
		text = strings.ReplaceAll(text, Token(i), tag)
	}
	return text
}
