// Package extract walks a decoded JSON-like document and collects its
// translatable string leaves, each with a path that lets the binder put a
// translated value back in the same place.
//
// Structural values (identifiers, URLs, type discriminators) are skipped by
// key-name heuristics; callers can extend the skip list with their own
// protected keys. Markup-bearing leaves are normalized and tag-protected
// before they are recorded.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/doctrans/doctrans/htmltag"
)

// Entry is one translatable leaf collected from the document.
type Entry struct {
	// Path locates the leaf: dot-separated object keys with bracket-indexed
	// array positions, e.g. "items[2].title". Keys containing '.' or '['
	// produce ambiguous paths; the input artifact's key discipline is
	// trusted here.
	Path string
	// Value is the leaf string, already tag-protected if it held markup.
	Value string
	// Context is a coarse content-type label derived from the key name.
	// Informational only; it steers prompt wording, nothing else.
	Context string
	// Tags holds the protected markup for restoration. Nil for plain leaves.
	Tags htmltag.TagMap
}

// ---------------------------------------------------------------------------
// Key classification
// ---------------------------------------------------------------------------

// structuralWord flags snake/kebab-cased keys carrying identifiers, URLs,
// type/enum discriminators, or header/sender-like fields.
var structuralWord = regexp.MustCompile(`(?i)(^|[_-])(id|ids|uuid|guid|key|code|slug|hash|token|type|kind|enum|status|url|uri|href|link|src|email|sender|from|to|locale|lang|language|version|format|date|time)([_-]|$)`)

// structuralCamel flags the same families as camelCase suffixes. Kept
// case-sensitive so words like "valid" or "solid" are not caught.
var structuralCamel = regexp.MustCompile(`(Id|Ids|Uuid|Guid|Key|Code|Slug|Hash|Token|Type|Kind|Status|Url|Uri|Href|Link|Src|Email|Sender|Locale|Lang|Version|Format|Date|Time)$`)

// isStructuralKey reports whether a key names a machine-readable field that
// must never be sent to the translator.
func isStructuralKey(key string) bool {
	return structuralWord.MatchString(key) || structuralCamel.MatchString(key)
}

// contextKinds are matched as substrings against the lowercased key name.
var contextKinds = []string{"title", "subject", "description", "content", "message", "explanation"}

// contextForKey derives the coarse content-type label for a leaf.
func contextForKey(key string) string {
	k := strings.ToLower(key)
	for _, kind := range contextKinds {
		if strings.Contains(k, kind) {
			return kind
		}
	}
	return "text"
}

// skipKey reports whether a leaf under this key is excluded from
// extraction, either by a caller-supplied protected key (case-insensitive
// substring match) or by the built-in structural patterns.
func skipKey(key string, protected []string) bool {
	lower := strings.ToLower(key)
	for _, p := range protected {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return isStructuralKey(key)
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// Extract collects the translatable string leaves of doc in deterministic
// pre-order: object keys sorted, array indices ascending. Entries are
// immutable once returned; the same input always yields the same output.
func Extract(doc any, protectedKeys []string) []Entry {
	var entries []Entry
	walk(doc, "", "", protectedKeys, &entries)
	return entries
}

func walk(node any, path, key string, protected []string, out *[]Entry) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(v[k], childPath(path, k), k, protected, out)
		}

	case []any:
		// Array elements inherit the enclosing object key for skip and
		// context decisions.
		for i, item := range v {
			walk(item, fmt.Sprintf("%s[%d]", path, i), key, protected, out)
		}

	case string:
		if key != "" && skipKey(key, protected) {
			return
		}
		value := v
		var tags htmltag.TagMap
		if strings.Contains(v, "<") && strings.Contains(v, ">") {
			value, tags = htmltag.Protect(htmltag.Normalize(v))
		}
		*out = append(*out, Entry{
			Path:    path,
			Value:   value,
			Context: contextForKey(key),
			Tags:    tags,
		})
	}
	// Numbers, booleans and nulls are never translatable.
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// ---------------------------------------------------------------------------
// Path parsing (inverse of the walk above, used by the binder)
// ---------------------------------------------------------------------------

// Step is one navigation step of a parsed path: either an object key or an
// array index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// ParsePath splits a dot/bracket path into navigation steps.
// "items[2].title" -> [{Key:"items"} {Index:2} {Key:"title"}].
// The empty path parses to no steps and addresses the document root.
func ParsePath(path string) ([]Step, error) {
	if path == "" {
		return nil, nil
	}

	var steps []Step
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated index in path %q", path)
			}
			digits := path[i+1 : i+end]
			if digits == "" {
				return nil, fmt.Errorf("empty index in path %q", path)
			}
			idx := 0
			for _, c := range digits {
				if c < '0' || c > '9' {
					return nil, fmt.Errorf("invalid index %q in path %q", digits, path)
				}
				idx = idx*10 + int(c-'0')
			}
			steps = append(steps, Step{Index: idx, IsIndex: true})
			i += end + 1
		default:
			end := strings.IndexAny(path[i:], ".[")
			if end < 0 {
				end = len(path) - i
			}
			steps = append(steps, Step{Key: path[i : i+end]})
			i += end
		}
	}
	return steps, nil
}
