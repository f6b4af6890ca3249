package check

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Placeholders
// ---------------------------------------------------------------------------

func TestPlaceholders_Collection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"printf", "Found %d files in %s", []string{"%d", "%s"}},
		{"double braces", "Hello {{name}}, welcome", []string{"{{name}}"}},
		{"single braces", "Hello {name}", []string{"{name}"}},
		{"none", "plain text", nil},
		{"icu plural", "{count, plural, one {# item} other {# items}}",
			[]string{"{count, plural, one {# item} other {# items}}"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Placeholders(tc.in)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlaceholdersEqual_OrderInsensitive(t *testing.T) {
	if !PlaceholdersEqual("a %s b %d", "x %d y %s") {
		t.Error("reordered placeholders should compare equal")
	}
}

func TestPlaceholdersEqual_DetectsLoss(t *testing.T) {
	if PlaceholdersEqual("Hello {{name}}", "Hallo") {
		t.Error("dropped placeholder not detected")
	}
	if PlaceholdersEqual("Hello", "Hallo {{name}}") {
		t.Error("invented placeholder not detected")
	}
}

func TestPlaceholdersEqual_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"a %s", "b %s"},
		{"a %s", "b %d"},
		{"{x} {y}", "{y} {x}"},
		{"{count, plural, one {#} other {#}}", "no block"},
	}
	for _, p := range pairs {
		if PlaceholdersEqual(p[0], p[1]) != PlaceholdersEqual(p[1], p[0]) {
			t.Errorf("asymmetric verdict for %q / %q", p[0], p[1])
		}
	}
}

// ---------------------------------------------------------------------------
// URL / email sets
// ---------------------------------------------------------------------------

func TestURLsEqual(t *testing.T) {
	tests := []struct {
		name     string
		src, cand string
		want     bool
	}{
		{"same", "see https://example.com", "siehe https://example.com", true},
		{"case folded", "at HTTPS://Example.COM/x", "bei https://example.com/x", true},
		{"duplicate ignored", "https://a.io and https://a.io", "https://a.io", true},
		{"missing", "go to https://example.com", "geh dahin", false},
		{"different", "https://a.io", "https://b.io", false},
		{"none either side", "no links", "keine Links", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := URLsEqual(tc.src, tc.cand); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			if URLsEqual(tc.cand, tc.src) != tc.want {
				t.Error("verdict not symmetric")
			}
		})
	}
}

func TestEmailsEqual(t *testing.T) {
	if !EmailsEqual("mail info@example.com", "schreib an info@example.com") {
		t.Error("same email should compare equal")
	}
	if EmailsEqual("mail info@example.com", "schreib uns") {
		t.Error("dropped email not detected")
	}
}

// ---------------------------------------------------------------------------
// Whitespace repair
// ---------------------------------------------------------------------------

func TestRepairEdgeWhitespace(t *testing.T) {
	tests := []struct {
		name string
		src  string
		cand string
		want string
	}{
		{"trimmed lead restored", "  hello", "hallo", "  hallo"},
		{"trimmed trail restored", "hello\n", "hallo", "hallo\n"},
		{"matching untouched", " hello ", " hallo ", " hallo "},
		{"extra padding removed", "hello", "  hallo  ", "hallo"},
		{"both edges", "\thello  ", "hallo", "\thallo  "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RepairEdgeWhitespace(tc.src, tc.cand); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// IsTrivial
// ---------------------------------------------------------------------------

func TestIsTrivial(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"%s", true},
		{"  %d  ", true},
		{"{{count}}", true},
		{"{name}", true},
		{"{n, plural, one {#} other {#}}", true},
		{"__HTML0__", true},
		{"__HTML0__ break __HTML1__", false},
		{"hello", false},
		{"%s files", false},
		{"a {name}", false},
	}
	for _, tc := range tests {
		if got := IsTrivial(tc.in); got != tc.want {
			t.Errorf("IsTrivial(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
