package cleanjson

import (
	"encoding/json"
	"strings"
	"testing"
)

// cleanAndParse runs Clean and decodes the result, failing the test on any
// error along the way.
func cleanAndParse(t *testing.T, input string) any {
	t.Helper()
	cleaned, err := Clean(input, "test")
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		t.Fatalf("result does not parse: %v\ncleaned: %s", err, cleaned)
	}
	return v
}

// ---------------------------------------------------------------------------
// Recovery strategies
// ---------------------------------------------------------------------------

func TestClean_PlainObject(t *testing.T) {
	v := cleanAndParse(t, `{"a": 1, "b": "two"}`)
	m := v.(map[string]any)
	if m["a"].(float64) != 1 || m["b"].(string) != "two" {
		t.Errorf("unexpected result: %v", m)
	}
}

func TestClean_QuoteWrapped(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"double quotes", `"{"title": "Hello"}"`},
		{"single quotes", `'{"title": "Hello"}'`},
		{"backticks", "`{\"title\": \"Hello\"}`"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := cleanAndParse(t, tc.input)
			m := v.(map[string]any)
			if m["title"] != "Hello" {
				t.Errorf("title = %v", m["title"])
			}
		})
	}
}

func TestClean_FencedBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"with language tag", "Here you go:\n```json\n{\"x\": true}\n```\nEnjoy!"},
		{"without language tag", "```\n{\"x\": true}\n```"},
		{"inline fence", "```{\"x\": true}```"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := cleanAndParse(t, tc.input)
			if v.(map[string]any)["x"] != true {
				t.Errorf("x = %v", v)
			}
		})
	}
}

func TestClean_ProseSurrounded(t *testing.T) {
	input := `Sure! Here is the translation you asked for: {"0": "Hallo"} Let me know if you need more.`
	v := cleanAndParse(t, input)
	if v.(map[string]any)["0"] != "Hallo" {
		t.Errorf("got %v", v)
	}
}

func TestClean_BracesInsideStringValues(t *testing.T) {
	input := `noise {"msg": "use {curly} and \"quoted }\" text"} trailing`
	v := cleanAndParse(t, input)
	if v.(map[string]any)["msg"] != `use {curly} and "quoted }" text` {
		t.Errorf("got %v", v)
	}
}

func TestClean_ArrayReply(t *testing.T) {
	input := "The list: [1, 2, 3] — done."
	v := cleanAndParse(t, input)
	arr := v.([]any)
	if len(arr) != 3 {
		t.Errorf("got %v", arr)
	}
}

func TestClean_RepairsTrailingComma(t *testing.T) {
	v := cleanAndParse(t, `{"a": 1, "b": 2,}`)
	if len(v.(map[string]any)) != 2 {
		t.Errorf("got %v", v)
	}
}

func TestClean_UnrecoverableInput(t *testing.T) {
	_, err := Clean("", "catalog")
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if !strings.Contains(err.Error(), "catalog") {
		t.Errorf("error should carry the label, got: %v", err)
	}
	if !strings.Contains(err.Error(), "failed to clean") {
		t.Errorf("unexpected error text: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Individual strategies
// ---------------------------------------------------------------------------

func TestExtractBalancedObject_RejectsUnbalanced(t *testing.T) {
	if got := extractBalancedObject(`{"a": {"b": 1}`); got != "" {
		t.Errorf("unbalanced braces accepted: %q", got)
	}
}

func TestExtractBalancedObject_NestedObjects(t *testing.T) {
	input := `prefix {"a": {"b": {"c": 1}}} suffix`
	want := `{"a": {"b": {"c": 1}}}`
	if got := extractBalancedObject(input); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnwrapQuotes_IgnoresOrdinaryStrings(t *testing.T) {
	if got := unwrapQuotes(`"just a sentence"`); got != "" {
		t.Errorf("plain quoted text should not unwrap, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Errorf("got %q", got)
	}
}
