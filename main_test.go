package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/doctrans/doctrans/translate"
)

func TestLoadWriteDocumentRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"title": "Hello", "items": [1, 2]}`), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}

	doc, err := loadDocument(path)
	if err != nil {
		t.Fatalf("loadDocument() error: %v", err)
	}

	out := filepath.Join(dir, "nested", "doc.de.json")
	if err := writeDocument(out, doc); err != nil {
		t.Fatalf("writeDocument() error: %v", err)
	}

	again, err := loadDocument(out)
	if err != nil {
		t.Fatalf("loadDocument(written) error: %v", err)
	}
	if !reflect.DeepEqual(again, doc) {
		t.Fatalf("round trip changed document: %#v vs %#v", again, doc)
	}

	data, _ := os.ReadFile(out)
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatal("written file should end with a newline")
	}
}

func TestLoadDocumentErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := loadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadDocument(bad); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestTranslateDocumentWritesSurvivingLanguages(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]any{"title": "hello"}
	outPath := func(lang string) string {
		return filepath.Join(dir, "doc."+lang+".json")
	}

	// Echo the values back; the empty language code in the middle fails.
	invoker := func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		var payload map[string]string
		if err := json.Unmarshal([]byte(userPrompt), &payload); err != nil {
			return "", err
		}
		out, err := json.Marshal(payload)
		return string(out), err
	}

	err := translateDocument(context.Background(), doc, "doc.json",
		[]string{"de", "", "fr"}, outPath, translate.Options{Invoker: invoker})
	if err == nil {
		t.Fatal("expected aggregate error for the failed language")
	}
	if !strings.Contains(err.Error(), "1 language(s) failed") {
		t.Errorf("err = %v", err)
	}

	for _, lang := range []string{"de", "fr"} {
		if _, statErr := os.Stat(outPath(lang)); statErr != nil {
			t.Errorf("%s output missing: %v", lang, statErr)
		}
	}
	if _, statErr := os.Stat(outPath("")); statErr == nil {
		t.Error("failed language must not produce an output file")
	}
}

func TestBuildProvider(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("DOCTRANS_API_KEY", "")

	if _, err := buildProvider("nope", "m", "k", "", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := buildProvider("google", "", "k", "", ""); err == nil {
		t.Fatal("expected error without model")
	}
	if _, err := buildProvider("google", "gemini-2.5-flash", "", "", ""); err == nil {
		t.Fatal("expected error without API key")
	}

	prov, err := buildProvider("google", "gemini-2.5-flash", "flag-key", "", "http://proxy:8080")
	if err != nil {
		t.Fatalf("buildProvider() error: %v", err)
	}
	if prov.Model != "gemini-2.5-flash" || prov.APIKey != "flag-key" || prov.Proxy != "http://proxy:8080" {
		t.Fatalf("unexpected provider: %#v", prov)
	}
	if prov.BaseURL == "" {
		t.Fatal("default base URL missing")
	}

	// Ollama works without a key.
	if _, err := buildProvider("ollama", "llama3.2", "", "", ""); err != nil {
		t.Fatalf("ollama should not need a key: %v", err)
	}

	// Flag base URL overrides the default.
	prov, err = buildProvider("custom-openai", "m", "k", "https://llm.internal/v1", "")
	if err != nil {
		t.Fatalf("buildProvider() error: %v", err)
	}
	if prov.BaseURL != "https://llm.internal/v1" {
		t.Fatalf("base URL = %q", prov.BaseURL)
	}
}
