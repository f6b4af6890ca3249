package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Missing(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil for missing config, got %#v", f)
	}
}

func TestLoad_DefaultsAndInheritance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
languages: [de, fr]
provider: google
model: gemini-2.5-flash
topic: ui
protected_keys: [sku]
documents:
  - name: catalog
    path: data/catalog.json
  - name: landing
    path: site/landing.json
    languages: [ja]
    topic: marketing
    protected_keys: [campaign_code]
`)

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if f.SourceLang != "en" {
		t.Errorf("source_lang default = %q", f.SourceLang)
	}
	if f.Provider != "google" || f.Model != "gemini-2.5-flash" {
		t.Errorf("provider/model = %q/%q", f.Provider, f.Model)
	}

	catalog := f.Documents[0]
	if !reflect.DeepEqual(catalog.Languages, []string{"de", "fr"}) {
		t.Errorf("catalog languages = %v", catalog.Languages)
	}
	if catalog.Topic != "ui" {
		t.Errorf("catalog topic = %q", catalog.Topic)
	}
	if !reflect.DeepEqual(catalog.ProtectedKeys, []string{"sku"}) {
		t.Errorf("catalog protected keys = %v", catalog.ProtectedKeys)
	}

	landing := f.Documents[1]
	if !reflect.DeepEqual(landing.Languages, []string{"ja"}) {
		t.Errorf("landing languages = %v", landing.Languages)
	}
	if landing.Topic != "marketing" {
		t.Errorf("landing topic = %q", landing.Topic)
	}
	if !reflect.DeepEqual(landing.ProtectedKeys, []string{"sku", "campaign_code"}) {
		t.Errorf("landing protected keys = %v", landing.ProtectedKeys)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no name", "documents:\n  - path: a.json\n"},
		{"no path", "documents:\n  - name: a\n"},
		{"bad yaml", ": not yaml ["},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tc.content)
			if _, err := Load(dir); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolve_OutputPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
languages: [de]
documents:
  - name: catalog
    path: data/catalog.json
  - name: landing
    path: landing.json
    output_dir: out
`)

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	resolved, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	catalog := resolved[0]
	if want := filepath.Join(dir, "data", "catalog.de.json"); catalog.OutputPath("de") != want {
		t.Errorf("OutputPath = %q, want %q", catalog.OutputPath("de"), want)
	}
	// Codes are canonicalized in file names.
	if want := filepath.Join(dir, "data", "catalog.pt-BR.json"); catalog.OutputPath("pt_br") != want {
		t.Errorf("OutputPath = %q, want %q", catalog.OutputPath("pt_br"), want)
	}

	landing := resolved[1]
	if want := filepath.Join(dir, "out", "landing.de.json"); landing.OutputPath("de") != want {
		t.Errorf("OutputPath = %q, want %q", landing.OutputPath("de"), want)
	}
}

func TestResolve_DetectsExistingLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
documents:
  - name: catalog
    path: data/catalog.json
`)
	writeFile(t, dir, "data/catalog.json", `{}`)
	writeFile(t, dir, "data/catalog.de.json", `{}`)
	writeFile(t, dir, "data/catalog.pt-BR.json", `{}`)
	writeFile(t, dir, "data/catalog.backup.json", `{}`)

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	resolved, err := f.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if want := []string{"de", "pt-BR"}; !reflect.DeepEqual(resolved[0].Languages, want) {
		t.Errorf("detected languages = %v, want %v", resolved[0].Languages, want)
	}
}

func TestAllLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
languages: [de]
documents:
  - name: a
    path: a.json
  - name: b
    path: b.json
    languages: [fr, de]
`)

	f, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if want := []string{"de", "fr"}; !reflect.DeepEqual(f.AllLanguages(dir), want) {
		t.Errorf("AllLanguages = %v, want %v", f.AllLanguages(dir), want)
	}
}
