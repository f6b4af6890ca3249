package translate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPrompt_BuiltIns(t *testing.T) {
	globalPrompts = nil
	for _, topic := range []string{"default", "ui", "docs", "marketing"} {
		prompt := getPrompt(topic)
		if prompt == "" {
			t.Errorf("empty prompt for topic %s", topic)
		}
		if !strings.Contains(prompt, "{{targetLang}}") {
			t.Errorf("topic %s prompt has no target language placeholder", topic)
		}
		if !strings.Contains(prompt, "JSON object") {
			t.Errorf("topic %s prompt does not request the object reply shape", topic)
		}
	}
	if getPrompt("unknown") != DefaultSystemPrompt {
		t.Error("unknown topic should fall back to the default prompt")
	}
}

func TestLoadPromptsFromFile(t *testing.T) {
	t.Cleanup(func() { globalPrompts = nil })

	path := filepath.Join(t.TempDir(), "prompts.json")
	content := `{"prompts": {"default": "custom {{targetLang}} prompt"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadPromptsFromFile(path); err != nil {
		t.Fatalf("LoadPromptsFromFile: %v", err)
	}
	if got := getPrompt("default"); got != "custom {{targetLang}} prompt" {
		t.Errorf("got %q", got)
	}
	// Topics absent from the custom file keep their built-in text.
	if got := getPrompt("docs"); got != DocsSystemPrompt {
		t.Error("missing topic should fall back to built-in")
	}
}

func TestLoadPromptsFromFile_Missing(t *testing.T) {
	t.Cleanup(func() { globalPrompts = nil })

	if err := LoadPromptsFromFile(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
}

func TestLoadPromptsFromFile_Invalid(t *testing.T) {
	t.Cleanup(func() { globalPrompts = nil })

	path := filepath.Join(t.TempDir(), "prompts.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadPromptsFromFile(path); err == nil {
		t.Error("expected error for invalid prompts file")
	}
}

func TestLoadPromptsFromDefaultLocations_CreatesFile(t *testing.T) {
	t.Cleanup(func() { globalPrompts = nil })
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	path, err := LoadPromptsFromDefaultLocations()
	if err != nil {
		t.Fatalf("LoadPromptsFromDefaultLocations: %v", err)
	}
	if path == "" {
		t.Fatal("no prompts path returned")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("prompts file not created: %v", err)
	}
}
