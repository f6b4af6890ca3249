package translate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doctrans/doctrans/settings"
)

// ---------------------------------------------------------------------------
// System prompts configuration
// ---------------------------------------------------------------------------

// PromptsConfig holds all system prompts loaded from prompts.json.
type PromptsConfig struct {
	Prompts map[string]string `json:"prompts"`
}

// globalPrompts holds the loaded prompts configuration.
var globalPrompts *PromptsConfig

// LoadPromptsFromFile loads system prompts from a JSON file.
// A missing file is not an error; the embedded defaults are used instead.
func LoadPromptsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read prompts file: %w", err)
	}

	var config PromptsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse prompts file: %w", err)
	}

	globalPrompts = &config
	return nil
}

func defaultPromptsMap() map[string]string {
	return map[string]string{
		"default":   DefaultSystemPrompt,
		"ui":        UISystemPrompt,
		"docs":      DocsSystemPrompt,
		"marketing": MarketingSystemPrompt,
	}
}

// createDefaultPromptsFile writes the built-in prompts to path as formatted JSON.
func createDefaultPromptsFile(path string) error {
	config := PromptsConfig{Prompts: defaultPromptsMap()}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling default prompts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating prompts directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing default prompts file: %w", err)
	}
	return nil
}

// LoadPromptsFromDefaultLocations loads prompts from the user data directory
// ($XDG_DATA_HOME/doctrans/prompts.json), creating the file with the built-in
// defaults when it does not exist. Returns the path of the loaded file.
func LoadPromptsFromDefaultLocations() (string, error) {
	path, err := settings.PromptsFilePath()
	if err != nil {
		return "", fmt.Errorf("cannot determine prompts file path: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultPromptsFile(path); err != nil {
			return "", fmt.Errorf("creating default prompts file: %w", err)
		}
	}

	if err := LoadPromptsFromFile(path); err != nil {
		return "", err
	}

	if globalPrompts != nil {
		return path, nil
	}
	return "", nil
}

// getPrompt returns the system prompt for a topic, preferring loaded custom
// prompts over the embedded defaults.
func getPrompt(topic string) string {
	if globalPrompts != nil {
		if prompt, ok := globalPrompts.Prompts[topic]; ok && prompt != "" {
			return prompt
		}
	}
	if prompt, ok := defaultPromptsMap()[topic]; ok {
		return prompt
	}
	return DefaultSystemPrompt
}

// ---------------------------------------------------------------------------
// Built-in system prompts
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is the general-purpose document translation prompt.
const DefaultSystemPrompt = `You are a professional translator. You are translating the text values of a structured document into {{targetLang}}.

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Use idiomatic expressions natural to {{targetLang}}, not literal translations
- Maintain the original tone and intent, but express it naturally in {{targetLang}}
- Keep brand names and proper nouns unchanged

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping numeric string keys to source texts.
- Return ONLY a JSON object with EXACTLY the same keys, each mapped to its translation.
- Preserve all format specifiers and placeholders exactly as-is (%s, %d, {{name}}, {name}).
- Preserve tokens of the form __HTML0__, __HTML1__, ... exactly as-is and in a position that keeps the sentence natural.
- Preserve URLs and email addresses exactly as-is.
- Preserve leading/trailing whitespace and newlines.
- Return ONLY the JSON object, no explanations or markdown code blocks.`

// UISystemPrompt targets short interface strings: labels, buttons, menus.
const UISystemPrompt = `You are a professional translator specializing in software localization. You are translating user interface strings (labels, buttons, menu items, tooltips) into {{targetLang}}.

CONTEXT AWARENESS:
- The audience is software users
- Tone: professional yet approachable, clear and concise
- Use IT/software terminology that is standard in the {{targetLang}} tech community
- Prefer short phrasings that fit interface elements

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping numeric string keys to source texts.
- Return ONLY a JSON object with EXACTLY the same keys, each mapped to its translation.
- Preserve all format specifiers and placeholders exactly as-is (%s, %d, {{name}}, {name}).
- Preserve tokens of the form __HTML0__, __HTML1__, ... exactly as-is.
- Preserve URLs and email addresses exactly as-is.
- Return ONLY the JSON object, no explanations or markdown code blocks.`

// DocsSystemPrompt targets technical documentation content.
const DocsSystemPrompt = `You are a professional translator specializing in technical documentation. You are translating documentation content into {{targetLang}}.

CONTEXT AWARENESS:
- The audience is developers, system administrators, and advanced users
- Tone: formal technical documentation, precise and unambiguous
- Use established technical terminology in {{targetLang}}

IMPORTANT TRANSLATION PRINCIPLES:
- Do NOT translate command names, option flags, file paths, environment variables, or code examples
- DO translate descriptive text, explanations, and headings
- Maintain the formal register typical of technical documentation

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping numeric string keys to source texts.
- Return ONLY a JSON object with EXACTLY the same keys, each mapped to its translation.
- Preserve all format specifiers and placeholders exactly as-is (%s, %d, {{name}}, {name}).
- Preserve tokens of the form __HTML0__, __HTML1__, ... exactly as-is.
- Preserve URLs and email addresses exactly as-is.
- Return ONLY the JSON object, no explanations or markdown code blocks.`

// MarketingSystemPrompt targets product and marketing copy.
const MarketingSystemPrompt = `You are a professional translator specializing in marketing and product copy. You are translating promotional content into {{targetLang}}.

CONTEXT AWARENESS:
- The audience is prospective customers
- Tone: engaging and persuasive, adapted to {{targetLang}} market conventions
- Transcreate where a literal translation would fall flat, keeping the message and intent

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping numeric string keys to source texts.
- Return ONLY a JSON object with EXACTLY the same keys, each mapped to its translation.
- Preserve all format specifiers and placeholders exactly as-is (%s, %d, {{name}}, {name}).
- Preserve tokens of the form __HTML0__, __HTML1__, ... exactly as-is.
- Preserve URLs and email addresses exactly as-is.
- Return ONLY the JSON object, no explanations or markdown code blocks.`
