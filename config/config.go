// Package config — .doctrans.yaml configuration file support.
//
// When a .doctrans.yaml file exists in the project root, doctrans uses it
// as the sole source of truth for translation targets. Documents not listed
// there can still be translated by passing them on the command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doctrans/doctrans/langmeta"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the top-level .doctrans.yaml structure.
type File struct {
	// SourceLang is the source language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages is the default target language list for all documents.
	Languages []string `yaml:"languages,omitempty"`
	// Provider is the default AI provider ID.
	Provider string `yaml:"provider,omitempty"`
	// Model is the default model identifier.
	Model string `yaml:"model,omitempty"`
	// Topic is the default prompt topic (default, ui, docs, marketing).
	Topic string `yaml:"topic,omitempty"`
	// ProtectedKeys lists key substrings whose values are never translated.
	ProtectedKeys []string `yaml:"protected_keys,omitempty"`
	// MaxBytes overrides the serialized chunk budget.
	MaxBytes int `yaml:"max_bytes,omitempty"`
	// Documents is the list of translation targets.
	Documents []Document `yaml:"documents"`
}

// Document describes a single JSON document to translate.
type Document struct {
	// Name is a human-readable label shown in status/logs.
	Name string `yaml:"name"`
	// Path is the source document path relative to .doctrans.yaml.
	Path string `yaml:"path"`
	// OutputDir is where translated files go (default: alongside the source).
	OutputDir string `yaml:"output_dir,omitempty"`

	// --- overrides ---

	// Languages overrides the global language list for this document.
	Languages []string `yaml:"languages,omitempty"`
	// Topic overrides the global prompt topic for this document.
	Topic string `yaml:"topic,omitempty"`
	// ProtectedKeys adds to the global protected key list.
	ProtectedKeys []string `yaml:"protected_keys,omitempty"`
}

// FileName is the default config file name.
const FileName = ".doctrans.yaml"

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load loads and validates .doctrans.yaml from the given directory.
// Returns nil if no .doctrans.yaml exists.
func Load(rootDir string) (*File, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if f.SourceLang == "" {
		f.SourceLang = "en"
	}

	for i := range f.Documents {
		d := &f.Documents[i]

		if d.Name == "" {
			return nil, fmt.Errorf("%s: document #%d has no name", path, i+1)
		}
		if d.Path == "" {
			return nil, fmt.Errorf("%s: document %q has no path", path, d.Name)
		}

		// Inherit global settings if not overridden
		if len(d.Languages) == 0 {
			d.Languages = f.Languages
		}
		if d.Topic == "" {
			d.Topic = f.Topic
		}
		d.ProtectedKeys = append(append([]string(nil), f.ProtectedKeys...), d.ProtectedKeys...)
	}

	return &f, nil
}

// ---------------------------------------------------------------------------
// Resolving documents
// ---------------------------------------------------------------------------

// ResolvedDocument holds a fully resolved document with absolute paths.
type ResolvedDocument struct {
	Document  Document
	AbsPath   string
	OutputDir string
	Languages []string
}

// Resolve converts a File into a list of ResolvedDocuments with absolute
// paths. Documents without explicit languages inherit existing translation
// files found next to the source.
func (f *File) Resolve(projectRoot string) ([]ResolvedDocument, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	var resolved []ResolvedDocument
	for _, d := range f.Documents {
		absPath := filepath.Join(absRoot, d.Path)

		outDir := filepath.Dir(absPath)
		if d.OutputDir != "" {
			outDir = filepath.Join(absRoot, d.OutputDir)
		}

		langs := d.Languages
		if len(langs) == 0 {
			langs = detectLanguages(absPath, outDir)
		}

		resolved = append(resolved, ResolvedDocument{
			Document:  d,
			AbsPath:   absPath,
			OutputDir: outDir,
			Languages: langs,
		})
	}

	return resolved, nil
}

// OutputPath returns the translated file path for a language:
// <stem>.<lang>.json in the output directory.
func (rd *ResolvedDocument) OutputPath(lang string) string {
	base := filepath.Base(rd.AbsPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(rd.OutputDir, stem+"."+langmeta.Canonical(lang)+".json")
}

// AllLanguages returns the deduplicated, sorted union of all document languages.
func (f *File) AllLanguages(projectRoot string) []string {
	resolved, err := f.Resolve(projectRoot)
	if err != nil {
		return f.Languages
	}

	seen := make(map[string]bool)
	var all []string
	for _, rd := range resolved {
		for _, lang := range rd.Languages {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}
	sort.Strings(all)
	return all
}

// ---------------------------------------------------------------------------
// Language detection from existing output files
// ---------------------------------------------------------------------------

var langCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)

// detectLanguages finds language codes from existing <stem>.<lang>.json
// files next to the source document.
func detectLanguages(absPath, outDir string) []string {
	base := filepath.Base(absPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	prefix := stem + "."

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		lang := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		if langCodePattern.MatchString(lang) {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}
