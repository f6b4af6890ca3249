// Package settings provides unified storage for doctrans user settings,
// including provider API keys and AI translation prompts.
//
// All settings are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/doctrans/  (default: ~/.local/share/doctrans/)
//
// Files stored:
//   - auth.json     — Provider API keys
//   - prompts.json  — AI translation system prompts (customizable by user)
//
// auth.json is a JSON object keyed by provider ID. File permissions are
// 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. DOCTRANS_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "doctrans"
	fileName    = "auth.json"

	// EnvAPIKey overrides stored API keys when set.
	EnvAPIKey = "DOCTRANS_API_KEY"
)

// ---------------------------------------------------------------------------
// Credential entries
// ---------------------------------------------------------------------------

// Info is the per-provider entry stored in auth.json.
type Info struct {
	// Key is the provider API key.
	Key string `json:"key,omitempty"`
	// BaseURL is a custom endpoint URL (custom-openai, ollama).
	BaseURL string `json:"baseUrl,omitempty"`
	// Model is an optional default model for the provider.
	Model string `json:"model,omitempty"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for doctrans.
// Respects $XDG_DATA_HOME, falling back to ~/.local/share.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// PromptsFilePath returns the path to the prompts.json file.
// Default: ~/.local/share/doctrans/prompts.json.
func PromptsFilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts.json"), nil
}

// DataDir returns the doctrans data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return make(Store)
	}

	if store == nil {
		return make(Store)
	}

	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry for a provider, or nil if not found.
func Get(providerID string) *Info {
	store := Load()
	return store[providerID]
}

// Set stores an entry for a provider (upsert).
func Set(providerID string, info *Info) error {
	store := Load()
	store[providerID] = info
	return Save(store)
}

// SetAPIKey stores an API key for a provider, preserving other fields.
func SetAPIKey(providerID, key string) error {
	store := Load()
	info := store[providerID]
	if info == nil {
		info = &Info{}
	}
	info.Key = key
	store[providerID] = info
	return Save(store)
}

// Remove deletes credentials for a provider.
func Remove(providerID string) error {
	store := Load()
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolution and display helpers
// ---------------------------------------------------------------------------

// ResolveAPIKey returns the API key for a provider, honoring the lookup
// order: explicit flag value, DOCTRANS_API_KEY, then the credential store.
func ResolveAPIKey(providerID, flagKey string) string {
	if flagKey != "" {
		return flagKey
	}
	if env := os.Getenv(EnvAPIKey); env != "" {
		return env
	}
	if info := Get(providerID); info != nil {
		return info.Key
	}
	return ""
}

// BaseURL returns the stored base URL for a provider, or empty string.
func BaseURL(providerID string) string {
	info := Get(providerID)
	if info == nil {
		return ""
	}
	return info.BaseURL
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
