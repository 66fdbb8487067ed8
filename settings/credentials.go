// Package settings stores user-level l10nbox settings that do not
// belong in a project's l10nbox.yaml: endpoint credentials and
// defaults for the translation API.
//
// Everything lives in the XDG data directory:
//
//	$XDG_DATA_HOME/l10nbox/auth.json  (default: ~/.local/share/l10nbox/)
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. OPENAI_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "l10nbox"
	fileName    = "auth.json"
)

// Credentials is what `l10nbox auth set` persists: the endpoint plus
// its key and a default model. All fields are optional; empty fields
// fall through to environment variables and built-in defaults.
type Credentials struct {
	// Key is the Bearer token for the endpoint.
	Key string `json:"key,omitempty"`
	// BaseURL is the OpenAI-compatible API root.
	BaseURL string `json:"baseUrl,omitempty"`
	// Model is the default model identifier.
	Model string `json:"model,omitempty"`
}

// Empty reports whether nothing is stored.
func (c *Credentials) Empty() bool {
	return c == nil || (c.Key == "" && c.BaseURL == "" && c.Model == "")
}

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for l10nbox.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
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

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the stored credentials. A missing or unreadable file
// yields empty credentials, never an error: the store is one fallback
// in the lookup chain, not a requirement.
func Load() *Credentials {
	path, err := filePath()
	if err != nil {
		return &Credentials{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &Credentials{}
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return &Credentials{}
	}
	return &creds
}

// Save writes the credentials with 0600 permissions.
func Save(creds *Credentials) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}

	return nil
}

// Remove deletes the stored credentials.
func Remove() error {
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
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
