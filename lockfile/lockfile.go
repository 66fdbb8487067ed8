// Package lockfile implements l10nbox.lock — a lock file tracking MD5
// checksums of source strings per target locale. It lets incremental
// translation catch keys whose *source text changed* since the last
// run, which key-presence classification alone cannot see, saving
// tokens and time.
//
// The lock file is stored alongside l10nbox.yaml.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "l10nbox.lock"

// Version is the lock file format version.
const Version = 1

// LockFile represents the l10nbox.lock structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // locale -> key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from the given directory. A missing file
// yields an empty lock file, not an error.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// EntryContent builds the hashed content for a key-value pair. The key
// is included so renaming a key triggers re-translation.
func EntryContent(key, value string) string {
	return key + "\x00" + value
}

// ChangedKeys returns the keys of entries whose source content differs
// from the recorded checksum for locale. The input maps key → source
// text; never-seen keys are not reported (plain classification already
// covers those).
func (lf *LockFile) ChangedKeys(locale string, entries map[string]string) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[locale]
	if existing == nil {
		return nil
	}

	var changed []string
	for key, text := range entries {
		old, seen := existing[key]
		if seen && old != Hash(EntryContent(key, text)) {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

// UpdateBatch records checksums for translated keys of one locale.
// The input maps key → source text at translation time.
func (lf *LockFile) UpdateBatch(locale string, entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[locale] == nil {
		lf.Checksums[locale] = make(map[string]string)
	}
	for key, text := range entries {
		lf.Checksums[locale][key] = Hash(EntryContent(key, text))
	}
}

// Clean drops checksums for keys no longer present in the source, so
// stale entries do not accumulate across renames and deletions.
func (lf *LockFile) Clean(locale string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[locale]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}

	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of locales and total keys tracked.
func (lf *LockFile) Stats() (locales, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Locales returns the tracked locale codes, sorted.
func (lf *LockFile) Locales() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	locales := make([]string, 0, len(lf.Checksums))
	for l := range lf.Checksums {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// Summary returns a human-readable one-liner.
func (lf *LockFile) Summary() string {
	locales, keys := lf.Stats()
	if locales == 0 {
		return "empty"
	}

	var parts []string
	for _, l := range lf.Locales() {
		parts = append(parts, fmt.Sprintf("%s: %d keys", l, len(lf.Checksums[l])))
	}
	return fmt.Sprintf("%d locales, %d keys (%s)", locales, keys, strings.Join(parts, ", "))
}
